package forms

import (
	"context"
	"io"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/mhc-gc/mhc-site/backend/go-api/internal/notify"
	"github.com/mhc-gc/mhc-site/backend/go-api/internal/validate"
	"github.com/mhc-gc/mhc-site/backend/go-api/pkg/logger"
	"github.com/mhc-gc/mhc-site/backend/go-api/pkg/metrics"
)

// PhoneCallClick is the body of POST /api/track-phone-call, sent when a
// visitor taps a phone number on the site.
type PhoneCallClick struct {
	Source      string `json:"source"`
	PhoneNumber string `json:"phoneNumber"`
	Timestamp   string `json:"timestamp"`
	UserAgent   string `json:"userAgent"`
	Referrer    string `json:"referrer"`
	Page        string `json:"page"`
}

type PhoneCallResult struct {
	Source    string `json:"source"`
	EmailSent bool   `json:"emailSent"`
}

// officeZone is where the office reads its mail.
var officeZone = loadZone("America/Los_Angeles")

func loadZone(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// PhoneCall tells the office about phone-number clicks. Nothing is stored.
type PhoneCall struct {
	notifier   notify.Notifier
	recipients []string
	now        func() time.Time
}

func NewPhoneCall(n notify.Notifier, recipients []string) *PhoneCall {
	if n == nil {
		n = notify.LogNotifier{}
	}
	return &PhoneCall{notifier: n, recipients: recipients, now: time.Now}
}

func (p *PhoneCall) Track(ctx context.Context, body io.Reader) (PhoneCallResult, error) {
	var click PhoneCallClick
	if err := decodeBody(body, &click); err != nil {
		return PhoneCallResult{}, err
	}
	click.Source = strings.TrimSpace(click.Source)
	click.PhoneNumber = strings.TrimSpace(click.PhoneNumber)
	if res := validate.RequireFields(map[string]string{
		"source":      click.Source,
		"phoneNumber": click.PhoneNumber,
	}, "source", "phoneNumber"); !res.Valid {
		return PhoneCallResult{}, &ValidationError{Reason: res.Error}
	}

	msg, err := notify.Compose(p.recipients, "", "Phone Call Activity: "+click.Source,
		"A visitor clicked the phone number on your website. This is a hot lead: be prepared for an incoming call to "+click.PhoneNumber+".",
		[]notify.Field{
			{Label: "Phone Number", Value: click.PhoneNumber},
			{Label: "Click Source", Value: click.Source},
			{Label: "Time", Value: p.clickTime(click.Timestamp)},
			{Label: "Page", Value: click.Page},
			{Label: "Referrer", Value: click.Referrer},
			{Label: "Device", Value: click.UserAgent},
		})
	if err == nil {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultNotifyTimeout)
		defer cancel()
		err = p.notifier.Send(ctx, msg)
	}
	if err != nil {
		metrics.NotificationsFailed.WithLabelValues("phone_call").Inc()
		logger.Warnw("phone call email not sent", "source", click.Source, "err", err)
		return PhoneCallResult{Source: click.Source}, nil
	}
	logger.Infow("phone call tracked", "source", click.Source, "phone", click.PhoneNumber)
	return PhoneCallResult{Source: click.Source, EmailSent: true}, nil
}

// clickTime renders the client's timestamp in office time, falling back to
// the server clock when it is missing or unreadable.
func (p *PhoneCall) clickTime(raw string) string {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(raw))
	if err != nil {
		t = p.now()
	}
	return t.In(officeZone).Format("Jan 2, 2006 3:04 PM MST")
}
