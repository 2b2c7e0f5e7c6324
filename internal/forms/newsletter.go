package forms

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mhc-gc/mhc-site/backend/go-api/internal/notify"
	"github.com/mhc-gc/mhc-site/backend/go-api/internal/validate"
	"github.com/mhc-gc/mhc-site/backend/go-api/pkg/logger"
	"github.com/mhc-gc/mhc-site/backend/go-api/pkg/metrics"
)

// NewsletterSignup is the body of POST /api/newsletter.
type NewsletterSignup struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// NewsletterResult reports which of the two emails were handed off.
type NewsletterResult struct {
	OfficeNotified bool `json:"officeNotified"`
	Acknowledged   bool `json:"acknowledged"`
}

// Newsletter announces signups to the office and thanks the subscriber.
// Nothing is stored; both emails are best-effort.
type Newsletter struct {
	notifier   notify.Notifier
	recipients []string
}

func NewNewsletter(n notify.Notifier, recipients []string) *Newsletter {
	if n == nil {
		n = notify.LogNotifier{}
	}
	return &Newsletter{notifier: n, recipients: recipients}
}

func (n *Newsletter) Subscribe(ctx context.Context, body io.Reader) (NewsletterResult, error) {
	var s NewsletterSignup
	if err := decodeBody(body, &s); err != nil {
		return NewsletterResult{}, err
	}
	s.Email = strings.TrimSpace(s.Email)
	if res := validate.First(
		validate.RequireFields(map[string]string{"email": s.Email}, "email"),
		validate.Email(s.Email),
	); !res.Valid {
		return NewsletterResult{}, &ValidationError{Reason: res.Error}
	}

	name := orDefault(s.Name, "Not provided")
	var out NewsletterResult
	office, err := notify.Compose(n.recipients, s.Email, "New Newsletter Subscription",
		"A new subscriber signed up for the MH Construction newsletter.",
		[]notify.Field{{Label: "Email", Value: s.Email}, {Label: "Name", Value: name}})
	if err == nil {
		err = n.notifier.Send(ctx, office)
	}
	out.OfficeNotified = n.logResult("office", err)

	greeting := "Hello,"
	if strings.TrimSpace(s.Name) != "" {
		greeting = fmt.Sprintf("Hello %s,", strings.TrimSpace(s.Name))
	}
	ack, err := notify.Compose([]string{s.Email}, "", "Welcome to the MH Construction Newsletter",
		greeting+"\n\nThank you for subscribing. We will keep you updated on our latest projects, veteran programs and community news.", nil)
	if err == nil {
		err = n.notifier.Send(ctx, ack)
	}
	out.Acknowledged = n.logResult("acknowledgement", err)
	return out, nil
}

func (n *Newsletter) logResult(which string, err error) bool {
	if err != nil {
		metrics.NotificationsFailed.WithLabelValues("newsletter").Inc()
		logger.Warnw("newsletter email not sent", "email", which, "err", err)
		return false
	}
	return true
}
