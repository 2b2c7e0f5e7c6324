// Package notify delivers office and customer emails.
package notify

import (
	"context"
	"errors"
	"strings"

	"github.com/mhc-gc/mhc-site/backend/go-api/pkg/logger"
)

// Message is one email. HTML is optional; Text is always sent.
type Message struct {
	To      []string `json:"to"`
	ReplyTo string   `json:"replyTo,omitempty"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
	HTML    string   `json:"html,omitempty"`
}

var (
	ErrNotConfigured = errors.New("notify: no mail transport configured")
	ErrNoRecipients  = errors.New("notify: message has no recipients")
)

// Validate checks the fields every transport needs.
func (m Message) Validate() error {
	if len(m.To) == 0 {
		return ErrNoRecipients
	}
	for _, to := range m.To {
		if strings.TrimSpace(to) == "" {
			return ErrNoRecipients
		}
	}
	if strings.TrimSpace(m.Subject) == "" {
		return errors.New("notify: message has no subject")
	}
	return nil
}

type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, msg Message) error

func (f NotifierFunc) Send(ctx context.Context, msg Message) error { return f(ctx, msg) }

// LogNotifier records what would have been sent and reports ErrNotConfigured,
// so callers still see emailSent=false.
type LogNotifier struct{}

func (LogNotifier) Send(_ context.Context, msg Message) error {
	logger.Warnw("email transport not configured; message not sent",
		"to", strings.Join(msg.To, ","), "subject", msg.Subject)
	return ErrNotConfigured
}

// Fallback sends through Primary and, when that fails, through Secondary.
type Fallback struct {
	Primary   Notifier
	Secondary Notifier
}

func (f Fallback) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	err := f.Primary.Send(ctx, msg)
	if err == nil || f.Secondary == nil {
		return err
	}
	logger.Warnw("primary mail transport failed, using fallback", "subject", msg.Subject, "err", err)
	if ferr := f.Secondary.Send(ctx, msg); ferr != nil {
		return errors.Join(err, ferr)
	}
	return nil
}
