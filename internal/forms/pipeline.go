// Package forms runs public form submissions through validation, storage and
// office notification.
package forms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/mhc-gc/mhc-site/backend/go-api/internal/notify"
	"github.com/mhc-gc/mhc-site/backend/go-api/internal/store"
	"github.com/mhc-gc/mhc-site/backend/go-api/internal/validate"
	"github.com/mhc-gc/mhc-site/backend/go-api/pkg/logger"
	"github.com/mhc-gc/mhc-site/backend/go-api/pkg/metrics"
)

const defaultNotifyTimeout = 15 * time.Second

var (
	ErrMalformedRequest = errors.New("malformed request body")
	// ErrPersistence wraps the storage failure; only the sentinel is shown to clients.
	ErrPersistence = errors.New("submission could not be stored")
)

// ValidationError carries the reason shown to the client.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

const StatusNew = "new"

// FormConfig describes one form type. All functions are pure functions of
// the decoded body.
type FormConfig[T any] struct {
	TableName      string
	SubmissionType string
	ValidateFields func(T) validate.Result
	TransformData  func(T) store.Record
	EmailSubject   func(T) string
	EmailMessage   func(T) string

	// ReplyTo, when set, gives the submitter's address for the office email.
	ReplyTo func(T) string
	// Statuses lists the values an admin may set; the first is the initial one.
	Statuses []string
	// SuccessMessage is shown to the submitter. Defaults to
	// "<SubmissionType> received successfully".
	SuccessMessage string
}

func (f FormConfig[T]) Acknowledgement() string {
	if f.SuccessMessage != "" {
		return f.SuccessMessage
	}
	return f.SubmissionType + " received successfully"
}

// Receipt is returned for a stored submission.
type Receipt struct {
	ID        string `json:"id"`
	EmailSent bool   `json:"emailSent"`
}

// Deps are the collaborators shared by all pipelines.
type Deps struct {
	Gateway    store.Gateway
	Notifier   notify.Notifier
	Recipients []string
	// NotifyTimeout bounds the email step. Defaults to 15s.
	NotifyTimeout time.Duration
	Now           func() time.Time
	NewID         func() string
}

type Pipeline[T any] struct {
	form FormConfig[T]
	deps Deps
}

func New[T any](form FormConfig[T], deps Deps) *Pipeline[T] {
	if deps.Notifier == nil {
		deps.Notifier = notify.LogNotifier{}
	}
	if deps.NotifyTimeout <= 0 {
		deps.NotifyTimeout = defaultNotifyTimeout
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	return &Pipeline[T]{form: form, deps: deps}
}

// Form returns the pipeline's form configuration.
func (p *Pipeline[T]) Form() FormConfig[T] { return p.form }

// Submit decodes, validates, stores and announces one submission. Each step
// gates the next; only the email is best-effort.
func (p *Pipeline[T]) Submit(ctx context.Context, body io.Reader) (Receipt, error) {
	kind := p.form.SubmissionType

	var data T
	if err := decodeBody(body, &data); err != nil {
		metrics.FormSubmissions.WithLabelValues(kind, metrics.OutcomeMalformed).Inc()
		return Receipt{}, err
	}

	if res := p.form.ValidateFields(data); !res.Valid {
		metrics.FormSubmissions.WithLabelValues(kind, metrics.OutcomeInvalid).Inc()
		reason := res.Error
		if reason == "" {
			reason = "Invalid form data"
		}
		return Receipt{}, &ValidationError{Reason: reason}
	}

	row, err := p.record(data)
	if err != nil {
		metrics.FormSubmissions.WithLabelValues(kind, metrics.OutcomeError).Inc()
		return Receipt{}, err
	}

	id, err := p.deps.Gateway.Insert(ctx, p.form.TableName, row)
	if err != nil {
		metrics.FormSubmissions.WithLabelValues(kind, metrics.OutcomeError).Inc()
		logger.Errorw("submission insert failed", "type", kind, "table", p.form.TableName, "err", err)
		return Receipt{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	metrics.FormSubmissions.WithLabelValues(kind, metrics.OutcomeStored).Inc()
	logger.Infow("submission stored", "type", kind, "id", id)

	return Receipt{ID: id, EmailSent: p.announce(ctx, data, id)}, nil
}

// decodeBody reads exactly one JSON value; anything after it but whitespace
// is malformed.
func decodeBody(body io.Reader, v any) error {
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("%w: unexpected data after JSON value", ErrMalformedRequest)
	}
	return nil
}

// record builds the stored row: the transformed columns plus id, status,
// timestamps and a metadata JSON blob.
func (p *Pipeline[T]) record(data T) (store.Record, error) {
	now := p.deps.Now().UTC()
	row := store.Record{}
	meta := map[string]any{}
	for k, v := range p.form.TransformData(data) {
		if k == "metadata" {
			if m, ok := v.(map[string]any); ok {
				for mk, mv := range m {
					meta[mk] = mv
				}
			}
			continue
		}
		row[k] = v
	}
	meta["submissionType"] = p.form.SubmissionType
	meta["submittedAt"] = now.Format(time.RFC3339)
	blob, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}

	row["id"] = p.deps.NewID()
	row["status"] = StatusNew
	row["created_at"] = now
	row["updated_at"] = now
	row["metadata"] = string(blob)
	return row, nil
}

// announce sends the office email and reports whether it was handed off.
// It runs detached from request cancellation so a client hang-up after the
// insert does not drop the email.
func (p *Pipeline[T]) announce(ctx context.Context, data T, id string) bool {
	kind := p.form.SubmissionType
	replyTo := ""
	if p.form.ReplyTo != nil {
		replyTo = p.form.ReplyTo(data)
	}
	msg, err := notify.Compose(p.deps.Recipients, replyTo, p.form.EmailSubject(data), p.form.EmailMessage(data),
		[]notify.Field{
			{Label: "Submission ID", Value: id},
			{Label: "Submission Type", Value: kind},
			{Label: "Received", Value: p.deps.Now().UTC().Format(time.RFC1123)},
		})
	if err == nil {
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.deps.NotifyTimeout)
		defer cancel()
		err = p.deps.Notifier.Send(sendCtx, msg)
	}
	if err != nil {
		metrics.NotificationsFailed.WithLabelValues(kind).Inc()
		logger.Warnw("submission email not sent", "type", kind, "id", id, "err", err)
		return false
	}
	return true
}
