package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mhc-gc/mhc-site/backend/go-api/pkg/logger"
	"github.com/mhc-gc/mhc-site/backend/go-api/pkg/metrics"
)

var (
	ErrInvalidSubscription = errors.New("invalid push subscription")
	ErrInvalidNotification = errors.New("title and body are required")
	// ErrSubscriptionGone is returned by a Sender when the push service no
	// longer knows the endpoint; the subscription is then dropped.
	ErrSubscriptionGone = errors.New("push subscription expired")
)

const iconPath = "/icons/icon-96x96.png"

// Sender delivers one encrypted payload to one subscription.
type Sender interface {
	Push(ctx context.Context, sub Subscription, payload []byte) error
}

// LogSender records deliveries without contacting a push service.
type LogSender struct{}

func (LogSender) Push(_ context.Context, sub Subscription, payload []byte) error {
	logger.Infow("push delivery not configured; notification logged", "subscription", sub.ID, "bytes", len(payload))
	return nil
}

// SubscribeRequest is the body of POST /api/notifications/subscribe.
type SubscribeRequest struct {
	Subscription struct {
		Endpoint string `json:"endpoint"`
		Keys     Keys   `json:"keys"`
	} `json:"subscription"`
	UserAgent string `json:"userAgent"`
}

// Notification is the body of POST /api/notifications/send. TargetAll
// defaults to true; when false only TargetIDs are notified.
type Notification struct {
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Type      string   `json:"type"`
	TargetAll *bool    `json:"targetAll"`
	TargetIDs []string `json:"targetIds"`
}

// Result counts one fan-out. Simulated is set when no real push service is
// configured.
type Result struct {
	Successful int  `json:"successful"`
	Failed     int  `json:"failed"`
	Total      int  `json:"total"`
	Simulated  bool `json:"simulated"`
}

type payload struct {
	Title string      `json:"title"`
	Body  string      `json:"body"`
	Type  string      `json:"type"`
	Icon  string      `json:"icon"`
	Badge string      `json:"badge"`
	Data  payloadData `json:"data"`
}

type payloadData struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
	URL       string `json:"url"`
}

type Service struct {
	store  Store
	sender Sender
	now    func() time.Time
}

// NewService wires a store and sender. A nil sender logs instead of pushing.
func NewService(store Store, sender Sender) *Service {
	if sender == nil {
		sender = LogSender{}
	}
	return &Service{store: store, sender: sender, now: time.Now}
}

func (s *Service) Subscribe(ctx context.Context, req SubscribeRequest) (Subscription, error) {
	endpoint := strings.TrimSpace(req.Subscription.Endpoint)
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return Subscription{}, fmt.Errorf("%w: endpoint must be an https URL", ErrInvalidSubscription)
	}
	if req.Subscription.Keys.P256dh == "" || req.Subscription.Keys.Auth == "" {
		return Subscription{}, fmt.Errorf("%w: missing keys", ErrInvalidSubscription)
	}
	sub := Subscription{
		ID:        SubscriptionID(endpoint),
		Endpoint:  endpoint,
		Keys:      req.Subscription.Keys,
		UserAgent: req.UserAgent,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Save(ctx, sub); err != nil {
		return Subscription{}, err
	}
	logger.Infow("push subscription saved", "id", sub.ID)
	return sub, nil
}

// Unsubscribe forgets the subscription for endpoint.
func (s *Service) Unsubscribe(ctx context.Context, endpoint string) (bool, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return false, fmt.Errorf("%w: endpoint is required", ErrInvalidSubscription)
	}
	return s.store.Delete(ctx, SubscriptionID(endpoint))
}

// Send pushes n to its targets. Unknown target ids count as failures.
func (s *Service) Send(ctx context.Context, n Notification) (Result, error) {
	n.Title, n.Body = strings.TrimSpace(n.Title), strings.TrimSpace(n.Body)
	if n.Title == "" || n.Body == "" {
		return Result{}, ErrInvalidNotification
	}
	if n.Type == "" {
		n.Type = "general"
	}
	body, err := json.Marshal(payload{
		Title: n.Title,
		Body:  n.Body,
		Type:  n.Type,
		Icon:  iconPath,
		Badge: iconPath,
		Data:  payloadData{Type: n.Type, Timestamp: s.now().UnixMilli(), URL: "/"},
	})
	if err != nil {
		return Result{}, fmt.Errorf("push encode: %w", err)
	}

	var targets []Subscription
	missing := 0
	if n.TargetAll == nil || *n.TargetAll {
		if targets, err = s.store.List(ctx); err != nil {
			return Result{}, err
		}
	} else {
		for _, id := range n.TargetIDs {
			sub, err := s.store.Get(ctx, id)
			if err != nil {
				return Result{}, err
			}
			if sub == nil {
				missing++
				continue
			}
			targets = append(targets, *sub)
		}
	}

	res := s.fanOut(ctx, targets, body)
	res.Failed += missing
	res.Total += missing
	metrics.PushDeliveries.WithLabelValues("failed").Add(float64(missing))
	return res, nil
}

// SendTest pushes a fixed test notification to every subscription.
func (s *Service) SendTest(ctx context.Context) (Result, error) {
	return s.Send(ctx, Notification{Title: "MH Construction", Body: "Test notification", Type: "test"})
}

func (s *Service) fanOut(ctx context.Context, targets []Subscription, body []byte) Result {
	_, simulated := s.sender.(LogSender)
	res := Result{Total: len(targets), Simulated: simulated}
	for _, sub := range targets {
		err := s.sender.Push(ctx, sub, body)
		if err == nil {
			res.Successful++
			metrics.PushDeliveries.WithLabelValues("sent").Inc()
			continue
		}
		res.Failed++
		metrics.PushDeliveries.WithLabelValues("failed").Inc()
		logger.Warnw("push delivery failed", "subscription", sub.ID, "err", err)
		if errors.Is(err, ErrSubscriptionGone) {
			if _, derr := s.store.Delete(ctx, sub.ID); derr != nil {
				logger.Warnw("expired subscription not removed", "subscription", sub.ID, "err", derr)
			}
		}
	}
	return res
}
