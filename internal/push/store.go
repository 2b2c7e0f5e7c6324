// Package push keeps browser push subscriptions and fans notifications out
// to them through a pluggable sender.
package push

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Keys are the client's encryption keys from PushSubscription.toJSON().
type Keys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// Subscription is one browser registration. ID is derived from the endpoint,
// so re-subscribing the same browser replaces its entry.
type Subscription struct {
	ID        string    `json:"id"`
	Endpoint  string    `json:"endpoint"`
	Keys      Keys      `json:"keys"`
	UserAgent string    `json:"userAgent,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// SubscriptionID returns the stable id for an endpoint.
func SubscriptionID(endpoint string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(endpoint)).String()
}

// Store holds subscriptions. Get returns (nil, nil) for unknown ids.
type Store interface {
	Save(ctx context.Context, sub Subscription) error
	Delete(ctx context.Context, id string) (bool, error)
	Get(ctx context.Context, id string) (*Subscription, error)
	List(ctx context.Context) ([]Subscription, error)
}
