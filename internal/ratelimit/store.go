// Package ratelimit implements fixed-window request counting behind a
// pluggable counter store.
package ratelimit

import (
	"context"
	"time"
)

// Counter is the state of one key's current window after an increment.
type Counter struct {
	Count       int64
	WindowStart time.Time
}

// CounterStore atomically increments the counter for key, starting a new
// window of the given length when none is open or the previous one ended.
type CounterStore interface {
	Increment(ctx context.Context, key string, window time.Duration) (Counter, error)
}
