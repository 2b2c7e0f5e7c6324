package ratelimit

import (
	"context"
	"math"
	"time"
)

// Preset is a named limit: at most MaxRequests per Window for one key.
type Preset struct {
	Name        string
	MaxRequests int64
	Window      time.Duration
	Message     string
}

var (
	Auth = Preset{
		Name:        "auth",
		MaxRequests: 5,
		Window:      time.Minute,
		Message:     "Too many authentication attempts, please try again in a minute.",
	}
	AdminLogin = Preset{
		Name:        "adminLogin",
		MaxRequests: 3,
		Window:      5 * time.Minute,
		Message:     "Too many admin login attempts, please try again in a few minutes.",
	}
	API = Preset{
		Name:        "api",
		MaxRequests: 60,
		Window:      time.Minute,
		Message:     "API rate limit exceeded, please slow down.",
	}
	Public = Preset{
		Name:        "public",
		MaxRequests: 100,
		Window:      time.Minute,
		Message:     "Rate limit exceeded, please try again shortly.",
	}
	Expensive = Preset{
		Name:        "expensive",
		MaxRequests: 3,
		Window:      5 * time.Minute,
		Message:     "This operation is rate limited. Please try again in a few minutes.",
	}
)

// Decision is the verdict for one checked request.
type Decision struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	// RetryAfter is zero when Allowed, otherwise the remaining window rounded
	// up to whole seconds (at least one).
	RetryAfter time.Duration
	ResetAt    time.Time
}

// RetryAfterSeconds returns RetryAfter in whole seconds.
func (d Decision) RetryAfterSeconds() int64 {
	return int64(d.RetryAfter / time.Second)
}

// Limiter applies presets to keys using a CounterStore.
type Limiter struct {
	store CounterStore
	now   func() time.Time
}

func NewLimiter(store CounterStore, now func() time.Time) *Limiter {
	if now == nil {
		now = time.Now
	}
	return &Limiter{store: store, now: now}
}

// Check counts one request for key under p. Counters are namespaced by preset
// so the same client has independent budgets per preset. Every call consumes
// an attempt, including rejected ones.
func (l *Limiter) Check(ctx context.Context, key string, p Preset) (Decision, error) {
	c, err := l.store.Increment(ctx, p.Name+":"+key, p.Window)
	if err != nil {
		return Decision{}, err
	}
	reset := c.WindowStart.Add(p.Window)
	d := Decision{
		Allowed: c.Count <= p.MaxRequests,
		Limit:   p.MaxRequests,
		ResetAt: reset,
	}
	if rem := p.MaxRequests - c.Count; rem > 0 {
		d.Remaining = rem
	}
	if !d.Allowed {
		secs := math.Ceil(reset.Sub(l.now()).Seconds())
		if secs < 1 {
			secs = 1
		}
		d.RetryAfter = time.Duration(secs) * time.Second
	}
	return d, nil
}
