package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mhc-gc/mhc-site/backend/go-api/pkg/metrics"
	"golang.org/x/time/rate"
)

type throttleEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Throttle is a global per-client token bucket in front of every route. It
// smooths bursts; the named presets in WindowLimit enforce the real budgets.
type Throttle struct {
	rps   float64
	burst int
	now   func() time.Time

	mu      sync.Mutex
	entries map[string]*throttleEntry
}

func NewThrottle(rps float64, burst int) *Throttle {
	return &Throttle{rps: rps, burst: burst, now: time.Now, entries: make(map[string]*throttleEntry)}
}

func (t *Throttle) limiter(key string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[key]
	if !ok {
		e = &throttleEntry{limiter: rate.NewLimiter(rate.Limit(t.rps), t.burst)}
		t.entries[key] = e
	}
	e.lastSeen = t.now()
	return e.limiter
}

// Sweep forgets clients not seen for idle and returns how many were removed.
func (t *Throttle) Sweep(idle time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := t.now().Add(-idle)
	removed := 0
	for k, e := range t.entries {
		if e.lastSeen.Before(cutoff) {
			delete(t.entries, k)
			removed++
		}
	}
	return removed
}

// Len reports the number of tracked clients.
func (t *Throttle) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Run sweeps every interval until ctx is done, dropping clients idle for
// longer than the interval.
func (t *Throttle) Run(ctx context.Context, every time.Duration) {
	tick := time.NewTicker(every)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			t.Sweep(every)
		}
	}
}

// Handler keys by client address.
func (t *Throttle) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !t.limiter(ClientKey(c)).Allow() {
			c.Header("Retry-After", "1")
			metrics.RateLimitRejected.WithLabelValues("throttle").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"success": false, "error": "Rate limit exceeded"})
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("throttle").Inc()
		c.Next()
	}
}

// ClientKey identifies the caller by gin's ClientIP. Forwarding headers only
// count when the engine's trusted proxies or TrustedPlatform allow them.
func ClientKey(c *gin.Context) string {
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}
