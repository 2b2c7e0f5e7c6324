package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

// Check reports whether one dependency is usable.
type Check func(ctx context.Context) error

const readyTimeout = 2 * time.Second

// RegisterHealth mounts /health (liveness) and /ready (every check passes).
func RegisterHealth(r *gin.Engine, checks map[string]Check, started time.Time) {
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	names := make([]string, 0, len(checks))
	for n := range checks {
		names = append(names, n)
	}
	sort.Strings(names)

	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
		defer cancel()

		ready := true
		deps := make(map[string]bool, len(names))
		for _, n := range names {
			deps[n] = checks[n](ctx) == nil
			ready = ready && deps[n]
		}
		status, code := "ready", http.StatusOK
		if !ready {
			status, code = "not_ready", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status, "deps": deps, "uptime": time.Since(started).Round(time.Second).String()})
	})
}
