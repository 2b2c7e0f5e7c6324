package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mhc-gc/mhc-site/backend/go-api/internal/ratelimit"
	"github.com/mhc-gc/mhc-site/backend/go-api/pkg/logger"
	"github.com/mhc-gc/mhc-site/backend/go-api/pkg/metrics"
)

// WindowLimit enforces a fixed-window preset per route and client. A nil
// limiter disables the check.
func WindowLimit(l *ratelimit.Limiter, p ratelimit.Preset) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil {
			c.Next()
			return
		}
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		key := route + "|" + ClientKey(c)
		d, err := l.Check(c.Request.Context(), key, p)
		if err != nil {
			logger.Errorw("rate limit check failed", "preset", p.Name, "key", key, "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Rate limit check failed"})
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(d.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
		if !d.Allowed {
			retry := d.RetryAfterSeconds()
			c.Header("Retry-After", strconv.FormatInt(retry, 10))
			metrics.RateLimitRejected.WithLabelValues(p.Name).Inc()
			logger.Warnw("rate limit exceeded", "preset", p.Name, "key", key)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success":    false,
				"error":      p.Message,
				"retryAfter": retry,
			})
			return
		}
		metrics.RateLimitAllowed.WithLabelValues(p.Name).Inc()
		c.Next()
	}
}
