package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mhc-gc/mhc-site/backend/go-api/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestThrottle_AllowsUnderLimit(t *testing.T) {
	before := testutil.ToFloat64(metrics.RateLimitAllowed.WithLabelValues("throttle"))

	r := gin.New()
	r.Use(NewThrottle(10, 2).Handler()) // generous rate
	r.GET("/ok", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	// two quick requests should pass
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/ok", nil))
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest("GET", "/ok", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, http.StatusOK, w2.Code)
	require.Equal(t, before+2, testutil.ToFloat64(metrics.RateLimitAllowed.WithLabelValues("throttle")))
}

func TestThrottle_BlocksWhenExceeded(t *testing.T) {
	before := testutil.ToFloat64(metrics.RateLimitRejected.WithLabelValues("throttle"))

	r := gin.New()
	// very low rate to force rejections
	r.Use(NewThrottle(0.5, 1).Handler())
	r.GET("/limited", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, httptest.NewRequest("GET", "/limited", nil))
	require.Equal(t, http.StatusOK, w1.Code)

	// immediate second request -> should be rate-limited
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest("GET", "/limited", nil))
	require.Equal(t, http.StatusTooManyRequests, w2.Code)
	require.Equal(t, "1", w2.Header().Get("Retry-After"))
	require.Equal(t, before+1, testutil.ToFloat64(metrics.RateLimitRejected.WithLabelValues("throttle")))

	// a different client has its own bucket
	rq3 := httptest.NewRequest("GET", "/limited", nil)
	rq3.RemoteAddr = "198.51.100.7:4000"
	w3 := httptest.NewRecorder()
	r.ServeHTTP(w3, rq3)
	require.Equal(t, http.StatusOK, w3.Code)
}

func TestThrottle_ForwardingHeadersDoNotChangeBucket(t *testing.T) {
	r := gin.New()
	require.NoError(t, r.SetTrustedProxies(nil))
	r.Use(NewThrottle(0.5, 1).Handler())
	r.GET("/limited", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for _, ip := range []string{"203.0.113.1", "203.0.113.2", "203.0.113.3"} {
		req := httptest.NewRequest("GET", "/limited", nil)
		req.RemoteAddr = "192.0.2.44:1000"
		req.Header.Set("CF-Connecting-IP", ip)
		req.Header.Set("X-Forwarded-For", ip)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	require.Equal(t, []int{200, 429, 429}, codes)
}

func TestThrottle_Sweep(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	th := NewThrottle(1, 1)
	th.now = func() time.Time { return now }

	th.limiter("192.0.2.1")
	now = now.Add(30 * time.Second)
	th.limiter("192.0.2.2")
	require.Equal(t, 2, th.Len())

	now = now.Add(45 * time.Second)
	require.Equal(t, 1, th.Sweep(time.Minute))
	require.Equal(t, 1, th.Len())

	// a returning client refreshes its last-seen time
	th.limiter("192.0.2.2")
	now = now.Add(50 * time.Second)
	require.Equal(t, 0, th.Sweep(time.Minute))
	require.Equal(t, 1, th.Len())
}

func TestThrottle_RunStopsOnCancel(t *testing.T) {
	th := NewThrottle(1, 1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		th.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestClientKey(t *testing.T) {
	r := gin.New()
	require.NoError(t, r.SetTrustedProxies(nil))
	var got string
	r.GET("/", func(c *gin.Context) { got = ClientKey(c) })

	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.0.2.10:5555"
	r.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "192.0.2.10", got)

	// untrusted headers are ignored
	req = httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.0.2.10:5555"
	req.Header.Set("CF-Connecting-IP", "203.0.113.5")
	req.Header.Set("X-Forwarded-For", "203.0.113.6")
	r.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "192.0.2.10", got)

	r.TrustedPlatform = gin.PlatformCloudflare
	r.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "203.0.113.5", got)
}

func TestClientKey_TrustedProxy(t *testing.T) {
	r := gin.New()
	require.NoError(t, r.SetTrustedProxies([]string{"10.0.0.0/8"}))
	var got string
	r.GET("/", func(c *gin.Context) { got = ClientKey(c) })

	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.1.2.3:5555"
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	r.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "203.0.113.9", got)

	req.RemoteAddr = "192.0.2.10:5555"
	r.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "192.0.2.10", got)
}
