package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mhc-gc/mhc-site/backend/go-api/internal/forms"
	"github.com/mhc-gc/mhc-site/backend/go-api/internal/models"
	"github.com/mhc-gc/mhc-site/backend/go-api/internal/push"
	"github.com/mhc-gc/mhc-site/backend/go-api/internal/ratelimit"
	"github.com/mhc-gc/mhc-site/backend/go-api/internal/storage"
	"github.com/mhc-gc/mhc-site/backend/go-api/internal/tokens"
	"github.com/mhc-gc/mhc-site/backend/go-api/internal/users"
	"github.com/mhc-gc/mhc-site/backend/go-api/pkg/logger"
	"github.com/mhc-gc/mhc-site/backend/go-api/pkg/middleware"
)

// Deps wires the router. Tokens and Users are optional together: without
// them the auth endpoints are not mounted and admin routes answer 503.
type Deps struct {
	Forms          forms.Deps
	Tokens         *tokens.Service
	Users          *users.Service
	AdminTokenTTL  time.Duration
	Limiter        *ratelimit.Limiter
	Throttle       *middleware.Throttle
	Uploads        storage.ObjectStore
	Push           *push.Service
	AllowedOrigins []string
	ListLimit      int
	ReadyChecks    map[string]Check
	Started        time.Time
	// Logging adds gin's access log.
	Logging bool
	// TrustedProxies feeds gin's SetTrustedProxies; nil trusts no proxy.
	TrustedProxies []string
	// TrustedPlatform names the header gin reads the client IP from,
	// e.g. gin.PlatformCloudflare.
	TrustedPlatform string
}

// NewRouter builds the engine with every route mounted.
func NewRouter(d Deps) *gin.Engine {
	if d.Started.IsZero() {
		d.Started = time.Now()
	}
	r := gin.New()
	if err := r.SetTrustedProxies(d.TrustedProxies); err != nil {
		logger.Warnf("ignoring TRUSTED_PROXIES: %v", err)
		_ = r.SetTrustedProxies(nil)
	}
	r.TrustedPlatform = d.TrustedPlatform
	if d.Logging {
		r.Use(gin.Logger())
	}
	r.Use(gin.CustomRecovery(recovered), middleware.SecurityHeaders(), middleware.CORS(d.AllowedOrigins))
	if d.Throttle != nil {
		r.Use(d.Throttle.Handler())
	}

	RegisterHealth(r, d.ReadyChecks, d.Started)
	RegisterSwagger(r)

	limit := func(p ratelimit.Preset) gin.HandlerFunc { return middleware.WindowLimit(d.Limiter, p) }
	admin := adminChain(d)

	api := r.Group("/api")
	if d.Tokens != nil && d.Users != nil {
		auth := NewAuthHandler(d.Tokens, d.Users, d.AdminTokenTTL)
		a := api.Group("/auth")
		a.POST("/login", limit(ratelimit.Auth), auth.Login)
		a.POST("/admin-login", limit(ratelimit.AdminLogin), auth.AdminLogin)
		a.POST("/refresh", limit(ratelimit.API), auth.Refresh)
		a.GET("/me", middleware.AuthMiddleware(d.Tokens), auth.Me)
		if d.Tokens.CanRevoke() {
			a.POST("/logout", limit(ratelimit.API), middleware.AuthMiddleware(d.Tokens), auth.Logout)
		}
	}

	registerForm(api, "/consultations",
		NewFormHandler(forms.New(forms.ConsultationForm(), d.Forms), d.ListLimit), limit(ratelimit.API), admin)
	registerForm(api, "/job-applications",
		NewFormHandler(forms.New(forms.JobApplicationForm(), d.Forms), d.ListLimit), limit(ratelimit.API), admin)
	registerForm(api, "/contact",
		NewFormHandler(forms.New(forms.ContactForm(), d.Forms), d.ListLimit), limit(ratelimit.API), admin)

	nl := NewNewsletterHandler(forms.NewNewsletter(d.Forms.Notifier, d.Forms.Recipients))
	api.POST("/newsletter", limit(ratelimit.Public), nl.Subscribe)
	pc := NewPhoneCallHandler(forms.NewPhoneCall(d.Forms.Notifier, d.Forms.Recipients))
	api.POST("/track-phone-call", limit(ratelimit.API), pc.Track)

	if d.Push == nil {
		d.Push = push.NewService(push.NewMemoryStore(), nil)
	}
	ph := NewPushHandler(d.Push)
	nt := api.Group("/notifications")
	nt.POST("/subscribe", limit(ratelimit.Public), ph.Subscribe)
	nt.POST("/unsubscribe", limit(ratelimit.Public), ph.Unsubscribe)
	nt.POST("/send", append(adminChain(d), limit(ratelimit.API), ph.Send)...)
	nt.GET("/send", append(adminChain(d), ph.SendTest)...)

	up := NewUploadHandler(d.Uploads)
	api.POST("/upload/resume", limit(ratelimit.Expensive), up.UploadResume)
	api.GET("/upload/resume", append(adminChain(d), up.ResumeURL)...)

	return r
}

func adminChain(d Deps) []gin.HandlerFunc {
	if d.Tokens == nil {
		return []gin.HandlerFunc{func(c *gin.Context) {
			fail(c, http.StatusServiceUnavailable, "Admin endpoints are not configured")
		}}
	}
	return []gin.HandlerFunc{
		middleware.AuthMiddleware(d.Tokens),
		middleware.RequireRole(models.RoleAdmin),
	}
}

func recovered(c *gin.Context, err any) {
	logger.Errorw("panic recovered", "path", c.Request.URL.Path, "err", err)
	fail(c, http.StatusInternalServerError, msgInternalError)
}
