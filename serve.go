package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mhc-gc/mhc-site/backend/go-api/handlers"
	"github.com/mhc-gc/mhc-site/backend/go-api/internal/forms"
	"github.com/mhc-gc/mhc-site/backend/go-api/internal/push"
	"github.com/mhc-gc/mhc-site/backend/go-api/internal/ratelimit"
	"github.com/mhc-gc/mhc-site/backend/go-api/internal/storage"
	"github.com/mhc-gc/mhc-site/backend/go-api/internal/tokens"
	"github.com/mhc-gc/mhc-site/backend/go-api/internal/users"
	"github.com/mhc-gc/mhc-site/backend/go-api/pkg/logger"
	"github.com/mhc-gc/mhc-site/backend/go-api/pkg/metrics"
	"github.com/mhc-gc/mhc-site/backend/go-api/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var startTime = time.Now()

func runServe(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	var closers []func()
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()
	checks := map[string]handlers.Check{}

	gw, closeGW, err := openGateway(ctx, cfg)
	if err != nil {
		return err
	}
	closers = append(closers, closeGW)
	checks["store"] = gw.Ping

	notifier, closeNotifier := openNotifier(cfg)
	closers = append(closers, closeNotifier)

	rdb, err := openRedis(ctx, cfg.Redis)
	if err != nil {
		if cfg.RateLimit.UseRedis {
			return err
		}
		logger.Warnf("redis unavailable, using in-memory state: %v", err)
	}
	if rdb != nil {
		closers = append(closers, func() { _ = rdb.Close() })
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	var limiter *ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		limiter = ratelimit.NewLimiter(openRateStore(ctx, cfg, rdb), nil)
	} else {
		logger.Warn("rate limiting disabled")
	}

	deps := handlers.Deps{
		Forms: forms.Deps{
			Gateway:    gw,
			Notifier:   notifier,
			Recipients: []string{cfg.Mail.OfficeRecipient},
		},
		AdminTokenTTL:  cfg.JWT.AdminTokenTTL,
		Limiter:        limiter,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Push:           push.NewService(openPushStore(rdb), nil),
		ListLimit:      cfg.Store.ListLimit,
		ReadyChecks:    checks,
		Started:        startTime,
		Logging:        true,
		TrustedProxies: cfg.Server.TrustedProxies,
	}
	if cfg.Server.BehindCloudflare {
		deps.TrustedPlatform = gin.PlatformCloudflare
	}
	if cfg.RateLimit.Enabled && cfg.RateLimit.RPS > 0 {
		deps.Throttle = middleware.NewThrottle(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		go deps.Throttle.Run(ctx, 10*time.Minute)
	}

	if cfg.JWT.Secret != "" {
		tcfg := tokens.Config{
			Secret:     cfg.JWT.Secret,
			Issuer:     cfg.JWT.Issuer,
			Audience:   cfg.JWT.Audience,
			AccessTTL:  cfg.JWT.AccessTokenTTL,
			RefreshTTL: cfg.JWT.RefreshTokenTTL,
		}
		if cfg.JWT.Revocation {
			tcfg.Revocations = openRevocations(ctx, rdb)
		}
		ts, err := tokens.NewService(tcfg)
		if err != nil {
			return fmt.Errorf("token service: %w", err)
		}
		dir, err := buildDirectory(cfg, gw)
		if err != nil {
			return err
		}
		deps.Tokens = ts
		deps.Users = users.NewService(dir, cfg.Admin.Emails)
	} else {
		logger.Warn("auth handlers not registered because JWT_SECRET is unset")
	}

	if cfg.MinIO.Endpoint != "" {
		ms, err := storage.NewMinIOStorage(ctx, cfg.MinIO)
		if err != nil {
			logger.Warnf("resume uploads disabled: %v", err)
		} else {
			deps.Uploads = ms
			checks["objects"] = ms.Ping
		}
	}

	r := handlers.NewRouter(deps)
	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}
	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
