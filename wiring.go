package main

import (
	"context"
	"fmt"
	"time"

	"github.com/mhc-gc/mhc-site/backend/go-api/internal/config"
	"github.com/mhc-gc/mhc-site/backend/go-api/internal/database"
	"github.com/mhc-gc/mhc-site/backend/go-api/internal/notify"
	"github.com/mhc-gc/mhc-site/backend/go-api/internal/push"
	"github.com/mhc-gc/mhc-site/backend/go-api/internal/ratelimit"
	"github.com/mhc-gc/mhc-site/backend/go-api/internal/store"
	"github.com/mhc-gc/mhc-site/backend/go-api/internal/tokens"
	"github.com/mhc-gc/mhc-site/backend/go-api/internal/users"
	"github.com/mhc-gc/mhc-site/backend/go-api/pkg/logger"
	"github.com/redis/go-redis/v9"
)

var storeTables = []string{"consultations", "job_applications", "contact_submissions", "users"}

func openGateway(ctx context.Context, cfg *config.Config) (store.Gateway, func(), error) {
	switch cfg.Store.Driver {
	case "postgres":
		if cfg.Postgres.Migrate {
			applied, err := database.Migrate(cfg.Postgres.URL)
			if err != nil {
				return nil, nil, err
			}
			logger.Infof("postgres migrations applied=%v", applied)
		}
		pool, err := database.ConnectPostgres(ctx, cfg.Postgres.URL, database.PostgresOptions{MaxConns: cfg.Postgres.MaxConns})
		if err != nil {
			return nil, nil, err
		}
		logger.Infof("store: postgres")
		return store.NewPostgres(pool), pool.Close, nil

	case "mongo":
		client, err := database.ConnectMongo(ctx, cfg.MongoDB.URI, database.MongoOptions{Timeout: cfg.MongoDB.Timeout})
		if err != nil {
			return nil, nil, err
		}
		gw := store.NewMongo(client.Database(cfg.MongoDB.Database))
		if err := gw.EnsureIndexes(ctx, storeTables...); err != nil {
			logger.Warnf("mongo indexes: %v", err)
		}
		logger.Infof("store: mongo database=%s", cfg.MongoDB.Database)
		return gw, func() { _ = client.Disconnect(context.Background()) }, nil
	}
	logger.Warn("store: in-memory, submissions are lost on restart")
	return store.NewMemory(), func() {}, nil
}

// openNotifier prefers the queue, then direct SMTP, then the log. With both
// configured, SMTP covers for the queue while the broker is down.
func openNotifier(cfg *config.Config) (notify.Notifier, func()) {
	if cfg.Queue.URL != "" {
		q, err := notify.DialQueue(cfg.Queue.URL, cfg.Queue.Name)
		if err == nil {
			logger.Infof("notifier: queue %s", cfg.Queue.Name)
			if cfg.Mail.Host != "" {
				return notify.Fallback{Primary: q, Secondary: notify.NewSMTP(smtpConfig(cfg.Mail))}, q.Close
			}
			return q, q.Close
		}
		logger.Warnf("queue unavailable, falling back: %v", err)
	}
	if cfg.Mail.Host != "" {
		logger.Infof("notifier: smtp %s:%d", cfg.Mail.Host, cfg.Mail.Port)
		return notify.NewSMTP(smtpConfig(cfg.Mail)), func() {}
	}
	logger.Warn("notifier: no SMTP_HOST or AMQP_URL, emails are only logged")
	return notify.LogNotifier{}, func() {}
}

func smtpConfig(m config.MailConfig) notify.SMTPConfig {
	return notify.SMTPConfig{Host: m.Host, Port: m.Port, Username: m.Username, Password: m.Password, From: m.From}
}

// openRedis returns nil when REDIS_HOST is unset.
func openRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Host == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr(), err)
	}
	logger.Infof("redis connected: %s", cfg.Addr())
	return client, nil
}

func openRateStore(ctx context.Context, cfg *config.Config, client *redis.Client) ratelimit.CounterStore {
	if cfg.RateLimit.UseRedis && client != nil {
		logger.Infof("rate limit: redis")
		return ratelimit.NewRedisStore(client, "mhc:rl:")
	}
	ms := ratelimit.NewMemoryStore(nil)
	go ms.Run(ctx, time.Minute)
	logger.Infof("rate limit: in-memory")
	return ms
}

func openRevocations(ctx context.Context, client *redis.Client) tokens.Revocations {
	if client != nil {
		return tokens.NewRedisRevocations(client, "mhc:revoked:")
	}
	mr := tokens.NewMemoryRevocations(nil)
	go mr.Run(ctx, time.Minute)
	return mr
}

func openPushStore(client *redis.Client) push.Store {
	if client != nil {
		logger.Infof("push subscriptions: redis")
		return push.NewRedisStore(client, "mhc:push:subscriptions")
	}
	logger.Infof("push subscriptions: in-memory")
	return push.NewMemoryStore()
}

// buildDirectory checks ADMIN_ACCOUNTS first, then the users table.
func buildDirectory(cfg *config.Config, gw store.Gateway) (users.Directory, error) {
	accounts, err := users.ParseAccounts(cfg.Admin.Accounts)
	if err != nil {
		return nil, fmt.Errorf("ADMIN_ACCOUNTS: %w", err)
	}
	if len(accounts) == 0 && len(cfg.Admin.Emails) > 0 {
		logger.Warn("ADMIN_EMAILS set but ADMIN_ACCOUNTS empty; admins must exist in the users table")
	}
	return users.Chain{users.NewStaticDirectory(accounts), users.NewGatewayDirectory(gw)}, nil
}
