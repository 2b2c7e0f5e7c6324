package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mhc-gc/mhc-site/backend/go-api/pkg/logger"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Postgres  PostgresConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	Admin     AdminConfig
	Mail      MailConfig
	Queue     QueueConfig
	MinIO     MinIOConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	Environment     string
	AllowedOrigins  []string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// TrustedProxies are the CIDRs allowed to set X-Forwarded-For. Empty trusts none.
	TrustedProxies []string
	// BehindCloudflare reads the client address from CF-Connecting-IP.
	BehindCloudflare bool
}

// StoreConfig picks the persistence gateway: memory, postgres or mongo.
type StoreConfig struct {
	Driver    string
	ListLimit int
}

type PostgresConfig struct {
	URL      string
	MaxConns int32
	Migrate  bool
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func (r RedisConfig) Addr() string { return r.Host + ":" + r.Port }

type JWTConfig struct {
	Secret          string
	Issuer          string
	Audience        string
	AccessTokenTTL  time.Duration
	AdminTokenTTL   time.Duration
	RefreshTokenTTL time.Duration
	// Revocation enables logout. Off keeps tokens valid until expiry.
	Revocation bool
}

type RateLimitConfig struct {
	Enabled  bool
	UseRedis bool
	// RPS and Burst drive the global per-client throttle.
	RPS   float64
	Burst int
}

// AdminConfig lists who may use the admin endpoints. Accounts are
// "email|name|bcrypt-hash" entries.
type AdminConfig struct {
	Emails   []string
	Accounts []string
}

type MailConfig struct {
	Host            string
	Port            int
	Username        string
	Password        string
	From            string
	OfficeRecipient string
}

type QueueConfig struct {
	URL  string
	Name string
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// LoadConfig loads configuration from environment variables and an optional .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_ENVIRONMENT", "development")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("SHUTDOWN_TIMEOUT", 10)
	v.SetDefault("STORE_DRIVER", "memory")
	v.SetDefault("STORE_LIST_LIMIT", 100)
	v.SetDefault("POSTGRES_MAX_CONNS", 10)
	v.SetDefault("MONGODB_DATABASE", "mhc")
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("JWT_ISSUER", "mhc-api")
	v.SetDefault("JWT_AUDIENCE", "mhc-site")
	v.SetDefault("JWT_ACCESS_TOKEN_TTL", 15)
	v.SetDefault("JWT_ADMIN_TOKEN_TTL", 60)
	v.SetDefault("JWT_REFRESH_TOKEN_TTL", 10080)
	v.SetDefault("RATE_LIMIT_ENABLED", true)
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_FROM", "MH Construction <noreply@mhc-gc.com>")
	v.SetDefault("OFFICE_EMAIL", "office@mhc-gc.com")
	v.SetDefault("QUEUE_NAME", "mhc.email")
	v.SetDefault("MINIO_BUCKET", "mhc-resumes")

	cfg := &Config{
		Server: ServerConfig{
			Port:             v.GetString("SERVER_PORT"),
			Host:             v.GetString("SERVER_HOST"),
			Environment:      v.GetString("SERVER_ENVIRONMENT"),
			AllowedOrigins:   splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
			TrustedProxies:   splitList(v.GetString("TRUSTED_PROXIES")),
			BehindCloudflare: v.GetBool("BEHIND_CLOUDFLARE"),
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     30 * time.Second,
			ShutdownTimeout:  time.Duration(v.GetInt("SHUTDOWN_TIMEOUT")) * time.Second,
		},
		Store: StoreConfig{
			Driver:    strings.ToLower(v.GetString("STORE_DRIVER")),
			ListLimit: v.GetInt("STORE_LIST_LIMIT"),
		},
		Postgres: PostgresConfig{
			URL:      v.GetString("DATABASE_URL"),
			MaxConns: v.GetInt32("POSTGRES_MAX_CONNS"),
			Migrate:  v.GetBool("POSTGRES_MIGRATE"),
		},
		MongoDB: MongoDBConfig{
			URI:      v.GetString("MONGODB_URI"),
			Database: v.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(v.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:          v.GetString("JWT_SECRET"),
			Issuer:          v.GetString("JWT_ISSUER"),
			Audience:        v.GetString("JWT_AUDIENCE"),
			AccessTokenTTL:  time.Duration(v.GetInt("JWT_ACCESS_TOKEN_TTL")) * time.Minute,
			AdminTokenTTL:   time.Duration(v.GetInt("JWT_ADMIN_TOKEN_TTL")) * time.Minute,
			RefreshTokenTTL: time.Duration(v.GetInt("JWT_REFRESH_TOKEN_TTL")) * time.Minute,
			Revocation:      v.GetBool("JWT_REVOCATION_ENABLED"),
		},
		RateLimit: RateLimitConfig{
			Enabled:  v.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis: v.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:      v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:    v.GetInt("RATE_LIMIT_BURST"),
		},
		Admin: AdminConfig{
			Emails:   splitList(strings.ToLower(v.GetString("ADMIN_EMAILS"))),
			Accounts: splitList(v.GetString("ADMIN_ACCOUNTS")),
		},
		Mail: MailConfig{
			Host:            v.GetString("SMTP_HOST"),
			Port:            v.GetInt("SMTP_PORT"),
			Username:        v.GetString("SMTP_USERNAME"),
			Password:        v.GetString("SMTP_PASSWORD"),
			From:            v.GetString("SMTP_FROM"),
			OfficeRecipient: v.GetString("OFFICE_EMAIL"),
		},
		Queue: QueueConfig{
			URL:  v.GetString("AMQP_URL"),
			Name: v.GetString("QUEUE_NAME"),
		},
		MinIO: MinIOConfig{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: v.GetString("MINIO_SECRET_KEY"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
			Bucket:    v.GetString("MINIO_BUCKET"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.JWT.Secret == "" {
		logger.Warn("JWT_SECRET is not set; auth endpoints are disabled")
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case "memory":
	case "postgres":
		if c.Postgres.URL == "" {
			return fmt.Errorf("STORE_DRIVER=postgres requires DATABASE_URL")
		}
	case "mongo":
		if c.MongoDB.URI == "" {
			return fmt.Errorf("STORE_DRIVER=mongo requires MONGODB_URI")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q (want memory, postgres or mongo)", c.Store.Driver)
	}
	if c.JWT.Secret != "" && len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if c.RateLimit.UseRedis && c.Redis.Host == "" {
		return fmt.Errorf("RATE_LIMIT_USE_REDIS requires REDIS_HOST")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
