package database

import (
	"context"
	"fmt"
	"time"

	"github.com/mhc-gc/mhc-site/backend/go-api/pkg/logger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoOptions bounds each connection attempt and how often to retry.
// Zero values mean 10s, 5 attempts and a 1s initial backoff.
type MongoOptions struct {
	Timeout  time.Duration
	Attempts int
	Backoff  time.Duration
}

// ConnectMongo connects and pings, retrying to tolerate startup races.
// Caller should call client.Disconnect(ctx).
func ConnectMongo(ctx context.Context, uri string, opts MongoOptions) (*mongo.Client, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	var client *mongo.Client
	err := retry(ctx, opts.Attempts, opts.Backoff, "MongoDB", func() error {
		c, err := dialMongo(ctx, uri, opts.Timeout)
		client = c
		return err
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

func dialMongo(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// retry runs fn up to attempts times, doubling the wait between tries.
func retry(ctx context.Context, attempts int, backoff time.Duration, what string, fn func() error) error {
	if attempts <= 0 {
		attempts = 5
	}
	if backoff <= 0 {
		backoff = time.Second
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		logger.Warnf("attempt %d/%d: failed to connect to %s: %v", attempt, attempts, what, err)
		if attempt == attempts {
			break
		}
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
	}
	return fmt.Errorf("could not connect to %s after %d attempts: %w", what, attempts, err)
}
