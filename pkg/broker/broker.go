// Package broker wraps the downstream Redis-compatible broker: a
// pub/sub channel broadcast and a time-ordered durable log, both updated
// per published event.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"github.com/freightsignal/sentinel/internal/model"
)

// Config parameterizes the broker connection. URL, when set, takes
// precedence over Addr/Password/DB and is parsed as a redis:// URL.
type Config struct {
	URL      string
	Addr     string
	Password string
	DB       int
	Channel  string
	LogKey   string
}

func (c Config) options() (*redis.Options, error) {
	if c.URL != "" {
		return redis.ParseURL(c.URL)
	}
	return &redis.Options{Addr: c.Addr, Password: c.Password, DB: c.DB}, nil
}

// Broker publishes Events to Redis: one PUBLISH and one ZADD per event,
// same serialized payload for both.
type Broker struct {
	client  *redis.Client
	channel string
	logKey  string
}

// Connect dials Redis, retrying every 5s until ctx is cancelled. It logs
// once on success and does not return until connected or shutdown fires.
func Connect(ctx context.Context, cfg Config, log zerolog.Logger) (*Broker, error) {
	opts, err := cfg.options()
	if err != nil {
		return nil, fmt.Errorf("broker: parse url: %w", err)
	}
	client := redis.NewClient(opts)

	for {
		if err := client.Ping(ctx).Err(); err == nil {
			log.Info().Str("addr", opts.Addr).Msg("connected to broker")
			return &Broker{client: client, channel: cfg.Channel, logKey: cfg.LogKey}, nil
		} else {
			log.Warn().Err(err).Msg("broker connection failed, retrying")
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Second):
		}
	}
}

// Publish serializes e once and broadcasts it on the pub/sub channel,
// then appends it to the durable log scored by detected_at.
func (b *Broker) Publish(ctx context.Context, e model.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("broker: marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("broker: publish: %w", err)
	}
	if err := b.client.ZAdd(ctx, b.logKey, &redis.Z{Score: e.ScoreSeconds(), Member: payload}).Err(); err != nil {
		return fmt.Errorf("broker: zadd: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (b *Broker) Close() error {
	return b.client.Close()
}
