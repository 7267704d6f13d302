// Package event publishes settlement and refund events to interested
// collaborators over redis pub/sub. Delivery is fire-and-forget: the core
// never blocks on a subscriber and never retries on its behalf.
package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"quickbet-platform/internal/config"
)

// Event kinds published outward.
const (
	KindSessionSettled  = "session_settled"
	KindSessionRefunded = "session_refunded"
)

// Event is the payload published per settled or refunded round.
type Event struct {
	Kind       string    `json:"kind"`
	Game       string    `json:"game"`
	TableNo    int       `json:"table_no"`
	SessionID  int64     `json:"session_id"`
	RoundCode  string    `json:"round_code"`
	ResultCode string    `json:"result_code,omitempty"`
	Wagers     int       `json:"wagers"`
	At         time.Time `json:"at"`
}

// Publisher fans settlement events out to collaborators.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// RedisPublisher publishes events on a redis channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher connects to redis and returns a publisher.
func NewRedisPublisher(ctx context.Context, cfg *config.RedisConfig) (*RedisPublisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisPublisher{client: client, channel: cfg.Channel}, nil
}

// Publish sends the event without blocking the caller. Failures are logged
// and dropped.
func (p *RedisPublisher) Publish(ctx context.Context, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("kind", ev.Kind).Msg("Failed to marshal event")
		return
	}

	go func() {
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := p.client.Publish(pubCtx, p.channel, payload).Err(); err != nil {
			log.Warn().Err(err).Str("kind", ev.Kind).Int64("session_id", ev.SessionID).
				Msg("Failed to publish event")
		}
	}()
}

// Close closes the underlying redis client.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

// NopPublisher drops every event. Used when redis is not configured.
type NopPublisher struct{}

// Publish does nothing.
func (NopPublisher) Publish(context.Context, Event) {}
