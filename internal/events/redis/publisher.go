// Package redis publishes usage events to a Redis stream.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/davidbz/ember/internal/domain"
	"github.com/davidbz/ember/internal/observability"
)

const (
	defaultMaxLen  = 10000
	publishTimeout = 2 * time.Second
	pingTimeout    = 5 * time.Second
)

// StreamAdder is the subset of the Redis client used for publishing.
type StreamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// StreamPublisher implements domain.EventPublisher by appending events to a capped Redis stream.
// Events that cannot be written are handed to the fallback publisher, if any.
type StreamPublisher struct {
	client   StreamAdder
	stream   string
	maxLen   int64
	fallback domain.EventPublisher
}

// Compile-time check that StreamPublisher satisfies the domain.EventPublisher interface.
var _ domain.EventPublisher = (*StreamPublisher)(nil)

// NewStreamPublisher creates a publisher writing to stream. fallback may be nil.
func NewStreamPublisher(
	client StreamAdder,
	stream string,
	maxLen int64,
	fallback domain.EventPublisher,
) *StreamPublisher {
	if maxLen <= 0 {
		maxLen = defaultMaxLen
	}

	return &StreamPublisher{
		client:   client,
		stream:   stream,
		maxLen:   maxLen,
		fallback: fallback,
	}
}

// NewClient connects to the Redis server at url and verifies the connection.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// Publish appends the event as one stream entry with type, request_id and JSON data fields.
func (p *StreamPublisher) Publish(ctx context.Context, eventType string, data map[string]interface{}) {
	logger := observability.FromContext(ctx)

	payload, err := json.Marshal(data)
	if err != nil {
		logger.Warn("failed to encode event", observability.String("event", eventType), observability.Error(err))
		p.fallbackPublish(ctx, eventType, data)
		return
	}

	// The publish outlives a cancelled request context.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	id, err := p.client.XAdd(writeCtx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"type":       eventType,
			"request_id": observability.GetRequestID(ctx),
			"data":       string(payload),
		},
	}).Result()
	if err != nil {
		logger.Warn("failed to publish event to redis",
			observability.String("event", eventType),
			observability.String("stream", p.stream),
			observability.Error(err))
		p.fallbackPublish(ctx, eventType, data)
		return
	}

	logger.Debug("event published to redis",
		observability.String("event", eventType),
		observability.String("stream", p.stream),
		observability.String("entry_id", id))
}

func (p *StreamPublisher) fallbackPublish(ctx context.Context, eventType string, data map[string]interface{}) {
	if p.fallback != nil {
		p.fallback.Publish(ctx, eventType, data)
	}
}
