package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/LexFlowLab/lexflow/backend/internal/draft"
)

const channelPrefix = "draft-sync:"

var errMissingRedisClient = errors.New("broadcast: redis client is required")

// RedisChannel carries sync messages over Redis pub/sub so sessions hosted in
// different processes still see each other. Missed messages are not replayed,
// matching the browser broadcast primitive.
type RedisChannel struct {
	client *redis.Client
	logger *zap.Logger
}

// RedisChannelConfig describes a Redis-backed channel.
type RedisChannelConfig struct {
	Client *redis.Client
	Logger *zap.Logger
}

// NewRedisChannel validates the configuration and returns a RedisChannel.
func NewRedisChannel(cfg RedisChannelConfig) (*RedisChannel, error) {
	if cfg.Client == nil {
		return nil, errMissingRedisClient
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisChannel{
		client: cfg.Client,
		logger: logger,
	}, nil
}

func channelName(caseID string) string {
	return channelPrefix + caseID
}

// Publish JSON-encodes the message onto the case's pub/sub channel.
func (c *RedisChannel) Publish(ctx context.Context, message draft.SyncMessage) error {
	if message.CaseID == "" || message.Type == "" {
		return nil
	}
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("broadcast: encode message: %w", err)
	}
	if err := c.client.Publish(ctx, channelName(message.CaseID), payload).Err(); err != nil {
		return fmt.Errorf("broadcast: publish: %w", err)
	}
	return nil
}

// Subscribe opens a pub/sub subscription for the case and decodes incoming
// payloads. Undecodable payloads are dropped with a warning.
func (c *RedisChannel) Subscribe(ctx context.Context, caseID draft.CaseID) (<-chan draft.SyncMessage, func()) {
	stream := make(chan draft.SyncMessage, defaultStreamBuffer)
	if caseID == "" {
		close(stream)
		return stream, func() {}
	}

	pubsub := c.client.Subscribe(ctx, channelName(caseID.String()))
	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			if err := pubsub.Close(); err != nil {
				c.logger.Warn("broadcast subscription close failed", zap.Error(err))
			}
		})
	}

	go func() {
		defer close(stream)
		for {
			select {
			case <-ctx.Done():
				cleanup()
				return
			case received, ok := <-pubsub.Channel():
				if !ok {
					return
				}
				var message draft.SyncMessage
				if err := json.Unmarshal([]byte(received.Payload), &message); err != nil {
					c.logger.Warn("broadcast message decode failed",
						zap.String("case_id", caseID.String()),
						zap.Error(err))
					continue
				}
				select {
				case stream <- message:
				default:
				}
			}
		}
	}()

	return stream, cleanup
}
