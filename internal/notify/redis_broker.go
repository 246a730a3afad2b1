package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisBroker publishes events over Redis pub/sub so that every API instance
// can reach sockets connected to any other instance.
type RedisBroker struct {
	client *redis.Client
	buffer int
	logger *zap.Logger
}

// NewRedisBroker wraps an existing client. The client is owned by the caller.
func NewRedisBroker(client *redis.Client, buffer int, logger *zap.Logger) *RedisBroker {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisBroker{client: client, buffer: buffer, logger: logger}
}

// Publish sends the event to the user channel.
func (b *RedisBroker) Publish(ctx context.Context, userID string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, Channel(userID), payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", Channel(userID), err)
	}
	return nil
}

// Subscribe attaches to the user channel. The subscription ends when ctx is
// done or Close is called.
func (b *RedisBroker) Subscribe(ctx context.Context, userID string) (Subscription, error) {
	channel := Channel(userID)
	pubsub := b.client.Subscribe(ctx, channel)
	// Receive blocks until Redis confirms the subscription.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", channel, err)
	}

	sub := &redisSubscription{pubsub: pubsub, events: make(chan Event, b.buffer), done: make(chan struct{})}
	go sub.pump(ctx, b.logger.With(zap.String("channel", channel)))
	return sub, nil
}

// Close is a no-op; the shared client is closed by its owner.
func (b *RedisBroker) Close() error { return nil }

type redisSubscription struct {
	pubsub *redis.PubSub
	events chan Event
	done   chan struct{}
	once   sync.Once
}

func (s *redisSubscription) pump(ctx context.Context, logger *zap.Logger) {
	defer close(s.events)
	messages := s.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			_ = s.Close()
			return
		case <-s.done:
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				logger.Warn("discarding malformed event", zap.Error(err))
				continue
			}
			select {
			case s.events <- event:
			default:
				logger.Warn("subscriber buffer full, event dropped", zap.String("event", string(event.Type)))
			}
		}
	}
}

func (s *redisSubscription) Events() <-chan Event { return s.events }

func (s *redisSubscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.pubsub.Close()
	})
	return err
}
