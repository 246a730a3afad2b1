package notify

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrBrokerClosed is returned when subscribing to a closed broker.
var ErrBrokerClosed = errors.New("notify: broker closed")

const defaultSubscriberBuffer = 16

// Hub is an in-process Broker. A slow subscriber loses events instead of
// blocking the publisher.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]map[*hubSubscription]struct{}
	buffer   int
	closed   bool
	logger   *zap.Logger
}

// NewHub creates an in-process broker.
func NewHub(buffer int, logger *zap.Logger) *Hub {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{channels: make(map[string]map[*hubSubscription]struct{}), buffer: buffer, logger: logger}
}

// Publish delivers the event to every current subscriber of the user channel.
func (h *Hub) Publish(_ context.Context, userID string, event Event) error {
	channel := Channel(userID)

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return ErrBrokerClosed
	}
	for sub := range h.channels[channel] {
		select {
		case sub.events <- event:
		default:
			h.logger.Warn("subscriber buffer full, event dropped",
				zap.String("channel", channel),
				zap.String("event", string(event.Type)),
			)
		}
	}
	return nil
}

// Subscribe joins the user channel until ctx ends or the subscription is closed.
func (h *Hub) Subscribe(ctx context.Context, userID string) (Subscription, error) {
	channel := Channel(userID)
	sub := &hubSubscription{hub: h, channel: channel, events: make(chan Event, h.buffer), done: make(chan struct{})}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrBrokerClosed
	}
	if h.channels[channel] == nil {
		h.channels[channel] = make(map[*hubSubscription]struct{})
	}
	h.channels[channel][sub] = struct{}{}
	h.mu.Unlock()

	if ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				_ = sub.Close()
			case <-sub.done:
			}
		}()
	}

	return sub, nil
}

// Subscribers returns the number of subscribers of a user channel.
func (h *Hub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[Channel(userID)])
}

// Close detaches every subscriber.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	for channel, subs := range h.channels {
		for sub := range subs {
			sub.finish()
		}
		delete(h.channels, channel)
	}
	return nil
}

func (h *Hub) remove(sub *hubSubscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := h.channels[sub.channel]
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.channels, sub.channel)
	}
	sub.finish()
}

type hubSubscription struct {
	hub     *Hub
	channel string
	events  chan Event
	done    chan struct{}
	once    sync.Once
}

func (s *hubSubscription) finish() {
	s.once.Do(func() {
		close(s.events)
		close(s.done)
	})
}

func (s *hubSubscription) Events() <-chan Event { return s.events }

func (s *hubSubscription) Close() error {
	s.hub.remove(s)
	return nil
}
