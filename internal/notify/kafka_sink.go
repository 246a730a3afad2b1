package notify

import (
	"context"
)

type eventProducer interface {
	Send(ctx context.Context, key string, message interface{}) error
}

// KafkaSink mirrors events to a Kafka topic keyed by recipient.
type KafkaSink struct {
	producer eventProducer
}

// NewKafkaSink wraps a producer.
func NewKafkaSink(producer eventProducer) *KafkaSink {
	return &KafkaSink{producer: producer}
}

type mirroredEvent struct {
	Recipient string `json:"recipient"`
	Channel   string `json:"channel"`
	Event
}

// Mirror writes the event together with its routing information.
func (s *KafkaSink) Mirror(ctx context.Context, userID string, event Event) error {
	return s.producer.Send(ctx, userID, mirroredEvent{Recipient: userID, Channel: Channel(userID), Event: event})
}
