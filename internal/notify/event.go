// Package notify delivers grading events to per-user real-time channels.
//
// Producers hand events to a Dispatcher, which never blocks them. The
// Dispatcher publishes through a Broker, either the in-process Hub or the
// Redis-backed broker, and socket handlers subscribe to the channel of the
// connected user.
package notify

import (
	"context"
	"time"
)

// EventType names a notification kind.
type EventType string

const (
	EventNewSolution    EventType = "new_solution"
	EventSolutionGraded EventType = "solution_graded"
)

// ChannelPrefix prefixes every per-user channel name.
const ChannelPrefix = "notifications_user_"

// Channel returns the broadcast channel of a user.
func Channel(userID string) string {
	return ChannelPrefix + userID
}

// Event is the message delivered to a socket client.
type Event struct {
	Type       EventType `json:"event"`
	SolutionID string    `json:"solution_id"`
	TaskID     string    `json:"task_id"`
	Task       string    `json:"task"`
	Student    string    `json:"student,omitempty"`
	StudentID  string    `json:"student_id,omitempty"`
	Mark       *int      `json:"mark,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Broker fans events out to the subscribers of a user channel.
type Broker interface {
	Publish(ctx context.Context, userID string, event Event) error
	Subscribe(ctx context.Context, userID string) (Subscription, error)
	Close() error
}

// Subscription is a live attachment to a user channel.
type Subscription interface {
	Events() <-chan Event
	Close() error
}

// Sink mirrors published events to a secondary destination.
type Sink interface {
	Mirror(ctx context.Context, userID string, event Event) error
}
