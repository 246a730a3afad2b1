package notify

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/courses-api/internal/models"
)

// Delivery outcomes reported to the metrics recorder.
const (
	OutcomePublished = "published"
	OutcomeDropped   = "dropped"
	OutcomeFailed    = "failed"
)

// MetricsRecorder observes dispatch outcomes.
type MetricsRecorder interface {
	ObserveNotification(event, outcome string)
}

// DispatcherConfig tunes the worker pool.
type DispatcherConfig struct {
	Workers        int
	BufferSize     int
	PublishTimeout time.Duration
}

type envelope struct {
	userID string
	event  Event
}

// Dispatcher publishes events asynchronously. Events are sharded by recipient
// so one user's events are published in dispatch order; a full shard drops
// the event rather than blocking the caller.
type Dispatcher struct {
	broker  Broker
	sinks   []Sink
	cfg     DispatcherConfig
	logger  *zap.Logger
	metrics MetricsRecorder
	now     func() time.Time

	mu      sync.RWMutex
	shards  []chan envelope
	running bool
	wg      sync.WaitGroup
}

// Option customises a Dispatcher.
type Option func(*Dispatcher)

// WithSink adds a mirror destination.
func WithSink(sink Sink) Option {
	return func(d *Dispatcher) {
		if sink != nil {
			d.sinks = append(d.sinks, sink)
		}
	}
}

// WithMetrics attaches an outcome recorder.
func WithMetrics(metrics MetricsRecorder) Option {
	return func(d *Dispatcher) { d.metrics = metrics }
}

// NewDispatcher builds a dispatcher over broker. Call Start before dispatching.
func NewDispatcher(broker Broker, cfg DispatcherConfig, logger *zap.Logger, opts ...Option) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 256
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dispatcher{broker: broker, cfg: cfg, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start launches the shard workers.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return
	}
	d.shards = make([]chan envelope, d.cfg.Workers)
	for i := range d.shards {
		d.shards[i] = make(chan envelope, d.cfg.BufferSize)
		d.wg.Add(1)
		go d.worker(ctx, d.shards[i])
	}
	d.running = true
}

// Stop refuses new events and waits for queued ones to be published.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	for _, shard := range d.shards {
		close(shard)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

// Dispatch queues event for userID and reports whether it was accepted.
func (d *Dispatcher) Dispatch(userID string, event Event) bool {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = d.now().UTC()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.running {
		d.drop(userID, event, "dispatcher not running")
		return false
	}
	select {
	case d.shards[shardFor(userID, len(d.shards))] <- envelope{userID: userID, event: event}:
		return true
	default:
		d.drop(userID, event, "dispatch buffer full")
		return false
	}
}

// SolutionCreated tells the course teacher about a new submission.
func (d *Dispatcher) SolutionCreated(solution *models.Solution, task *models.TaskContext, student *models.User) bool {
	return d.Dispatch(task.CourseOwnerID, Event{
		Type:       EventNewSolution,
		SolutionID: solution.ID,
		TaskID:     task.ID,
		Task:       task.Title,
		Student:    student.FullName,
		StudentID:  student.ID,
	})
}

// SolutionGraded tells the student about a mark. Nothing is sent when the
// mark did not change.
func (d *Dispatcher) SolutionGraded(solution *models.SolutionDetail, mark int, previous *int) bool {
	if !MarkChanged(previous, mark) {
		return false
	}
	value := mark
	return d.Dispatch(solution.SubmittedBy, Event{
		Type:       EventSolutionGraded,
		SolutionID: solution.ID,
		TaskID:     solution.TaskID,
		Task:       solution.TaskTitle,
		Mark:       &value,
	})
}

// MarkChanged reports whether storing mark over previous is a grading event.
func MarkChanged(previous *int, mark int) bool {
	return previous == nil || *previous != mark
}

func (d *Dispatcher) worker(ctx context.Context, shard <-chan envelope) {
	defer d.wg.Done()
	for env := range shard {
		d.publish(ctx, env)
	}
}

func (d *Dispatcher) publish(ctx context.Context, env envelope) {
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.cfg.PublishTimeout)
	defer cancel()

	logger := d.logger.With(
		zap.String("channel", Channel(env.userID)),
		zap.String("event", string(env.event.Type)),
		zap.String("solution_id", env.event.SolutionID),
	)

	if err := d.broker.Publish(pubCtx, env.userID, env.event); err != nil {
		logger.Error("publish notification failed", zap.Error(err))
		d.observe(env.event, OutcomeFailed)
	} else {
		logger.Debug("notification published")
		d.observe(env.event, OutcomePublished)
	}

	for _, sink := range d.sinks {
		if err := sink.Mirror(pubCtx, env.userID, env.event); err != nil {
			logger.Warn("mirror notification failed", zap.Error(err))
		}
	}
}

func (d *Dispatcher) drop(userID string, event Event, reason string) {
	d.logger.Warn("notification dropped",
		zap.String("channel", Channel(userID)),
		zap.String("event", string(event.Type)),
		zap.String("reason", reason),
	)
	d.observe(event, OutcomeDropped)
}

func (d *Dispatcher) observe(event Event, outcome string) {
	if d.metrics != nil {
		d.metrics.ObserveNotification(string(event.Type), outcome)
	}
}

func shardFor(userID string, shards int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32() % uint32(shards))
}
