package metrics

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/loposkin/tinkoff-task1/internal/status"
)

type EventType string

const (
	EventAttemptCompleted EventType = "attempt_completed"
	EventRetryScheduled   EventType = "retry_scheduled"
	EventCallResolved     EventType = "call_resolved"
	EventHealthChanged    EventType = "health_changed"
)

// Attempt outcomes in addition to the status.Kind names.
const (
	OutcomeError       = "error"
	OutcomeCircuitOpen = "circuit_open"
)

type MetricEvent struct {
	Type       EventType
	Timestamp  time.Time
	Endpoint   string
	Duration   time.Duration
	Outcome    string
	Resolution status.Resolution
	Retries    int
	Healthy    bool
}

// Collector aggregates events emitted on the call path. It implements
// status.Observer and never blocks the emitter: events that do not fit in
// the buffer are dropped and counted.
type Collector struct {
	eventCh chan MetricEvent
	metrics *Metrics
	dropped atomic.Int64
	logger  *slog.Logger
}

var _ status.Observer = (*Collector)(nil)

func NewCollector(bufferSize int, logger *slog.Logger) *Collector {
	return &Collector{
		eventCh: make(chan MetricEvent, bufferSize),
		metrics: NewMetrics(),
		logger:  logger,
	}
}

// Emit queues an event without blocking.
func (c *Collector) Emit(event MetricEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case c.eventCh <- event:
	default:
		c.dropped.Add(1)
		droppedEventsTotal.Inc()
	}
}

func (c *Collector) OnAttempt(endpoint string, kind status.Kind, latency time.Duration, err error) {
	outcome := kind.String()
	switch {
	case errors.Is(err, status.ErrCircuitOpen):
		outcome = OutcomeCircuitOpen
	case err != nil:
		outcome = OutcomeError
	}

	c.Emit(MetricEvent{
		Type:     EventAttemptCompleted,
		Endpoint: endpoint,
		Duration: latency,
		Outcome:  outcome,
	})
}

func (c *Collector) OnRetry(endpoint string, delay time.Duration) {
	c.Emit(MetricEvent{
		Type:     EventRetryScheduled,
		Endpoint: endpoint,
		Duration: delay,
	})
}

func (c *Collector) OnResolved(resolution status.Resolution, duration time.Duration, retries int) {
	c.Emit(MetricEvent{
		Type:       EventCallResolved,
		Duration:   duration,
		Resolution: resolution,
		Retries:    retries,
	})
}

// HealthChanged matches healthcheck.ChangeFunc.
func (c *Collector) HealthChanged(endpoint string, healthy bool) {
	c.Emit(MetricEvent{
		Type:     EventHealthChanged,
		Endpoint: endpoint,
		Healthy:  healthy,
	})
}

func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Collector) run(ctx context.Context) {
	c.logger.Info("Metrics collector started")
	defer c.logger.Info("Metrics collector stopped")

	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		case <-ctx.Done():
			// Drain remaining events before shutdown
			c.drain()
			return
		}
	}
}

func (c *Collector) processEvent(event MetricEvent) {
	switch event.Type {
	case EventAttemptCompleted:
		c.metrics.RecordAttempt(event.Endpoint, event.Outcome, event.Duration)
		observeAttempt(event.Endpoint, event.Outcome, event.Duration)

	case EventRetryScheduled:
		c.metrics.RecordRetry(event.Endpoint)
		observeRetry(event.Endpoint, event.Duration)

	case EventCallResolved:
		c.metrics.RecordCall(event.Resolution, event.Duration, event.Retries)
		observeCall(event.Resolution, event.Duration, event.Retries)

	case EventHealthChanged:
		c.metrics.UpdateHealthStatus(event.Endpoint, event.Healthy)
		observeHealth(event.Endpoint, event.Healthy)

	default:
		c.logger.Warn("Unknown metric event", slog.String("type", string(event.Type)))
	}
}

func (c *Collector) drain() {
	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		default:
			return
		}
	}
}

// Dropped returns how many events were discarded because the buffer was full.
func (c *Collector) Dropped() int64 {
	return c.dropped.Load()
}

func (c *Collector) Snapshot() Snapshot {
	snap := c.metrics.Snapshot()
	snap.DroppedEvents = c.dropped.Load()
	return snap
}
