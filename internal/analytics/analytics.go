// Package analytics publishes fire-and-forget events off the request path.
package analytics

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spigell/pawmatch/internal/metrics"
	"go.uber.org/zap"
)

const (
	defaultQueueSize   = 256
	defaultSendTimeout = 5 * time.Second
)

// redacted keys are stripped from every event before it is queued.
var redacted = map[string]struct{}{
	"applicant_name":  {},
	"applicant_email": {},
	"applicant_phone": {},
	"raw_text":        {},
}

// Event is a single analytics record.
type Event struct {
	ID             string         `json:"id"`
	Type           string         `json:"type"`
	ConversationID string         `json:"conversation_id,omitempty"`
	Timestamp      time.Time      `json:"timestamp"`
	Data           map[string]any `json:"data,omitempty"`
}

// Sink delivers events to their destination.
type Sink interface {
	Send(ctx context.Context, event Event) error
}

// Emitter queues events and delivers them from a single background worker.
type Emitter struct {
	sink        Sink
	queue       chan Event
	sendTimeout time.Duration
	now         func() time.Time
	logger      *zap.Logger

	stopOnce sync.Once
	shutdown chan struct{}
	done     chan struct{}
}

type Option func(*Emitter)

// WithQueueSize bounds the number of events waiting for delivery.
func WithQueueSize(n int) Option {
	return func(e *Emitter) {
		if n > 0 {
			e.queue = make(chan Event, n)
		}
	}
}

func WithSendTimeout(d time.Duration) Option {
	return func(e *Emitter) {
		if d > 0 {
			e.sendTimeout = d
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(e *Emitter) {
		if logger != nil {
			e.logger = logger.Named("analytics")
		}
	}
}

func withClock(now func() time.Time) Option {
	return func(e *Emitter) {
		e.now = now
	}
}

// NewEmitter creates an emitter. Call Run to start delivery.
func NewEmitter(sink Sink, opts ...Option) *Emitter {
	e := &Emitter{
		sink:        sink,
		queue:       make(chan Event, defaultQueueSize),
		sendTimeout: defaultSendTimeout,
		now:         time.Now,
		logger:      zap.NewNop(),
		shutdown:    make(chan struct{}),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Emit queues an event without blocking. Events are dropped when the queue is full or the emitter is stopped.
func (e *Emitter) Emit(eventType, conversationID string, data map[string]any) {
	if e == nil {
		return
	}

	event := Event{
		ID:             uuid.NewString(),
		Type:           eventType,
		ConversationID: conversationID,
		Timestamp:      e.now().UTC(),
		Data:           Redact(data),
	}

	select {
	case <-e.shutdown:
		e.drop(event, "emitter stopped")
		return
	default:
	}

	select {
	case e.queue <- event:
	default:
		e.drop(event, "queue full")
	}
}

func (e *Emitter) drop(event Event, reason string) {
	metrics.RecordAnalyticsEvent("dropped")
	e.logger.Warn("analytics event dropped",
		zap.String("event_id", event.ID),
		zap.String("type", event.Type),
		zap.String("reason", reason),
	)
}

// Run delivers queued events until ctx is canceled or Shutdown is called.
func (e *Emitter) Run(ctx context.Context) {
	defer close(e.done)

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.shutdown:
			e.drain(ctx)
			return
		case event := <-e.queue:
			e.deliver(ctx, event)
		}
	}
}

func (e *Emitter) drain(ctx context.Context) {
	for {
		select {
		case event := <-e.queue:
			e.deliver(ctx, event)
		default:
			return
		}
	}
}

func (e *Emitter) deliver(ctx context.Context, event Event) {
	sendCtx, cancel := context.WithTimeout(ctx, e.sendTimeout)
	defer cancel()

	if err := e.sink.Send(sendCtx, event); err != nil {
		metrics.RecordAnalyticsEvent("failed")
		e.logger.Warn("analytics delivery failed",
			zap.String("event_id", event.ID),
			zap.String("type", event.Type),
			zap.Error(err),
		)
		return
	}
	metrics.RecordAnalyticsEvent("sent")
}

// Shutdown stops accepting events and waits for queued ones to be delivered.
func (e *Emitter) Shutdown(ctx context.Context) error {
	e.stopOnce.Do(func() { close(e.shutdown) })

	select {
	case <-e.done:
		return nil
	case <-ctx.Done():
		e.logger.Warn("analytics shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Redact returns a copy of data without personal fields.
func Redact(data map[string]any) map[string]any {
	if len(data) == 0 {
		return nil
	}

	out := make(map[string]any, len(data))
	for key, value := range data {
		if _, drop := redacted[strings.ToLower(key)]; drop {
			continue
		}
		out[key] = value
	}
	return out
}
