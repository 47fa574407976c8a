package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/ghuser/budgetly/pkg/logger"
	"github.com/ghuser/budgetly/pkg/telemetry"
)

// DefaultHandlerTimeout bounds a single handler run when ConsumerConfig leaves it unset.
const DefaultHandlerTimeout = 10 * time.Second

const (
	// maxTrackedFailures caps the per-message failure records kept for
	// MaxDeliveries. Records older than failureTTL are pruned first.
	maxTrackedFailures = 10_000
	failureTTL         = time.Hour
)

// Handler goroutine states, used to hand a timed-out handler its own
// in-flight slot exactly once.
const (
	handlerRunning int32 = iota
	handlerReturned
	handlerAbandoned
)

const (
	outcomeAck     = "ack"
	outcomeNack    = "nack"
	outcomeDropped = "dropped"
)

// ConsumerConfig tunes a Consumer.
type ConsumerConfig struct {
	// Topic defaults to ExchangeName.
	Topic string
	// HandlerTimeout defaults to DefaultHandlerTimeout.
	HandlerTimeout time.Duration
	// MaxDeliveries caps failed attempts per message. Zero requeues forever.
	MaxDeliveries int
}

// Handler processes one decoded event. A nil return acks the message; an
// error nacks it for redelivery.
type Handler[T any] func(ctx context.Context, event T) error

// Consumer reads messages one at a time, decodes them into T and runs the
// handler under a timeout:
//   - handler returns nil            → Ack
//   - error, panic, timeout, bad JSON → Nack (requeue)
//   - MaxDeliveries reached           → logged, reported, Ack (dropped)
//
// The in-flight count runs from the moment a message is taken off the
// delivery channel until it has been acked or nacked, plus any handler still
// running after its timeout. It is what the shutdown coordinator drains.
type failureRecord struct {
	attempts int
	last     time.Time
}

type Consumer[T any] struct {
	broker  *Broker
	handler Handler[T]
	cfg     ConsumerConfig
	log     logger.Logger

	inFlight atomic.Int64
	started  atomic.Bool
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	mu          sync.Mutex
	failures    map[string]failureRecord
	maxTracked  int
	failuresTTL time.Duration

	consumed metric.Int64Counter
}

// NewConsumer returns a Consumer that has not started reading yet.
func NewConsumer[T any](broker *Broker, handler Handler[T], cfg ConsumerConfig, log logger.Logger) *Consumer[T] {
	if cfg.Topic == "" {
		cfg.Topic = ExchangeName
	}
	if cfg.HandlerTimeout <= 0 {
		cfg.HandlerTimeout = DefaultHandlerTimeout
	}
	consumed, err := otel.Meter("github.com/ghuser/budgetly/pkg/events").Int64Counter(
		"events_consumed_total",
		metric.WithDescription("Consumed broker messages by outcome"),
	)
	if err != nil {
		otel.Handle(err)
	}
	return &Consumer[T]{
		broker:   broker,
		handler:  handler,
		cfg:      cfg,
		log:      log.With("component", "consumer", "queue", QueueName),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		failures:    make(map[string]failureRecord),
		maxTracked:  maxTrackedFailures,
		failuresTTL: failureTTL,
		consumed:    consumed,
	}
}

// Start subscribes and begins consuming on a background goroutine. Handlers
// run detached from ctx cancellation so a shutdown signal does not abort work
// the coordinator is about to drain.
func (c *Consumer[T]) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return fmt.Errorf("events: consumer already started")
	}
	msgs, err := c.broker.Subscribe(ctx, c.cfg.Topic)
	if err != nil {
		return err
	}
	go c.run(context.WithoutCancel(ctx), msgs)
	c.log.InfoContext(ctx, "events: consumer started",
		"handler_timeout", c.cfg.HandlerTimeout,
		"max_deliveries", c.cfg.MaxDeliveries,
	)
	return nil
}

// Stop stops taking new messages. The message being handled, if any, still
// finishes and is acked or nacked. Safe to call more than once.
func (c *Consumer[T]) Stop() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

// Done is closed when the read loop has exited.
func (c *Consumer[T]) Done() <-chan struct{} {
	return c.done
}

// InFlight returns the number of messages received but not yet acked or
// nacked, plus handlers still running past their timeout.
func (c *Consumer[T]) InFlight() int64 {
	return c.inFlight.Load()
}

func (c *Consumer[T]) run(ctx context.Context, msgs <-chan *message.Message) {
	defer close(c.done)
	for {
		select {
		case <-c.stop:
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			if !c.receive(ctx, msg) {
				return
			}
		}
	}
}

// receive holds an in-flight slot from delivery until settlement. It reports
// false when the consumer was stopped and msg was handed back untouched.
func (c *Consumer[T]) receive(ctx context.Context, msg *message.Message) bool {
	c.inFlight.Add(1)
	defer c.inFlight.Add(-1)

	select {
	case <-c.stop:
		msg.Nack()
		return false
	default:
	}
	c.process(ctx, msg)
	return true
}

// process settles one message. Exactly one of Ack or Nack is called.
func (c *Consumer[T]) process(ctx context.Context, msg *message.Message) {
	ctx = extractTrace(ctx, msg)
	if id := msg.Metadata.Get(MetadataCorrelationID); id != "" {
		ctx = logger.WithCorrelationID(ctx, id)
	}
	log := c.log.With("message_id", msg.UUID, "event_type", msg.Metadata.Get(MetadataEventType))

	err := telemetry.WithLatency(ctx, "events.handle", func(ctx context.Context) error {
		return c.handle(ctx, msg)
	})
	if err == nil {
		c.forget(msg.UUID)
		msg.Ack()
		c.record(ctx, outcomeAck)
		return
	}

	if attempts, exhausted := c.exhausted(msg.UUID); exhausted {
		log.ErrorContext(ctx, "events: delivery limit reached, dropping message",
			"error", err,
			"attempts", attempts,
			"payload", string(msg.Payload),
		)
		telemetry.CaptureError(err, map[string]string{
			"queue":      QueueName,
			"message_id": msg.UUID,
		})
		msg.Ack()
		c.record(ctx, outcomeDropped)
		return
	}

	log.WarnContext(ctx, "events: handler failed, requeueing", "error", err)
	msg.Nack()
	c.record(ctx, outcomeNack)
}

// handle decodes and runs the handler on its own goroutine so the timeout can
// win the race. A handler that overruns takes an in-flight slot of its own
// until it actually returns; its context is cancelled so well-behaved
// handlers return promptly.
func (c *Consumer[T]) handle(ctx context.Context, msg *message.Message) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.HandlerTimeout)
	defer cancel()

	result := make(chan error, 1)
	state := new(atomic.Int32)
	go func() {
		defer func() {
			if !state.CompareAndSwap(handlerRunning, handlerReturned) {
				c.inFlight.Add(-1)
			}
		}()
		defer func() {
			if r := recover(); r != nil {
				c.log.ErrorContext(ctx, "events: handler panic",
					"panic", r,
					"stack", string(debug.Stack()),
				)
				result <- fmt.Errorf("events: handler panic: %v", r)
			}
		}()

		var event T
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			result <- fmt.Errorf("%w: %w", ErrMalformedMessage, err)
			return
		}
		result <- c.handler(ctx, event)
	}()

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		c.inFlight.Add(1)
		if !state.CompareAndSwap(handlerRunning, handlerAbandoned) {
			// Returned while the timeout fired; its result is already buffered.
			c.inFlight.Add(-1)
			return <-result
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w after %s", ErrHandlerTimeout, c.cfg.HandlerTimeout)
		}
		return ctx.Err()
	}
}

// exhausted counts a failed attempt and reports whether the cap is reached.
func (c *Consumer[T]) exhausted(id string) (int, bool) {
	if c.cfg.MaxDeliveries <= 0 {
		return 0, false
	}
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	rec := c.failures[id]
	rec.attempts++
	rec.last = now
	if rec.attempts >= c.cfg.MaxDeliveries {
		delete(c.failures, id)
		return rec.attempts, true
	}
	c.failures[id] = rec
	if len(c.failures) > c.maxTracked {
		c.pruneFailures(now)
	}
	return rec.attempts, false
}

// pruneFailures drops stale records, then arbitrary ones until the map is
// back under its cap. A forgotten message only gets extra deliveries.
// Callers hold c.mu.
func (c *Consumer[T]) pruneFailures(now time.Time) {
	for id, rec := range c.failures {
		if now.Sub(rec.last) > c.failuresTTL {
			delete(c.failures, id)
		}
	}
	for id := range c.failures {
		if len(c.failures) <= c.maxTracked {
			return
		}
		delete(c.failures, id)
	}
}

func (c *Consumer[T]) forget(id string) {
	if c.cfg.MaxDeliveries <= 0 {
		return
	}
	c.mu.Lock()
	delete(c.failures, id)
	c.mu.Unlock()
}

func (c *Consumer[T]) record(ctx context.Context, outcome string) {
	if c.consumed == nil {
		return
	}
	c.consumed.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
