package events

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	amqp "github.com/ThreeDotsLabs/watermill-amqp/v3/pkg/amqp"
	watermillsql "github.com/ThreeDotsLabs/watermill-sql/v3/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	_ "github.com/jackc/pgx/v5/stdlib"
	amqp091 "github.com/rabbitmq/amqp091-go"

	"github.com/ghuser/budgetly/pkg/config"
	"github.com/ghuser/budgetly/pkg/logger"
)

// DefaultDialTimeout bounds one connection attempt when the caller's context
// carries no earlier deadline.
const DefaultDialTimeout = 10 * time.Second

// transport is one live connection to a broker backend.
type transport struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	connected  func() bool
	close      func() error
}

type dialFunc func(ctx context.Context) (*transport, error)

// Broker owns the process's single broker connection. It is created by main,
// connected once at startup, injected into the Publisher and Consumer, and
// closed once at shutdown.
type Broker struct {
	driver string
	dial   dialFunc
	log    logger.Logger

	mu        sync.RWMutex
	transport *transport
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// NewBroker returns an unconnected Broker for cfg.BrokerDriver.
func NewBroker(cfg *config.Config, log logger.Logger) (*Broker, error) {
	switch cfg.BrokerDriver {
	case config.BrokerAMQP, "":
		return NewAMQPBroker(cfg.RabbitMQURL, log), nil
	case config.BrokerPostgres:
		return NewPostgresBroker(cfg.BudgetDatabaseURL, log), nil
	default:
		return nil, fmt.Errorf("events: unknown broker driver %q", cfg.BrokerDriver)
	}
}

// NewAMQPBroker returns a Broker for RabbitMQ. The connection reconnects with
// exponential backoff after a drop; IsConnected reports false while it is down.
func NewAMQPBroker(url string, log logger.Logger) *Broker {
	wlog := NewWatermillLogger(log.With("component", "broker", "driver", config.BrokerAMQP))
	return &Broker{
		driver: config.BrokerAMQP,
		log:    log,
		dial: func(ctx context.Context) (*transport, error) {
			dialCfg := amqpDialConfig(ctx)
			if err := declareTopology(url, dialCfg); err != nil {
				return nil, err
			}

			amqpCfg := amqp.NewDurablePubSubConfig(url, amqp.GenerateQueueNameConstant(QueueName))
			amqpCfg.Connection.AmqpConfig = &dialCfg
			amqpCfg.Consume.Qos.PrefetchCount = 1

			conn, err := amqp.NewConnection(amqpCfg.Connection, wlog)
			if err != nil {
				return nil, fmt.Errorf("events: amqp connect: %w", err)
			}
			pub, err := amqp.NewPublisherWithConnection(amqpCfg, wlog, conn)
			if err != nil {
				_ = conn.Close()
				return nil, fmt.Errorf("events: amqp publisher: %w", err)
			}
			sub, err := amqp.NewSubscriberWithConnection(amqpCfg, wlog, conn)
			if err != nil {
				_ = pub.Close()
				_ = conn.Close()
				return nil, fmt.Errorf("events: amqp subscriber: %w", err)
			}
			return &transport{
				publisher:  pub,
				subscriber: sub,
				connected:  conn.IsConnected,
				close: func() error {
					return errors.Join(sub.Close(), pub.Close(), conn.Close())
				},
			}, nil
		},
	}
}

// declareTopology declares the fanout exchange and the durable queue and binds
// them. It runs on a short-lived connection so both processes see the same
// topology at startup, and events published before the notifier first runs
// are already queued.
func declareTopology(url string, cfg amqp091.Config) error {
	conn, err := amqp091.DialConfig(url, cfg)
	if err != nil {
		return fmt.Errorf("events: dial %s: %w", ExchangeName, err)
	}
	defer conn.Close() //nolint:errcheck

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("events: open channel: %w", err)
	}
	defer ch.Close() //nolint:errcheck

	if err := ch.ExchangeDeclare(ExchangeName, amqp091.ExchangeFanout, true, false, false, false, nil); err != nil {
		return fmt.Errorf("events: declare exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("events: declare queue: %w", err)
	}
	if err := ch.QueueBind(QueueName, "", ExchangeName, false, nil); err != nil {
		return fmt.Errorf("events: bind queue: %w", err)
	}
	return nil
}

// amqpDialConfig bounds the TCP dial by ctx's deadline. amqp091 does not take
// a context, so the deadline is turned into a dial timeout; reconnects made
// later by Watermill reuse the same bound.
func amqpDialConfig(ctx context.Context) amqp091.Config {
	timeout := DefaultDialTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = max(time.Until(deadline), time.Millisecond)
	}
	return amqp091.Config{
		Dial:      amqp091.DefaultDial(timeout),
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
	}
}

// NewPostgresBroker returns a Broker on Watermill's SQL transport. The topic
// table plays the exchange and the consumer group plays the queue: every group
// sees every event, and a nacked message is redelivered to the same group.
func NewPostgresBroker(url string, log logger.Logger) *Broker {
	wlog := NewWatermillLogger(log.With("component", "broker", "driver", config.BrokerPostgres))
	return &Broker{
		driver: config.BrokerPostgres,
		log:    log,
		dial: func(ctx context.Context) (*transport, error) {
			db, err := sql.Open("pgx", url)
			if err != nil {
				return nil, fmt.Errorf("events: open db: %w", err)
			}
			if err := db.PingContext(ctx); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("events: ping db: %w", err)
			}

			pub, err := watermillsql.NewPublisher(
				db,
				watermillsql.PublisherConfig{
					SchemaAdapter:        watermillsql.DefaultPostgreSQLSchema{},
					AutoInitializeSchema: true,
				},
				wlog,
			)
			if err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("events: new publisher: %w", err)
			}

			sub, err := watermillsql.NewSubscriber(
				db,
				watermillsql.SubscriberConfig{
					SchemaAdapter:    watermillsql.DefaultPostgreSQLSchema{},
					OffsetsAdapter:   watermillsql.DefaultPostgreSQLOffsetsAdapter{},
					InitializeSchema: true,
					ConsumerGroup:    QueueName,
				},
				wlog,
			)
			if err != nil {
				_ = pub.Close()
				_ = db.Close()
				return nil, fmt.Errorf("events: new subscriber: %w", err)
			}

			return &transport{
				publisher:  pub,
				subscriber: sub,
				connected: func() bool {
					ctx, cancel := context.WithTimeout(context.Background(), time.Second)
					defer cancel()
					return db.PingContext(ctx) == nil
				},
				close: func() error {
					return errors.Join(sub.Close(), pub.Close(), db.Close())
				},
			}, nil
		},
	}
}

// NewInMemoryBroker returns a Broker on Watermill's Go channel pub/sub. Used by
// tests and single-process local runs; nothing survives a restart.
func NewInMemoryBroker(log logger.Logger) *Broker {
	wlog := NewWatermillLogger(log.With("component", "broker", "driver", "memory"))
	return &Broker{
		driver: "memory",
		log:    log,
		dial: func(context.Context) (*transport, error) {
			pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, wlog)
			var closed atomic.Bool
			return &transport{
				publisher:  pubSub,
				subscriber: pubSub,
				connected:  func() bool { return !closed.Load() },
				close: func() error {
					closed.Store(true)
					return pubSub.Close()
				},
			}, nil
		},
	}
}

// Connect dials the backend. Calling it on a connected Broker is a no-op.
//
// The dial runs without holding the broker lock, so IsConnected and Publish
// keep answering (not connected) while a slow or blackholed host is being
// dialled. Concurrent callers may both dial; the loser closes
// its connection.
func (b *Broker) Connect(ctx context.Context) error {
	if b.closed.Load() {
		return ErrBrokerClosed
	}
	b.mu.RLock()
	connected := b.transport != nil
	b.mu.RUnlock()
	if connected {
		return nil
	}

	dialCtx, cancel := context.WithTimeout(ctx, DefaultDialTimeout)
	defer cancel()
	t, err := b.dial(dialCtx)
	if err != nil {
		return err
	}

	b.mu.Lock()
	installed := !b.closed.Load() && b.transport == nil
	if installed {
		b.transport = t
	}
	b.mu.Unlock()

	if !installed {
		if err := t.close(); err != nil {
			b.log.WarnContext(ctx, "events: close surplus connection", "error", err)
		}
		if b.closed.Load() {
			return ErrBrokerClosed
		}
		return nil
	}
	b.log.InfoContext(ctx, "events: broker connected", "driver", b.driver, "exchange", ExchangeName)
	return nil
}

// IsConnected reports whether the broker currently has a live connection.
func (b *Broker) IsConnected() bool {
	if b.closed.Load() {
		return false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.transport != nil && b.transport.connected()
}

// Ping satisfies httpx.HealthChecker.
func (b *Broker) Ping(context.Context) error {
	if !b.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// Publish hands msgs to the backend for topic.
func (b *Broker) Publish(topic string, msgs ...*message.Message) error {
	t, err := b.current()
	if err != nil {
		return err
	}
	if err := t.publisher.Publish(topic, msgs...); err != nil {
		return fmt.Errorf("events: publish to %s: %w", topic, err)
	}
	return nil
}

// Subscribe returns the delivery channel for topic. The channel is closed
// when the broker is closed.
func (b *Broker) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	t, err := b.current()
	if err != nil {
		return nil, err
	}
	ch, err := t.subscriber.Subscribe(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("events: subscribe to %s: %w", topic, err)
	}
	return ch, nil
}

// Close disconnects from the backend. Only the first call does any work;
// later calls return the first call's result.
func (b *Broker) Close() error {
	b.closeOnce.Do(func() {
		b.closed.Store(true)
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.transport == nil {
			return
		}
		b.closeErr = b.transport.close()
		b.transport = nil
		b.log.Info("events: broker closed", "driver", b.driver)
	})
	return b.closeErr
}

func (b *Broker) current() (*transport, error) {
	if b.closed.Load() {
		return nil, ErrBrokerClosed
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.transport == nil {
		return nil, ErrNotConnected
	}
	return b.transport, nil
}
