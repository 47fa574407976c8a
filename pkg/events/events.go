// Package events carries domain events between the budgeting API and the
// notifier over a durable broker built on Watermill.
//
// Topology (AMQP driver):
//   - exchange "budget.events", fanout, durable; every bound queue gets every event
//   - queue "notifications.queue", durable, bound with an empty routing key
//   - prefetch 1: the notifier holds at most one unacknowledged delivery
//
// Delivery is at-least-once. The consumer acks on success and nacks with
// requeue on any failure, so handlers must tolerate duplicates.
//
// OTel context propagation: trace context is injected into message metadata on
// publish and extracted before the handler runs.
package events

import "errors"

const (
	// ExchangeName is the fanout exchange (or SQL topic) all budget events go to.
	ExchangeName = "budget.events"
	// QueueName is the durable queue (or SQL consumer group) the notifier reads.
	QueueName = "notifications.queue"

	// MetadataEventType and MetadataCorrelationID are copied from the envelope
	// into message metadata so they are visible without decoding the payload.
	MetadataEventType     = "event_type"
	MetadataCorrelationID = "correlation_id"
)

var (
	// ErrBrokerClosed is returned by Broker methods after Close.
	ErrBrokerClosed = errors.New("events: broker closed")
	// ErrNotConnected is returned when the broker has no live connection.
	ErrNotConnected = errors.New("events: broker not connected")
	// ErrMalformedMessage wraps payloads that fail to decode.
	ErrMalformedMessage = errors.New("events: malformed message")
	// ErrHandlerTimeout is returned when a handler outlives its deadline.
	ErrHandlerTimeout = errors.New("events: handler timed out")
)

// Metadata identifies an event on the wire.
type Metadata struct {
	ID            string
	Type          string
	CorrelationID string
}

// Event is implemented by envelopes the Publisher can route.
type Event interface {
	EventMetadata() Metadata
}
