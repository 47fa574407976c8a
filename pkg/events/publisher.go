package events

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/ghuser/budgetly/pkg/logger"
)

// Publisher turns events into persistent messages on the budget.events exchange.
//
// Publishing is best effort: when the broker is down or rejects the message
// the event is logged as lost and PublishEvent returns false. The HTTP request
// that produced the event is never failed because a notification could not be
// queued.
type Publisher struct {
	broker *Broker
	topic  string
	log    logger.Logger
}

// NewPublisher returns a Publisher writing to ExchangeName through broker.
func NewPublisher(broker *Broker, log logger.Logger) *Publisher {
	return &Publisher{broker: broker, topic: ExchangeName, log: log}
}

// PublishEvent serializes event as JSON and publishes it. It reports whether
// the broker accepted the message.
func (p *Publisher) PublishEvent(ctx context.Context, event Event) bool {
	meta := event.EventMetadata()
	log := p.log.With("event_type", meta.Type, "event_id", meta.ID, "exchange", p.topic)

	if !p.broker.IsConnected() {
		log.ErrorContext(ctx, "events: broker not connected, event lost")
		return false
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.ErrorContext(ctx, "events: marshal event, event lost", "error", err)
		return false
	}

	id := meta.ID
	if id == "" {
		id = watermill.NewUUID()
	}
	msg := message.NewMessage(id, payload)
	msg.Metadata.Set(MetadataEventType, meta.Type)
	if meta.CorrelationID != "" {
		msg.Metadata.Set(MetadataCorrelationID, meta.CorrelationID)
	}
	injectTrace(ctx, msg)

	if err := p.broker.Publish(p.topic, msg); err != nil { //nolint:contextcheck
		log.ErrorContext(ctx, "events: publish failed, event lost", "error", err)
		return false
	}
	log.DebugContext(ctx, "events: event published")
	return true
}

// injectTrace copies the OTel trace context from ctx into msg metadata.
func injectTrace(ctx context.Context, msg *message.Message) {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	for k, v := range carrier {
		msg.Metadata.Set(k, v)
	}
}

// extractTrace restores the publisher's trace context from msg metadata.
func extractTrace(ctx context.Context, msg *message.Message) context.Context {
	carrier := propagation.MapCarrier{}
	for k, v := range msg.Metadata {
		carrier[k] = v
	}
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}
