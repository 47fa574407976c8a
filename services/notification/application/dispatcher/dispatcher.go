// Package dispatcher decides whether a budget event deserves a Telegram
// message and sends it. It knows nothing about the broker: the consumer hands
// it decoded envelopes and acks or requeues based on the returned error.
package dispatcher

import (
	"context"
	"fmt"

	"github.com/ghuser/budgetly/pkg/logger"
	"github.com/ghuser/budgetly/services/budget/domain/events"
	"github.com/ghuser/budgetly/services/notification/domain/models"
	"github.com/ghuser/budgetly/services/notification/infrastructure/telegram"
)

// SettingsFinder looks up a user's notification settings. A nil result with a
// nil error means the user has none.
type SettingsFinder interface {
	FindByUserID(ctx context.Context, userID string) (*models.Settings, error)
}

// Sender delivers a message, retrying internally, and reports success.
type Sender interface {
	SendMessageWithRetry(ctx context.Context, msg telegram.Message, maxRetries int) bool
}

// DeliveryLog remembers which events already produced a message.
type DeliveryLog interface {
	Delivered(ctx context.Context, eventID string) (bool, error)
	MarkDelivered(ctx context.Context, eventID string) error
}

// Dispatcher routes envelopes to the per-type handlers.
//
// Error contract: only failures worth redelivering are returned (settings
// lookup, undecodable payload). A Telegram failure is logged and swallowed so
// an outage at Telegram does not requeue events forever.
type Dispatcher struct {
	settings   SettingsFinder
	sender     Sender
	deliveries DeliveryLog
	maxRetries int
	log        logger.Logger
}

// Option configures optional Dispatcher collaborators.
type Option func(*Dispatcher)

// WithDeliveryLog enables duplicate suppression for redelivered events.
func WithDeliveryLog(l DeliveryLog) Option {
	return func(d *Dispatcher) { d.deliveries = l }
}

// New returns a Dispatcher sending with up to maxRetries attempts per message.
func New(settings SettingsFinder, sender Sender, maxRetries int, log logger.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		settings:   settings,
		sender:     sender,
		maxRetries: maxRetries,
		log:        log.With("component", "dispatcher"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// HandleEvent dispatches on evt.Type. Unknown types are logged and skipped.
func (d *Dispatcher) HandleEvent(ctx context.Context, evt events.Envelope) error {
	switch evt.Type {
	case events.TypeTransactionCreated:
		return d.HandleTransactionCreated(ctx, evt)
	case events.TypeGoalDeposit:
		return d.HandleGoalDeposit(ctx, evt)
	default:
		d.log.WarnContext(ctx, "dispatcher: unknown event type, skipping",
			"event_type", evt.Type,
			"event_id", evt.ID,
			"version", evt.Version,
		)
		return nil
	}
}

// HandleTransactionCreated notifies the user that a category went over its limit.
func (d *Dispatcher) HandleTransactionCreated(ctx context.Context, evt events.Envelope) error {
	p, err := evt.TransactionCreated()
	if err != nil {
		return err
	}
	// Re-checked here: the consumer does not trust the publisher's threshold logic.
	if p.CurrentSpent < p.LimitAmount {
		return nil
	}

	settings, err := d.settings.FindByUserID(ctx, p.UserID)
	if err != nil {
		return fmt.Errorf("dispatcher: find settings for %s: %w", p.UserID, err)
	}
	chatID, ok := settings.LimitExceededChat()
	if !ok {
		d.log.DebugContext(ctx, "dispatcher: limit alert not wanted", "user_id", p.UserID)
		return nil
	}

	d.send(ctx, evt, chatID, telegram.FormatLimitExceeded(p.CategoryName, p.CurrentSpent, p.LimitAmount))
	return nil
}

// HandleGoalDeposit notifies the user that a savings goal has been reached.
func (d *Dispatcher) HandleGoalDeposit(ctx context.Context, evt events.Envelope) error {
	p, err := evt.GoalDeposit()
	if err != nil {
		return err
	}
	if p.CurrentAmount < p.TargetAmount {
		return nil
	}

	settings, err := d.settings.FindByUserID(ctx, p.UserID)
	if err != nil {
		return fmt.Errorf("dispatcher: find settings for %s: %w", p.UserID, err)
	}
	chatID, ok := settings.GoalReachedChat()
	if !ok {
		d.log.DebugContext(ctx, "dispatcher: goal alert not wanted", "user_id", p.UserID)
		return nil
	}

	d.send(ctx, evt, chatID, telegram.FormatGoalReached(p.GoalName, p.CurrentAmount, p.TargetAmount))
	return nil
}

func (d *Dispatcher) send(ctx context.Context, evt events.Envelope, chatID, text string) {
	log := d.log.With("event_id", evt.ID, "event_type", evt.Type, "chat_id", chatID)

	if d.alreadyDelivered(ctx, evt.ID) {
		log.InfoContext(ctx, "dispatcher: event already delivered, skipping")
		return
	}

	if !d.sender.SendMessageWithRetry(ctx, telegram.Message{ChatID: chatID, Text: text}, d.maxRetries) {
		log.ErrorContext(ctx, "dispatcher: notification not delivered")
		return
	}
	log.InfoContext(ctx, "dispatcher: notification delivered")

	if d.deliveries != nil && evt.ID != "" {
		if err := d.deliveries.MarkDelivered(ctx, evt.ID); err != nil {
			log.WarnContext(ctx, "dispatcher: mark delivered failed", "error", err)
		}
	}
}

// alreadyDelivered fails open: a cache error means send anyway.
func (d *Dispatcher) alreadyDelivered(ctx context.Context, eventID string) bool {
	if d.deliveries == nil || eventID == "" {
		return false
	}
	delivered, err := d.deliveries.Delivered(ctx, eventID)
	if err != nil {
		d.log.WarnContext(ctx, "dispatcher: delivery cache unavailable, sending anyway",
			"event_id", eventID, "error", err)
		return false
	}
	return delivered
}
