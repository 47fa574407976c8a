// Package events defines the wire schema shared by the budgeting API (which
// publishes) and the notifier (which consumes). Changes here are wire changes:
// add fields freely, bump SchemaVersion for anything a v1 reader would misread.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	pkgevents "github.com/ghuser/budgetly/pkg/events"
)

// SchemaVersion is stamped on every envelope.
const SchemaVersion = 1

// Type discriminates the envelope payload.
type Type string

const (
	// TypeTransactionCreated is published when an expense takes a category to or over its monthly limit.
	TypeTransactionCreated Type = "TRANSACTION_CREATED"
	// TypeGoalDeposit is published when a deposit takes a goal to or over its target.
	TypeGoalDeposit Type = "GOAL_DEPOSIT"
)

// Envelope is the JSON document carried by every broker message.
// Consumers must log and skip a Type they do not recognise.
type Envelope struct {
	ID            string          `json:"id,omitempty"` // Unique per event; used to suppress duplicate notifications
	Type          Type            `json:"type"`
	Version       int             `json:"version"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlationId,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// TransactionCreatedPayload reports category spend for the month against its limit.
type TransactionCreatedPayload struct {
	UserID       string  `json:"userId"`
	CategoryID   string  `json:"categoryId"`
	CategoryName string  `json:"categoryName"`
	Amount       float64 `json:"amount"`
	BudgetID     string  `json:"budgetId"`
	CurrentSpent float64 `json:"currentSpent"`
	LimitAmount  float64 `json:"limitAmount"`
}

// GoalDepositPayload reports a goal's balance after a deposit.
type GoalDepositPayload struct {
	UserID        string  `json:"userId"`
	GoalID        string  `json:"goalId"`
	GoalName      string  `json:"goalName"`
	CurrentAmount float64 `json:"currentAmount"`
	TargetAmount  float64 `json:"targetAmount"`
}

// NewTransactionCreatedEvent wraps p in a version 1 envelope stamped with the current time.
func NewTransactionCreatedEvent(p TransactionCreatedPayload, correlationID string) Envelope {
	return newEnvelope(TypeTransactionCreated, p, correlationID)
}

// NewGoalDepositEvent wraps p in a version 1 envelope stamped with the current time.
func NewGoalDepositEvent(p GoalDepositPayload, correlationID string) Envelope {
	return newEnvelope(TypeGoalDeposit, p, correlationID)
}

func newEnvelope(t Type, payload any, correlationID string) Envelope {
	// Payload structs contain only strings and numbers; Marshal cannot fail.
	raw, _ := json.Marshal(payload)
	return Envelope{
		ID:            uuid.NewString(),
		Type:          t,
		Version:       SchemaVersion,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Payload:       raw,
	}
}

// EventMetadata lets the envelope be published by pkg/events.Publisher.
func (e Envelope) EventMetadata() pkgevents.Metadata {
	return pkgevents.Metadata{
		ID:            e.ID,
		Type:          string(e.Type),
		CorrelationID: e.CorrelationID,
	}
}

// TransactionCreated decodes the payload of a TRANSACTION_CREATED envelope.
func (e Envelope) TransactionCreated() (TransactionCreatedPayload, error) {
	var p TransactionCreatedPayload
	if err := e.decode(TypeTransactionCreated, &p); err != nil {
		return TransactionCreatedPayload{}, err
	}
	return p, nil
}

// GoalDeposit decodes the payload of a GOAL_DEPOSIT envelope.
func (e Envelope) GoalDeposit() (GoalDepositPayload, error) {
	var p GoalDepositPayload
	if err := e.decode(TypeGoalDeposit, &p); err != nil {
		return GoalDepositPayload{}, err
	}
	return p, nil
}

func (e Envelope) decode(want Type, dst any) error {
	if e.Type != want {
		return fmt.Errorf("envelope type %s is not %s", e.Type, want)
	}
	if err := json.Unmarshal(e.Payload, dst); err != nil {
		return fmt.Errorf("decode %s payload: %w", want, err)
	}
	return nil
}
