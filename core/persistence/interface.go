// Package persistence assembles typed requests into dialect commands and,
// optionally, runs them through database/sql. The Assembler is pure: it
// resolves descriptors and renders SQL without touching a connection. The
// Repository executes assembled commands, materializes rows and emits
// persistence events.
package persistence

import (
	"context"
	"fmt"

	"github.com/asaidimu/go-crudsql/core/query"
)

// PersistenceEventType names an event emitted by a Repository.
type PersistenceEventType string

// EventPhase is the stage of an operation an event reports.
type EventPhase string

const (
	PhaseStart   EventPhase = "start"
	PhaseSuccess EventPhase = "success"
	PhaseFailed  EventPhase = "failed"
)

const (
	TransactionStart   PersistenceEventType = "transaction:start"
	TransactionSuccess PersistenceEventType = "transaction:success"
	TransactionFailed  PersistenceEventType = "transaction:failed"
)

// CommandEvent returns the event type for one phase of a command, such as
// "command:insert:success".
func CommandEvent(op query.Operation, phase EventPhase) PersistenceEventType {
	return PersistenceEventType(fmt.Sprintf("command:%s:%s", op, phase))
}

// PersistenceEvent is the payload of every repository event.
type PersistenceEvent struct {
	Type      PersistenceEventType `json:"type"`
	Timestamp int64                `json:"timestamp"` // Unix milliseconds
	Operation string               `json:"operation"`
	Table     *string              `json:"table,omitempty"`
	Dialect   string               `json:"dialect,omitempty"`
	Input     any                  `json:"input,omitempty"`
	Output    any                  `json:"output,omitempty"`
	Error     *string              `json:"error,omitempty"`
	SQL       string               `json:"sql,omitempty"`
	Params    int                  `json:"params,omitempty"`
	Duration  *int64               `json:"duration,omitempty"` // milliseconds
}

// EventCallbackFunction receives subscribed events.
type EventCallbackFunction func(ctx context.Context, event PersistenceEvent) error

// SubscriptionInfo describes a registered subscription.
type SubscriptionInfo struct {
	Id          *string              `json:"id,omitempty"`
	Event       PersistenceEventType `json:"event"`
	Label       *string              `json:"label,omitempty"`
	Description *string              `json:"description,omitempty"`
	Unsubscribe func()               `json:"-"`
}

// RegisterSubscriptionOptions defines options for registering a subscription.
type RegisterSubscriptionOptions struct {
	Event       PersistenceEventType `json:"event"`
	Label       *string              `json:"label,omitempty"`
	Description *string              `json:"description,omitempty"`
	Callback    EventCallbackFunction
}
