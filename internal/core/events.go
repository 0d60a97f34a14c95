package core

import "time"

// EventType names a committed ledger mutation.
type EventType string

const (
	EventAccountCreated   EventType = "account.created"
	EventAccountRenamed   EventType = "account.renamed"
	EventAccountDeleted   EventType = "account.deleted"
	EventMovementCreated  EventType = "movement.created"
	EventMovementUpdated  EventType = "movement.updated"
	EventMovementDeleted  EventType = "movement.deleted"
	EventTransferCreated  EventType = "transfer.created"
	EventRecurringCreated EventType = "recurring.created"
	EventRecurringUpdated EventType = "recurring.updated"
	EventRecurringDeleted EventType = "recurring.deleted"
)

// EventVersion is bumped when the LedgerEvent wire shape changes.
const EventVersion = 1

// LedgerEvent describes a mutation after it has been committed.
type LedgerEvent struct {
	Type      EventType            `json:"type"`
	Version   int                  `json:"version"`
	Timestamp time.Time            `json:"timestamp"`
	EntityID  int64                `json:"entity_id,omitempty"`
	Account   string               `json:"account,omitempty"`
	Movement  *Movement            `json:"movement,omitempty"`
	Recurring *RecurringObligation `json:"recurring,omitempty"`
	Transfer  *TransferResult      `json:"transfer,omitempty"`
}

// NewLedgerEvent stamps an event with the current version and time.
func NewLedgerEvent(t EventType, entityID int64) LedgerEvent {
	return LedgerEvent{Type: t, Version: EventVersion, Timestamp: time.Now().UTC(), EntityID: entityID}
}
