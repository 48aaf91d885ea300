package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	EventTypeCreated  EventType = "created"
	EventTypeUpdated  EventType = "updated"
	EventTypeDeleted  EventType = "deleted"
	EventTypeProgress EventType = "progress"
	EventTypeComplete EventType = "complete"
	EventTypeFailed   EventType = "failed"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeTransaction EntityType = "transaction"
	EntityTypeHOADues     EntityType = "hoa_dues"
	EntityTypeWaterBill   EntityType = "water_bill"
	EntityTypeCreditBal   EntityType = "credit_balance"
	EntityTypeImport      EntityType = "import"
	EntityTypePurge       EntityType = "purge"
	EntityTypePenalty     EntityType = "penalty_recalc"
)

// Event represents a WebSocket event message sent to clients.
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // Combined type e.g. "import.progress"
	Entity    EntityType  `json:"entity"`    // Entity type e.g. "import"
	Payload   interface{} `json:"payload"`   // Event-specific payload
	Timestamp time.Time   `json:"timestamp"` // Event timestamp
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionCreated creates a transaction.created event
func TransactionCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeTransaction, payload)
}

// TransactionDeleted creates a transaction.deleted event
func TransactionDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypeTransaction, payload)
}

// HOADuesUpdated creates a hoa_dues.updated event, fired after a payment is
// recorded or reversed against a unit's dues ledger.
func HOADuesUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeHOADues, payload)
}

// WaterBillUpdated creates a water_bill.updated event, fired after bill
// generation, a payment application, or a penalty recalculation.
func WaterBillUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeWaterBill, payload)
}

// CreditBalanceUpdated creates a credit_balance.updated event
func CreditBalanceUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeCreditBal, payload)
}

// ImportProgress creates an import.progress event
func ImportProgress(payload interface{}) Event {
	return NewEvent(EventTypeProgress, EntityTypeImport, payload)
}

// ImportComplete creates an import.complete event
func ImportComplete(payload interface{}) Event {
	return NewEvent(EventTypeComplete, EntityTypeImport, payload)
}

// ImportFailed creates an import.failed event
func ImportFailed(payload interface{}) Event {
	return NewEvent(EventTypeFailed, EntityTypeImport, payload)
}

// PurgeProgress creates a purge.progress event
func PurgeProgress(payload interface{}) Event {
	return NewEvent(EventTypeProgress, EntityTypePurge, payload)
}

// PurgeComplete creates a purge.complete event
func PurgeComplete(payload interface{}) Event {
	return NewEvent(EventTypeComplete, EntityTypePurge, payload)
}

// PenaltyRecalcComplete creates a penalty_recalc.complete event
func PenaltyRecalcComplete(payload interface{}) Event {
	return NewEvent(EventTypeComplete, EntityTypePenalty, payload)
}
