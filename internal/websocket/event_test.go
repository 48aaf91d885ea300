package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventType_String(t *testing.T) {
	tests := []struct {
		name     string
		et       EventType
		expected string
	}{
		{"created", EventTypeCreated, "created"},
		{"updated", EventTypeUpdated, "updated"},
		{"deleted", EventTypeDeleted, "deleted"},
		{"progress", EventTypeProgress, "progress"},
		{"complete", EventTypeComplete, "complete"},
		{"failed", EventTypeFailed, "failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.et))
		})
	}
}

func TestEntityType_String(t *testing.T) {
	tests := []struct {
		name     string
		et       EntityType
		expected string
	}{
		{"transaction", EntityTypeTransaction, "transaction"},
		{"hoa_dues", EntityTypeHOADues, "hoa_dues"},
		{"water_bill", EntityTypeWaterBill, "water_bill"},
		{"import", EntityTypeImport, "import"},
		{"purge", EntityTypePurge, "purge"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.et))
		})
	}
}

func TestNewEvent(t *testing.T) {
	payload := map[string]interface{}{
		"id":     1,
		"name":   "2026-Q1",
		"amount": "1550.00",
	}

	before := time.Now()
	evt := NewEvent(EventTypeCreated, EntityTypeWaterBill, payload)
	after := time.Now()

	assert.Equal(t, "water_bill.created", evt.Type)
	assert.Equal(t, EntityTypeWaterBill, evt.Entity)
	assert.Equal(t, payload, evt.Payload)
	assert.True(t, !evt.Timestamp.Before(before) && !evt.Timestamp.After(after))
}

func TestEvent_JSON_Serialization(t *testing.T) {
	fixedTime := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	payload := map[string]interface{}{
		"id":     float64(1),
		"unitId": "101",
	}

	evt := Event{
		Type:      "water_bill.updated",
		Entity:    EntityTypeWaterBill,
		Payload:   payload,
		Timestamp: fixedTime,
	}

	data, err := json.Marshal(evt)
	require.NoError(t, err)

	var decoded Event
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)

	assert.Equal(t, evt.Type, decoded.Type)
	assert.Equal(t, evt.Entity, decoded.Entity)
	assert.Equal(t, fixedTime.UTC(), decoded.Timestamp.UTC())

	decodedPayload, ok := decoded.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(1), decodedPayload["id"])
	assert.Equal(t, "101", decodedPayload["unitId"])
}

func TestEvent_ToJSON(t *testing.T) {
	payload := map[string]interface{}{
		"id": float64(42),
	}

	evt := NewEvent(EventTypeUpdated, EntityTypeTransaction, payload)

	data, err := evt.ToJSON()
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	var decoded map[string]interface{}
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)

	assert.Equal(t, "transaction.updated", decoded["type"])
	assert.Equal(t, "transaction", decoded["entity"])
	assert.NotNil(t, decoded["payload"])
	assert.NotNil(t, decoded["timestamp"])
}

func TestImportPurgeEvent_Helpers(t *testing.T) {
	payload := map[string]interface{}{
		"step":      "transactions",
		"processed": float64(120),
		"total":     float64(400),
		"percent":   float64(30),
	}

	t.Run("ImportProgress", func(t *testing.T) {
		evt := ImportProgress(payload)
		assert.Equal(t, "import.progress", evt.Type)
		assert.Equal(t, EntityTypeImport, evt.Entity)
		assert.Equal(t, payload, evt.Payload)
	})

	t.Run("ImportComplete", func(t *testing.T) {
		evt := ImportComplete(payload)
		assert.Equal(t, "import.complete", evt.Type)
		assert.Equal(t, EntityTypeImport, evt.Entity)
	})

	t.Run("ImportFailed", func(t *testing.T) {
		evt := ImportFailed(payload)
		assert.Equal(t, "import.failed", evt.Type)
		assert.Equal(t, EntityTypeImport, evt.Entity)
	})

	t.Run("PurgeProgress", func(t *testing.T) {
		evt := PurgeProgress(payload)
		assert.Equal(t, "purge.progress", evt.Type)
		assert.Equal(t, EntityTypePurge, evt.Entity)
	})

	t.Run("PurgeComplete", func(t *testing.T) {
		evt := PurgeComplete(payload)
		assert.Equal(t, "purge.complete", evt.Type)
		assert.Equal(t, EntityTypePurge, evt.Entity)
	})

	t.Run("PenaltyRecalcComplete", func(t *testing.T) {
		evt := PenaltyRecalcComplete(payload)
		assert.Equal(t, "penalty_recalc.complete", evt.Type)
		assert.Equal(t, EntityTypePenalty, evt.Entity)
	})
}

func TestTransactionEvent_Helpers(t *testing.T) {
	txPayload := map[string]interface{}{
		"id":     "2026-01-15_103000_001",
		"amount": "-50.00",
	}

	t.Run("TransactionCreated", func(t *testing.T) {
		evt := TransactionCreated(txPayload)
		assert.Equal(t, "transaction.created", evt.Type)
		assert.Equal(t, EntityTypeTransaction, evt.Entity)
		assert.Equal(t, txPayload, evt.Payload)
	})

	t.Run("TransactionDeleted", func(t *testing.T) {
		evt := TransactionDeleted(txPayload)
		assert.Equal(t, "transaction.deleted", evt.Type)
		assert.Equal(t, EntityTypeTransaction, evt.Entity)
		assert.Equal(t, txPayload, evt.Payload)
	})
}

func TestHOADuesAndCreditBalanceEvent_Helpers(t *testing.T) {
	payload := map[string]interface{}{"unitId": "1C", "fiscalYear": float64(2026)}

	evt := HOADuesUpdated(payload)
	assert.Equal(t, "hoa_dues.updated", evt.Type)

	evt2 := CreditBalanceUpdated(payload)
	assert.Equal(t, "credit_balance.updated", evt2.Type)
}
