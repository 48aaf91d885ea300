package domain

import "time"

// CreditHistoryEntry is one append-only movement of a unit's credit balance.
type CreditHistoryEntry struct {
	Timestamp     time.Time `json:"timestamp"`
	Delta         int64     `json:"delta"`
	NewBalance    int64     `json:"newBalance"`
	TransactionID string    `json:"transactionId"`
	Reason        string    `json:"reason"`
}

// CreditBalance is a unit's prepayment ledger. Balance never goes negative.
type CreditBalance struct {
	TenantID string               `json:"tenantId"`
	UnitID   string               `json:"unitId"`
	Balance  int64                `json:"balance"`
	History  []CreditHistoryEntry `json:"history"`
}
