package domain

import "time"

// Allocation is one signed-centavos entry in a split transaction.
type Allocation struct {
	TargetID   string                 `json:"targetId"`
	TargetName string                 `json:"targetName"`
	Type       AllocationType         `json:"type"`
	CategoryID string                 `json:"categoryId"`
	Amount     int64                  `json:"amount"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// Transaction is an append-only financial record, optionally split across
// several allocations. Deletions are restricted to admins.
type Transaction struct {
	TenantID      string       `json:"tenantId"`
	DocID         string       `json:"docId"`
	Date          time.Time    `json:"date"`
	Amount        int64        `json:"amount"`
	CategoryID    string       `json:"categoryId"`
	Allocations   []Allocation `json:"allocations,omitempty"`
	PaymentMethod string       `json:"paymentMethod,omitempty"`
	AccountID     string       `json:"accountId,omitempty"`
	Vendor        string       `json:"vendor,omitempty"`
	UnitID        string       `json:"unitId,omitempty"`
	Notes         string       `json:"notes,omitempty"`
	PaySeq        string       `json:"paySeq,omitempty"`
	Corrupt       bool         `json:"corrupt,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
}

// IsSplit reports whether t is a split transaction by category tag.
func (t *Transaction) IsSplit() bool {
	return t.CategoryID == SplitCategoryID
}

// AllocationSum returns the signed sum of t's allocations.
func (t *Transaction) AllocationSum() int64 {
	var sum int64
	for _, a := range t.Allocations {
		sum += a.Amount
	}
	return sum
}

// TransactionFilters narrows a List query.
type TransactionFilters struct {
	UnitID     string
	CategoryID string
	StartDate  *time.Time
	EndDate    *time.Time
	Limit      int
}
