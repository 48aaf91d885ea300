package domain

import "time"

// DuesPayment is one of the 12 fixed slots in an HOADuesRecord. Index i
// corresponds to fiscal month (i+1), 1-based.
type DuesPayment struct {
	Month         int        `json:"month"`
	Amount        int64      `json:"amount"`
	BasePaid      int64      `json:"basePaid"`
	PenaltyPaid   int64      `json:"penaltyPaid"`
	Date          *time.Time `json:"date,omitempty"`
	Paid          bool       `json:"paid"`
	DueDate       *time.Time `json:"dueDate,omitempty"`
	TransactionID string     `json:"transactionId,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	PaymentMethod string     `json:"paymentMethod,omitempty"`
	Reference     string     `json:"reference,omitempty"`
}

// HOADuesRecord is one unit's fixed 12-slot payment ledger for a fiscal year.
type HOADuesRecord struct {
	TenantID       string        `json:"tenantId"`
	UnitID         string        `json:"unitId"`
	FiscalYear     int           `json:"fiscalYear"`
	ScheduledAmount int64        `json:"scheduledAmount"`
	TotalPaid      int64         `json:"totalPaid"`
	Payments       [12]DuesPayment `json:"payments"`
}

// RecomputeTotalPaid sets TotalPaid to the sum of all slot amounts, per
// invariant 2: HOADuesRecord.totalPaid == Σ payments[i].amount.
func (r *HOADuesRecord) RecomputeTotalPaid() {
	var sum int64
	for _, p := range r.Payments {
		sum += p.Amount
	}
	r.TotalPaid = sum
}

// VisibleMonth reports whether slot index i (0-based) should be shown in a
// statement as of today, per the month-selection display policy: visible
// if its due date has passed or it is already paid. Quarterly tenants
// reveal all three months of a quarter once any one of them is past due.
func (r *HOADuesRecord) VisibleMonth(i int, today time.Time, frequency DuesFrequency) bool {
	slot := r.Payments[i]
	if slot.Paid {
		return true
	}
	if frequency == DuesFrequencyQuarterly {
		quarterStart := (i / 3) * 3
		for j := quarterStart; j < quarterStart+3; j++ {
			if r.Payments[j].DueDate != nil && !r.Payments[j].DueDate.After(today) {
				return true
			}
		}
		return false
	}
	return slot.DueDate != nil && !slot.DueDate.After(today)
}
