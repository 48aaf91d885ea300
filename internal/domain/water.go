package domain

import (
	"fmt"
	"time"
)

// WaterReadings is one fiscal month's meter readings for every unit plus
// the common area. Overwrite is allowed; there is no history of revisions.
type WaterReadings struct {
	TenantID      string         `json:"tenantId"`
	FiscalYear    int            `json:"fiscalYear"`
	FiscalMonth   int            `json:"fiscalMonth"`
	Readings      map[string]int `json:"readings"`
	CarWashCounts  map[string]int `json:"carWashCounts,omitempty"`
	BoatWashCounts map[string]int `json:"boatWashCounts,omitempty"`
	CommonArea    int            `json:"commonArea"`
	Timestamp     time.Time      `json:"timestamp"`
}

// WaterBillPayment is one applied-payment entry recorded against a bill's
// per-unit entry.
type WaterBillPayment struct {
	TransactionID  string    `json:"transactionId"`
	Amount         int64     `json:"amount"`
	BaseChargePaid int64     `json:"baseChargePaid"`
	PenaltyPaid    int64     `json:"penaltyPaid"`
	Date           time.Time `json:"date"`
}

// WaterBillUnitEntry is one unit's charge, penalty, and payment state
// within a quarterly bill.
type WaterBillUnitEntry struct {
	PriorReading     int                `json:"priorReading"`
	CurrentReading   int                `json:"currentReading"`
	Consumption      int                `json:"consumption"`
	MeterReset       bool               `json:"meterReset"`
	CarWashCount     int                `json:"carWashCount"`
	BoatWashCount    int                `json:"boatWashCount"`
	CurrentCharge    int64              `json:"currentCharge"`
	PenaltyAmount    int64              `json:"penaltyAmount"`
	PaidAmount       int64              `json:"paidAmount"`
	Status           BillStatus         `json:"status"`
	LastPenaltyUpdate *time.Time        `json:"lastPenaltyUpdate,omitempty"`
	Payments         []WaterBillPayment `json:"payments,omitempty"`
}

// TotalAmount is currentCharge + penaltyAmount, per invariant 3.
func (e *WaterBillUnitEntry) TotalAmount() int64 {
	return e.CurrentCharge + e.PenaltyAmount
}

// Outstanding is the unpaid remainder of TotalAmount.
func (e *WaterBillUnitEntry) Outstanding() int64 {
	out := e.TotalAmount() - e.PaidAmount
	if out < 0 {
		return 0
	}
	return out
}

// WaterBill is one fiscal quarter's generated bill for every unit.
type WaterBill struct {
	TenantID      string                         `json:"tenantId"`
	FiscalYear    int                            `json:"fiscalYear"`
	FiscalQuarter int                             `json:"fiscalQuarter"`
	BillDate      time.Time                      `json:"billDate"`
	DueDate       time.Time                      `json:"dueDate"`
	ConfigSnapshot WaterConfig                   `json:"configSnapshot"`
	Units         map[string]*WaterBillUnitEntry `json:"units"`
}

// DocID renders the bit-exact water-bill document ID: {fiscalYear}-Q{q}.
func (b *WaterBill) DocID() string {
	return fmt.Sprintf("%d-Q%d", b.FiscalYear, b.FiscalQuarter)
}
