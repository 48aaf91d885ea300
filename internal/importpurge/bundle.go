package importpurge

import (
	"time"

	"github.com/sandyland/sams-core/internal/domain"
)

// ClientFile is the decoded contents of Client.json: the import's safety
// check anchor. Import aborts loudly if ClientID does not match the
// target tenant.
type ClientFile struct {
	ClientID             string `json:"clientId"`
	DisplayCurrency      string `json:"displayCurrency"`
	FiscalYearStartMonth int    `json:"fiscalYearStartMonth"`
	DuesFrequency        string `json:"duesFrequency"`
	DuesGraceDays        int    `json:"duesGraceDays"`
}

// NamedDoc is one opaque record from a registry-shaped legacy export
// (PaymentMethods.json, Categories.json, Vendors.json, YearEndBalances.json):
// an id plus whatever fields the legacy exporter carried, written through
// to the document store unchanged. These collections have no business
// logic of their own in this module; the import's job is faithful
// reproduction of the legacy tree, not reinterpretation.
type NamedDoc struct {
	ID     string                 `json:"id"`
	Fields map[string]interface{} `json:"fields"`
}

// UnitFile is one unit record from Units.json.
type UnitFile struct {
	UnitID              string   `json:"unitId"`
	UnitNumber          string   `json:"unitNumber"`
	Owners              []string `json:"owners"`
	Managers            []string `json:"managers"`
	ScheduledDuesAmount int64    `json:"scheduledDuesAmount"`
}

// TransactionFile is one legacy transaction record from Transactions.json.
// PaySeq, when present, is the legacy payment sequence key the Cross-
// Reference Store indexes so later steps can recover the transaction this
// record became.
type TransactionFile struct {
	DocID         string               `json:"docId"`
	Date          time.Time            `json:"date"`
	Amount        int64                `json:"amount"`
	CategoryID    string               `json:"categoryId"`
	Allocations   []domain.Allocation  `json:"allocations"`
	PaymentMethod string               `json:"paymentMethod"`
	AccountID     string               `json:"accountId"`
	Vendor        string               `json:"vendor"`
	UnitID        string               `json:"unitId"`
	Notes         string               `json:"notes"`
	PaySeq        string               `json:"paySeq"`
}

// HOADuesSlotFile is one month's slot within an HOADuesFile, carrying the
// legacy paySeq the payment was recorded against (if any).
type HOADuesSlotFile struct {
	Month       int        `json:"month"`
	Amount      int64      `json:"amount"`
	BasePaid    int64      `json:"basePaid"`
	PenaltyPaid int64      `json:"penaltyPaid"`
	Paid        bool       `json:"paid"`
	Date        *time.Time `json:"date"`
	DueDate     *time.Time `json:"dueDate"`
	PaySeq      string     `json:"paySeq"`
	Notes       string     `json:"notes"`
}

// HOADuesFile is one unit's full-year dues ledger from HOADues.json.
type HOADuesFile struct {
	UnitID          string            `json:"unitId"`
	FiscalYear      int               `json:"fiscalYear"`
	ScheduledAmount int64             `json:"scheduledAmount"`
	Slots           []HOADuesSlotFile `json:"slots"`
}

// WaterBillPaymentFile is one applied payment entry on a legacy bill, with
// the paySeq it was booked against.
type WaterBillPaymentFile struct {
	Amount         int64     `json:"amount"`
	BaseChargePaid int64     `json:"baseChargePaid"`
	PenaltyPaid    int64     `json:"penaltyPaid"`
	Date           time.Time `json:"date"`
	PaySeq         string    `json:"paySeq"`
}

// WaterBillUnitFile is one unit's entry within a legacy bill.
type WaterBillUnitFile struct {
	UnitID         string                 `json:"unitId"`
	PriorReading   int                    `json:"priorReading"`
	CurrentReading int                    `json:"currentReading"`
	Consumption    int                    `json:"consumption"`
	CarWashCount   int                    `json:"carWashCount"`
	BoatWashCount  int                    `json:"boatWashCount"`
	CurrentCharge  int64                  `json:"currentCharge"`
	PenaltyAmount  int64                  `json:"penaltyAmount"`
	Payments       []WaterBillPaymentFile `json:"payments"`
}

// WaterBillFile is one fiscal quarter's bill from WaterBills.json.
type WaterBillFile struct {
	FiscalYear    int                 `json:"fiscalYear"`
	FiscalQuarter int                 `json:"fiscalQuarter"`
	BillDate      time.Time           `json:"billDate"`
	DueDate       time.Time           `json:"dueDate"`
	Units         []WaterBillUnitFile `json:"units"`
}

// Bundle is the full set of decoded legacy export files for one import
// run, read from ImportFileStore under a fixed set of object names.
type Bundle struct {
	Client          ClientFile
	Config          map[string]interface{}
	PaymentMethods  []NamedDoc
	Categories      []NamedDoc
	Vendors         []NamedDoc
	Units           []UnitFile
	YearEndBalances []NamedDoc
	Transactions    []TransactionFile
	HOADues         []HOADuesFile
	WaterBills      []WaterBillFile
}
