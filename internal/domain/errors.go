package domain

import "errors"

// Sentinel errors returned by service-layer logic before the caller wraps
// them into an apperr.Error with a Kind. Kept distinct from apperr so
// domain logic never imports the HTTP-facing error package.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrTenantNotFound     = errors.New("tenant not found")
	ErrUnitNotFound       = errors.New("unit not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrDuesRecordNotFound = errors.New("dues record not found")
	ErrBillNotFound       = errors.New("water bill not found")
	ErrReadingsNotFound   = errors.New("water readings not found")
	ErrBudgetNotFound     = errors.New("budget not found")

	ErrInvalidAmount       = errors.New("amount must be a finite value within range")
	ErrSplitSumMismatch    = errors.New("allocation amounts do not sum to transaction amount")
	ErrMissingAllocations  = errors.New("split transaction requires allocations")
	ErrCorruptSplit        = errors.New("legacy split transaction has no allocations")
	ErrNegativeCredit      = errors.New("credit balance cannot go negative")
	ErrMissingReadings     = errors.New("not all readings for the quarter are present")
	ErrMeterReset          = errors.New("current reading is lower than prior reading")
	ErrBillAlreadyExists   = errors.New("water bill already generated for this quarter")
	ErrConfigError         = errors.New("required configuration is missing")
	ErrStale               = errors.New("document changed since it was read")
	ErrInsufficientObligations = errors.New("no open obligations to apply payment against")
	ErrClientIDMismatch    = errors.New("import bundle clientId does not match target tenant")
	ErrForbidden           = errors.New("caller lacks access to this tenant")
)

// Allocation type tags, a closed set.
type AllocationType string

const (
	AllocationHOAMonth         AllocationType = "hoa_month"
	AllocationWaterConsumption AllocationType = "water_consumption"
	AllocationWaterPenalty     AllocationType = "water_penalty"
	AllocationCreditUsed       AllocationType = "credit_used"
	AllocationCreditAdded      AllocationType = "credit_added"
	AllocationAccountTransfer  AllocationType = "account_transfer"
	AllocationOther            AllocationType = "other"
)

// SplitCategoryID is the sentinel categoryId marking a split transaction.
const SplitCategoryID = "-split-"

// BillStatus is the per-unit water bill entry status.
type BillStatus string

const (
	BillStatusUnpaid BillStatus = "unpaid"
	BillStatusPaid   BillStatus = "paid"
)

// DuesFrequency is a tenant's HOA billing cadence.
type DuesFrequency string

const (
	DuesFrequencyMonthly   DuesFrequency = "monthly"
	DuesFrequencyQuarterly DuesFrequency = "quarterly"
)
