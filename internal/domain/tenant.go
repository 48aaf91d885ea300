package domain

// WaterConfig holds a tenant's quarterly water-billing policy.
type WaterConfig struct {
	RatePerM3       int64   `json:"ratePerM3"`
	MinimumCharge   int64   `json:"minimumCharge"`
	PenaltyRate     float64 `json:"penaltyRate"`
	PenaltyDays     int     `json:"penaltyDays"`
	CompoundPenalty bool    `json:"compoundPenalty"`
	CarWashRate     int64   `json:"carWashRate"`
	BoatWashRate    int64   `json:"boatWashRate"`
	DueDay          int     `json:"dueDay"`
}

// Tenant is a single client association.
type Tenant struct {
	ID                  string        `json:"id"`
	FiscalYearStartMonth int          `json:"fiscalYearStartMonth"`
	DisplayCurrency     string        `json:"displayCurrency"`
	DuesFrequency       DuesFrequency `json:"duesFrequency"`
	DuesGraceDays       int           `json:"duesGraceDays"`
	Water               WaterConfig   `json:"water"`
}

// Unit is a billable property within a tenant.
type Unit struct {
	TenantID            string   `json:"tenantId"`
	UnitID              string   `json:"unitId"`
	UnitNumber          string   `json:"unitNumber"`
	Owners              []string `json:"owners"`
	Managers            []string `json:"managers"`
	ScheduledDuesAmount int64    `json:"scheduledDuesAmount"`
}
