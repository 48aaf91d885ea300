package service

import (
	"context"
	"testing"
	"time"

	"github.com/sandyland/sams-core/internal/domain"
	"github.com/sandyland/sams-core/internal/store"
	"github.com/sandyland/sams-core/internal/store/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpectedPenalty_CompoundingScenario(t *testing.T) {
	// Scenario 1: currentCharge=155000, penaltyRate=0.05, 2 months overdue,
	// compounding. Expected penaltyAmount=15887, totalAmount=170887.
	got := expectedPenalty(155000, 0.05, 2, true)
	assert.Equal(t, int64(15887), int64(got))
}

func TestExpectedPenalty_Linear(t *testing.T) {
	got := expectedPenalty(155000, 0.05, 2, false)
	assert.Equal(t, int64(15500), int64(got))
}

func TestExpectedPenalty_NoOverdueOrNoMonths(t *testing.T) {
	assert.Equal(t, int64(0), int64(expectedPenalty(0, 0.05, 2, true)))
	assert.Equal(t, int64(0), int64(expectedPenalty(155000, 0.05, 0, true)))
}

func TestPenaltyRecalculator_RecalcTenant_Scenario1(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	dueDate := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	bill := domain.WaterBill{
		TenantID:      "AVII",
		FiscalYear:    2026,
		FiscalQuarter: 1,
		BillDate:      dueDate,
		DueDate:       dueDate,
		Units: map[string]*domain.WaterBillUnitEntry{
			"101": {
				CurrentReading: 1780,
				PriorReading:   1749,
				Consumption:    31,
				CurrentCharge:  155000,
				PenaltyAmount:  0,
				PaidAmount:     0,
				Status:         domain.BillStatusUnpaid,
			},
		},
	}
	doc, err := store.ToDoc(bill)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "clients/AVII/projects/waterBills/bills/2026-Q1", doc))

	cfg := domain.WaterConfig{PenaltyRate: 0.05, PenaltyDays: 10, CompoundPenalty: true}
	rc := NewPenaltyRecalculator(s)

	// "Now" is 2 months past dueDate+penaltyDays (2026-07-11).
	now := time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC)
	tally, err := rc.RecalcTenant(ctx, "AVII", cfg, now)
	require.NoError(t, err)
	assert.Equal(t, 1, tally.UnitsUpdated)

	data, err := s.Get(ctx, "clients/AVII/projects/waterBills/bills/2026-Q1")
	require.NoError(t, err)
	var updated domain.WaterBill
	require.NoError(t, store.FromDoc(data, &updated))
	entry := updated.Units["101"]
	assert.Equal(t, int64(15887), entry.PenaltyAmount)
	assert.Equal(t, int64(170887), entry.TotalAmount())
}

func TestPenaltyRecalculator_ConfigError(t *testing.T) {
	rc := NewPenaltyRecalculator(memstore.New())
	_, err := rc.RecalcTenant(context.Background(), "AVII", domain.WaterConfig{}, time.Now())
	assert.Error(t, err)
}

func TestPenaltyRecalculator_Idempotent(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	dueDate := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	bill := domain.WaterBill{
		TenantID: "AVII", FiscalYear: 2026, FiscalQuarter: 1, DueDate: dueDate,
		Units: map[string]*domain.WaterBillUnitEntry{
			"101": {CurrentCharge: 155000, Status: domain.BillStatusUnpaid},
		},
	}
	doc, _ := store.ToDoc(bill)
	require.NoError(t, s.Set(ctx, "clients/AVII/projects/waterBills/bills/2026-Q1", doc))

	cfg := domain.WaterConfig{PenaltyRate: 0.05, PenaltyDays: 10, CompoundPenalty: true}
	rc := NewPenaltyRecalculator(s)
	now := time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC)

	_, err := rc.RecalcTenant(ctx, "AVII", cfg, now)
	require.NoError(t, err)
	tally2, err := rc.RecalcTenant(ctx, "AVII", cfg, now)
	require.NoError(t, err)
	assert.Equal(t, 0, tally2.UnitsUpdated)
}
