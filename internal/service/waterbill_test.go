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

func waterTestLoc() *time.Location {
	return time.FixedZone("tenant", -5*60*60)
}

func TestWaterBillGenerator_Generate_MissingReadings(t *testing.T) {
	s := memstore.New()
	readings := NewWaterReadingsService(s)
	penalty := NewPenaltyRecalculator(s)
	gen := NewWaterBillGenerator(s, readings, penalty, 1, waterTestLoc())

	units := []domain.Unit{{UnitID: "101", ScheduledDuesAmount: 0}}
	cfg := domain.WaterConfig{RatePerM3: 5000, MinimumCharge: 10000, PenaltyRate: 0.05, PenaltyDays: 10, DueDay: 10}

	_, err := gen.Generate(context.Background(), "AVII", 2026, 1, cfg, units, time.Now())
	assert.Error(t, err)
}

func TestWaterBillGenerator_Generate_ComputesConsumptionAndCharge(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	readings := NewWaterReadingsService(s)
	penalty := NewPenaltyRecalculator(s)
	gen := NewWaterBillGenerator(s, readings, penalty, 1, waterTestLoc())

	_, err := readings.Upsert(ctx, "AVII", 2025, 11, map[string]int{"101": 100}, nil, nil, 0)
	require.NoError(t, err)
	_, err = readings.Upsert(ctx, "AVII", 2026, 0, map[string]int{"101": 100}, nil, nil, 0)
	require.NoError(t, err)
	_, err = readings.Upsert(ctx, "AVII", 2026, 1, map[string]int{"101": 110}, nil, nil, 0)
	require.NoError(t, err)
	_, err = readings.Upsert(ctx, "AVII", 2026, 2, map[string]int{"101": 131}, nil, nil, 0)
	require.NoError(t, err)

	units := []domain.Unit{{UnitID: "101"}}
	cfg := domain.WaterConfig{RatePerM3: 5000, MinimumCharge: 10000, PenaltyRate: 0.05, PenaltyDays: 10, DueDay: 10}

	bill, err := gen.Generate(ctx, "AVII", 2026, 1, cfg, units, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	entry := bill.Units["101"]
	require.NotNil(t, entry)
	assert.Equal(t, 31, entry.Consumption)
	assert.Equal(t, int64(155000), entry.CurrentCharge)
	assert.False(t, entry.MeterReset)
	assert.Equal(t, domain.BillStatusUnpaid, entry.Status)
}

func TestWaterBillGenerator_Generate_IncludesCarAndBoatWashCharges(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	readings := NewWaterReadingsService(s)
	penalty := NewPenaltyRecalculator(s)
	gen := NewWaterBillGenerator(s, readings, penalty, 1, waterTestLoc())

	_, err := readings.Upsert(ctx, "AVII", 2025, 11, map[string]int{"101": 100}, nil, nil, 0)
	require.NoError(t, err)
	_, err = readings.Upsert(ctx, "AVII", 2026, 0, map[string]int{"101": 100}, map[string]int{"101": 1}, nil, 0)
	require.NoError(t, err)
	_, err = readings.Upsert(ctx, "AVII", 2026, 1, map[string]int{"101": 110}, nil, map[string]int{"101": 2}, 0)
	require.NoError(t, err)
	_, err = readings.Upsert(ctx, "AVII", 2026, 2, map[string]int{"101": 131}, map[string]int{"101": 1}, nil, 0)
	require.NoError(t, err)

	units := []domain.Unit{{UnitID: "101"}}
	cfg := domain.WaterConfig{RatePerM3: 5000, MinimumCharge: 10000, PenaltyRate: 0.05, PenaltyDays: 10, DueDay: 10, CarWashRate: 10000, BoatWashRate: 20000}

	bill, err := gen.Generate(ctx, "AVII", 2026, 1, cfg, units, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	entry := bill.Units["101"]
	require.NotNil(t, entry)
	assert.Equal(t, 31, entry.Consumption)
	assert.Equal(t, 2, entry.CarWashCount)
	assert.Equal(t, 2, entry.BoatWashCount)
	// 31*5000 + 2*10000 + 2*20000 = 155000 + 20000 + 40000
	assert.Equal(t, int64(215000), entry.CurrentCharge)
}

func TestWaterBillGenerator_Generate_DuplicateRejected(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	readings := NewWaterReadingsService(s)
	penalty := NewPenaltyRecalculator(s)
	gen := NewWaterBillGenerator(s, readings, penalty, 1, waterTestLoc())

	for fm := 0; fm < 3; fm++ {
		_, err := readings.Upsert(ctx, "AVII", 2026, fm, map[string]int{"101": 100 + fm*10}, nil, nil, 0)
		require.NoError(t, err)
	}
	units := []domain.Unit{{UnitID: "101"}}
	cfg := domain.WaterConfig{RatePerM3: 5000, MinimumCharge: 10000, PenaltyRate: 0.05, PenaltyDays: 10, DueDay: 10}

	_, err := gen.Generate(ctx, "AVII", 2026, 1, cfg, units, time.Now())
	require.NoError(t, err)

	_, err = gen.Generate(ctx, "AVII", 2026, 1, cfg, units, time.Now())
	assert.Error(t, err)
}

func TestWaterBillGenerator_Generate_MeterReset(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	readings := NewWaterReadingsService(s)
	penalty := NewPenaltyRecalculator(s)
	gen := NewWaterBillGenerator(s, readings, penalty, 1, waterTestLoc())

	// fm2 (last month of Q1) supplies the prior reading for Q2; fm3..fm5
	// are Q2's own three months, ending with a reading lower than the
	// prior one — the meter was physically replaced or rolled over.
	_, err := readings.Upsert(ctx, "AVII", 2026, 2, map[string]int{"101": 500}, nil, nil, 0)
	require.NoError(t, err)
	_, err = readings.Upsert(ctx, "AVII", 2026, 3, map[string]int{"101": 5}, nil, nil, 0)
	require.NoError(t, err)
	_, err = readings.Upsert(ctx, "AVII", 2026, 4, map[string]int{"101": 12}, nil, nil, 0)
	require.NoError(t, err)
	_, err = readings.Upsert(ctx, "AVII", 2026, 5, map[string]int{"101": 20}, nil, nil, 0)
	require.NoError(t, err)

	units := []domain.Unit{{UnitID: "101"}}
	cfg := domain.WaterConfig{RatePerM3: 5000, MinimumCharge: 10000, PenaltyRate: 0.05, PenaltyDays: 10, DueDay: 10}

	bill, err := gen.Generate(ctx, "AVII", 2026, 2, cfg, units, time.Now())
	require.NoError(t, err)
	entry := bill.Units["101"]
	assert.True(t, entry.MeterReset)
	assert.Equal(t, 0, entry.Consumption)
	assert.Equal(t, int64(10000), entry.CurrentCharge)
}

func TestWaterBillGenerator_ApplyPaymentInTx_MarksPaid(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	readings := NewWaterReadingsService(s)
	penalty := NewPenaltyRecalculator(s)
	gen := NewWaterBillGenerator(s, readings, penalty, 1, waterTestLoc())

	for fm := 0; fm < 3; fm++ {
		_, err := readings.Upsert(ctx, "AVII", 2026, fm, map[string]int{"101": 100 + fm*10}, nil, nil, 0)
		require.NoError(t, err)
	}
	units := []domain.Unit{{UnitID: "101"}}
	cfg := domain.WaterConfig{RatePerM3: 5000, MinimumCharge: 10000, PenaltyRate: 0.05, PenaltyDays: 10, DueDay: 10}
	bill, err := gen.Generate(ctx, "AVII", 2026, 1, cfg, units, time.Now())
	require.NoError(t, err)

	total := bill.Units["101"].TotalAmount()
	err = s.RunTransaction(ctx, func(txn store.Tx) error {
		return gen.ApplyPaymentInTx(txn, "AVII", 2026, 1, "101", domain.WaterBillPayment{
			TransactionID:  "2026-01-15_120000_001",
			Amount:         total,
			BaseChargePaid: total,
			Date:           time.Now(),
		})
	})
	require.NoError(t, err)

	updated, err := gen.Get(ctx, "AVII", 2026, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.BillStatusPaid, updated.Units["101"].Status)
	assert.Equal(t, total, updated.Units["101"].PaidAmount)
}

func TestWaterBillGenerator_ReversePaymentInTx(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	readings := NewWaterReadingsService(s)
	penalty := NewPenaltyRecalculator(s)
	gen := NewWaterBillGenerator(s, readings, penalty, 1, waterTestLoc())

	for fm := 0; fm < 3; fm++ {
		_, err := readings.Upsert(ctx, "AVII", 2026, fm, map[string]int{"101": 100 + fm*10}, nil, nil, 0)
		require.NoError(t, err)
	}
	units := []domain.Unit{{UnitID: "101"}}
	cfg := domain.WaterConfig{RatePerM3: 5000, MinimumCharge: 10000, PenaltyRate: 0.05, PenaltyDays: 10, DueDay: 10}
	bill, err := gen.Generate(ctx, "AVII", 2026, 1, cfg, units, time.Now())
	require.NoError(t, err)
	total := bill.Units["101"].TotalAmount()
	txID := "2026-01-15_120000_001"

	err = s.RunTransaction(ctx, func(txn store.Tx) error {
		return gen.ApplyPaymentInTx(txn, "AVII", 2026, 1, "101", domain.WaterBillPayment{
			TransactionID: txID, Amount: total, Date: time.Now(),
		})
	})
	require.NoError(t, err)

	err = s.RunTransaction(ctx, func(txn store.Tx) error {
		return gen.reversePaymentInTx(txn, "AVII", "101", txID)
	})
	require.NoError(t, err)

	updated, err := gen.Get(ctx, "AVII", 2026, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.BillStatusUnpaid, updated.Units["101"].Status)
	assert.Equal(t, int64(0), updated.Units["101"].PaidAmount)
	assert.Empty(t, updated.Units["101"].Payments)
}
