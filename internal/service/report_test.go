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

func TestReportAggregator_StatementOfAccount_ChargesBeforePaymentsSameDate(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	loc := waterTestLoc()

	duesSvc := NewHOADuesService(s, 1, 10, loc)
	unit := domain.Unit{UnitID: "101", ScheduledDuesAmount: 50000}
	_, err := duesSvc.EnsureYear(ctx, "AVII", unit, 2026, domain.DuesFrequencyMonthly)
	require.NoError(t, err)

	jan1 := time.Date(2026, 1, 1, 0, 0, 0, 0, loc)
	tx := domain.Transaction{
		TenantID: "AVII", DocID: "2026-01-01_090000_001", Date: jan1, Amount: 50000,
		CategoryID: domain.SplitCategoryID, UnitID: "101",
		Allocations: []domain.Allocation{
			{Type: domain.AllocationHOAMonth, CategoryID: hoaDuesCategoryID, TargetName: "HOA Dues", Amount: 50000},
		},
	}
	doc, err := store.ToDoc(tx)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "clients/AVII/transactions/2026-01-01_090000_001", doc))

	creditSvc := NewCreditBalanceService(s)
	agg := NewReportAggregator(s, creditSvc, 1, loc)

	asOf := time.Date(2026, 2, 1, 0, 0, 0, 0, loc)
	stmt, err := agg.StatementOfAccount(ctx, "AVII", "101", 2026, asOf, domain.DuesFrequencyMonthly)
	require.NoError(t, err)
	require.NotEmpty(t, stmt.Rows)

	firstCharge := stmt.Rows[0]
	assert.Equal(t, "charge", firstCharge.Kind)
	assert.True(t, jan1.Equal(firstCharge.Date), "first charge date %v, want %v", firstCharge.Date, jan1)
}

func TestReportAggregator_StatementOfAccount_HidesUnduePastVisibility(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	loc := waterTestLoc()

	duesSvc := NewHOADuesService(s, 1, 10, loc)
	unit := domain.Unit{UnitID: "101", ScheduledDuesAmount: 50000}
	_, err := duesSvc.EnsureYear(ctx, "AVII", unit, 2026, domain.DuesFrequencyMonthly)
	require.NoError(t, err)

	creditSvc := NewCreditBalanceService(s)
	agg := NewReportAggregator(s, creditSvc, 1, loc)

	asOf := time.Date(2026, 2, 15, 0, 0, 0, 0, loc)
	stmt, err := agg.StatementOfAccount(ctx, "AVII", "101", 2026, asOf, domain.DuesFrequencyMonthly)
	require.NoError(t, err)
	// Only Jan and Feb dues should be visible; months far in the future
	// (e.g. December) must not appear yet.
	for _, row := range stmt.Rows {
		assert.True(t, row.Date.Before(asOf) || row.Date.Equal(asOf))
	}
	assert.LessOrEqual(t, len(stmt.Rows), 2)
}

func TestReportAggregator_BudgetVsActual_IncomeVarianceSign(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	loc := waterTestLoc()

	budget := domain.Budget{TenantID: "AVII", FiscalYear: 2026, CategoryID: "dues_income", CategoryType: domain.CategoryTypeIncome, AnnualAmount: 1200000}
	doc, err := store.ToDoc(budget)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "clients/AVII/budgets/2026/dues_income", doc))

	tx := domain.Transaction{
		TenantID: "AVII", DocID: "2026-03-01_090000_001",
		Date: time.Date(2026, 3, 1, 0, 0, 0, 0, loc), Amount: 200000, CategoryID: "dues_income",
	}
	txDoc, err := store.ToDoc(tx)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "clients/AVII/transactions/2026-03-01_090000_001", txDoc))

	agg := NewReportAggregator(s, NewCreditBalanceService(s), 1, loc)
	now := time.Date(2026, 7, 1, 0, 0, 0, 0, loc)
	report, err := agg.BudgetVsActual(ctx, "AVII", 2026, now)
	require.NoError(t, err)
	require.Len(t, report.Categories, 1)
	assert.Equal(t, int64(200000), report.Categories[0].YTDActual)
	// Income below its year-to-date budget: negative variance, unfavorable.
	assert.Equal(t, report.Categories[0].YTDActual-report.Categories[0].YTDBudget, report.Categories[0].Variance)
	assert.Less(t, report.Categories[0].Variance, int64(0))
	assert.False(t, report.Categories[0].Favorable)
}

func TestReportAggregator_BudgetVsActual_SpecialAssessmentsSeparated(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	loc := waterTestLoc()

	tx := domain.Transaction{
		TenantID: "AVII", DocID: "2026-03-01_090000_002",
		Date: time.Date(2026, 3, 1, 0, 0, 0, 0, loc), Amount: 500000, CategoryID: "projects_roof",
	}
	doc, err := store.ToDoc(tx)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "clients/AVII/transactions/2026-03-01_090000_002", doc))

	agg := NewReportAggregator(s, NewCreditBalanceService(s), 1, loc)
	now := time.Date(2026, 7, 1, 0, 0, 0, 0, loc)
	report, err := agg.BudgetVsActual(ctx, "AVII", 2026, now)
	require.NoError(t, err)
	assert.Empty(t, report.Categories)
	assert.Equal(t, int64(500000), int64(report.SpecialAssessments.Collections))
}
