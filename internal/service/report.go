package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sandyland/sams-core/internal/apperr"
	"github.com/sandyland/sams-core/internal/domain"
	"github.com/sandyland/sams-core/internal/kernel"
	"github.com/sandyland/sams-core/internal/store"
)

// StatementRow is one line of a statement of account: a synthesized charge
// or a payment broken down by the obligation it was applied against.
type StatementRow struct {
	Date           time.Time
	Kind           string // "charge" | "payment"
	Description    string
	Amount         kernel.Centavos // positive for a charge, negative for a payment
	RunningBalance kernel.Centavos
	TransactionID  string
}

// StatementOfAccount is the full chronological ledger for one unit's
// fiscal year, per §4.M.
type StatementOfAccount struct {
	TenantID     string
	UnitID       string
	FiscalYear   int
	Rows         []StatementRow
	CreditBalance kernel.Centavos
	FinalBalance kernel.Centavos
}

// SpecialAssessmentsTable separates special-assessment collections from
// expenditures, per §4.M step 4's third table.
type SpecialAssessmentsTable struct {
	Collections  kernel.Centavos
	Expenditures kernel.Centavos
	Net          kernel.Centavos
}

// BudgetVarianceReport is the budget-vs-actual result for one fiscal year.
type BudgetVarianceReport struct {
	TenantID           string
	FiscalYear         int
	Categories         []domain.CategoryVariance
	SpecialAssessments SpecialAssessmentsTable
	NetFundBalance     kernel.Centavos
}

// ReportAggregator implements §4.M: statement of account and budget vs.
// actual, built by reading the ledger rather than maintaining its own state.
type ReportAggregator struct {
	store            store.Store
	credit           *CreditBalanceService
	fiscalStartMonth int
	tenantLoc        *time.Location
}

// NewReportAggregator wires a ReportAggregator.
func NewReportAggregator(s store.Store, credit *CreditBalanceService, fiscalStartMonth int, loc *time.Location) *ReportAggregator {
	return &ReportAggregator{store: s, credit: credit, fiscalStartMonth: fiscalStartMonth, tenantLoc: loc}
}

// StatementOfAccount builds the chronological ledger for (tenant, unitId,
// fiscalYear), visible as of asOfDate (defaults to now if zero).
func (r *ReportAggregator) StatementOfAccount(ctx context.Context, tenantID, unitID string, fiscalYear int, asOfDate time.Time, frequency domain.DuesFrequency) (StatementOfAccount, error) {
	if asOfDate.IsZero() {
		asOfDate = time.Now().In(r.tenantLoc)
	}

	var rows []StatementRow

	duesData, err := r.store.Get(ctx, duesPath(tenantID, unitID, fiscalYear))
	if err != nil && err != store.ErrNotFound {
		return StatementOfAccount{}, apperr.Wrap(apperr.StoreTimeout, err, "read dues record")
	}
	if duesData != nil {
		var rec domain.HOADuesRecord
		if err := store.FromDoc(duesData, &rec); err != nil {
			return StatementOfAccount{}, apperr.Wrap(apperr.Internal, err, "unmarshal dues record")
		}
		for i, slot := range rec.Payments {
			if !rec.VisibleMonth(i, asOfDate, frequency) {
				continue
			}
			effectiveDue := slot.DueDate
			if effectiveDue == nil {
				quarterFirst := rec.Payments[(i/3)*3].DueDate
				effectiveDue = quarterFirst
			}
			if effectiveDue == nil {
				continue
			}
			rows = append(rows, StatementRow{
				Date:        *effectiveDue,
				Kind:        "charge",
				Description: fmt.Sprintf("HOA Dues - Month %d", slot.Month),
				Amount:      kernel.Centavos(slot.Amount),
			})
		}
	}

	for q := 1; q <= 4; q++ {
		data, err := r.store.Get(ctx, waterBillPath(tenantID, fiscalYear, q))
		if err != nil {
			if err == store.ErrNotFound {
				continue
			}
			return StatementOfAccount{}, apperr.Wrap(apperr.StoreTimeout, err, "read water bill")
		}
		var bill domain.WaterBill
		if err := store.FromDoc(data, &bill); err != nil {
			return StatementOfAccount{}, apperr.Wrap(apperr.Internal, err, "unmarshal water bill")
		}
		entry, ok := bill.Units[unitID]
		if !ok {
			continue
		}
		if bill.DueDate.After(asOfDate) {
			continue
		}
		rows = append(rows, StatementRow{
			Date:        bill.DueDate,
			Kind:        "charge",
			Description: bill.DocID() + " Water Bill",
			Amount:      kernel.Centavos(entry.TotalAmount()),
		})
	}

	docs, err := r.store.Query(ctx, transactionsCollection(tenantID), []store.Predicate{
		{Field: "unitId", Op: store.OpEqual, Value: unitID},
	}, nil, 0)
	if err != nil {
		return StatementOfAccount{}, apperr.Wrap(apperr.StoreTimeout, err, "query transactions")
	}
	for _, d := range docs {
		var tx domain.Transaction
		if err := store.FromDoc(d.Data, &tx); err != nil {
			return StatementOfAccount{}, apperr.Wrap(apperr.Internal, err, "unmarshal transaction")
		}
		if tx.Date.After(asOfDate) {
			continue
		}
		for _, a := range tx.Allocations {
			switch a.Type {
			case domain.AllocationHOAMonth, domain.AllocationWaterConsumption, domain.AllocationWaterPenalty:
				rows = append(rows, StatementRow{
					Date:          tx.Date,
					Kind:          "payment",
					Description:   a.TargetName,
					Amount:        -kernel.Centavos(a.Amount),
					TransactionID: tx.DocID,
				})
			}
		}
	}

	sortStatementRows(rows)

	var running kernel.Centavos
	for i := range rows {
		running += rows[i].Amount
		rows[i].RunningBalance = running
	}

	var creditBalance kernel.Centavos
	if r.credit != nil {
		creditBalance, err = r.credit.Preview(ctx, tenantID, unitID)
		if err != nil {
			return StatementOfAccount{}, err
		}
	}

	return StatementOfAccount{
		TenantID:      tenantID,
		UnitID:        unitID,
		FiscalYear:    fiscalYear,
		Rows:          rows,
		CreditBalance: creditBalance,
		FinalBalance:  running - creditBalance,
	}, nil
}

// CorruptTransactions lists every transaction flagged corrupt at import
// time (a legacy -split- record whose allocations were never exported),
// so an operator can locate and repair them.
func (r *ReportAggregator) CorruptTransactions(ctx context.Context, tenantID string) ([]domain.Transaction, error) {
	docs, err := r.store.ListDocs(ctx, transactionsCollection(tenantID))
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreTimeout, err, "list transactions")
	}
	var out []domain.Transaction
	for _, d := range docs {
		var tx domain.Transaction
		if err := store.FromDoc(d.Data, &tx); err != nil {
			return nil, apperr.Wrap(apperr.Internal, err, "unmarshal transaction")
		}
		if tx.Corrupt {
			out = append(out, tx)
		}
	}
	return out, nil
}

// sortStatementRows orders by civil date, charges before payments on the
// same date.
func sortStatementRows(rows []StatementRow) {
	for i := 1; i < len(rows); i++ {
		for j := i; j > 0 && rowLess(rows[j], rows[j-1]); j-- {
			rows[j], rows[j-1] = rows[j-1], rows[j]
		}
	}
}

func rowLess(a, b StatementRow) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	if a.Kind == b.Kind {
		return false
	}
	return a.Kind == "charge"
}

// BudgetVsActual aggregates actuals per category against prorated annual
// budgets for (tenant, fiscalYear), per §4.M.
func (r *ReportAggregator) BudgetVsActual(ctx context.Context, tenantID string, fiscalYear int, now time.Time) (BudgetVarianceReport, error) {
	budgetDocs, err := r.store.ListDocs(ctx, budgetsCollection(tenantID, fiscalYear))
	if err != nil {
		return BudgetVarianceReport{}, apperr.Wrap(apperr.StoreTimeout, err, "list budgets")
	}
	budgets := make([]domain.Budget, 0, len(budgetDocs))
	for _, d := range budgetDocs {
		var b domain.Budget
		if err := store.FromDoc(d.Data, &b); err != nil {
			return BudgetVarianceReport{}, apperr.Wrap(apperr.Internal, err, "unmarshal budget")
		}
		budgets = append(budgets, b)
	}

	start, end := kernel.FiscalYearBounds(fiscalYear, r.fiscalStartMonth, r.tenantLoc)
	txDocs, err := r.store.ListDocs(ctx, transactionsCollection(tenantID))
	if err != nil {
		return BudgetVarianceReport{}, apperr.Wrap(apperr.StoreTimeout, err, "list transactions")
	}

	actuals := make(map[string]int64)
	for _, d := range txDocs {
		var tx domain.Transaction
		if err := store.FromDoc(d.Data, &tx); err != nil {
			return BudgetVarianceReport{}, apperr.Wrap(apperr.Internal, err, "unmarshal transaction")
		}
		if tx.Date.Before(start) || tx.Date.After(end) {
			continue
		}
		if tx.CategoryID == domain.SplitCategoryID {
			for _, a := range tx.Allocations {
				actuals[a.CategoryID] += a.Amount
			}
			continue
		}
		actuals[tx.CategoryID] += tx.Amount
	}

	percentElapsed := kernel.PercentOfYearElapsed(now, start, end)

	var report BudgetVarianceReport
	report.TenantID = tenantID
	report.FiscalYear = fiscalYear

	specialCollected := make(map[string]bool)
	for _, b := range budgets {
		ytdBudget := int64(float64(b.AnnualAmount) * percentElapsed)
		ytdActual := actuals[b.CategoryID]

		var variance int64
		if b.CategoryType == domain.CategoryTypeIncome {
			variance = ytdActual - ytdBudget
		} else {
			absActual := ytdActual
			if absActual < 0 {
				absActual = -absActual
			}
			variance = ytdBudget - absActual
		}

		if domain.IsSpecialAssessment(b.CategoryID) {
			specialCollected[b.CategoryID] = true
			if b.CategoryType == domain.CategoryTypeIncome {
				report.SpecialAssessments.Collections += kernel.Centavos(ytdActual)
			} else {
				report.SpecialAssessments.Expenditures += kernel.Centavos(-ytdActual)
			}
			continue
		}

		report.Categories = append(report.Categories, domain.CategoryVariance{
			CategoryID:   b.CategoryID,
			CategoryType: b.CategoryType,
			AnnualBudget: b.AnnualAmount,
			YTDBudget:    ytdBudget,
			YTDActual:    ytdActual,
			Variance:     variance,
			Favorable:    variance >= 0,
		})
	}

	// Special-assessment categories with actuals but no budget entry still
	// belong in the third table.
	for categoryID, amount := range actuals {
		if !domain.IsSpecialAssessment(categoryID) || specialCollected[categoryID] {
			continue
		}
		if amount >= 0 {
			report.SpecialAssessments.Collections += kernel.Centavos(amount)
		} else {
			report.SpecialAssessments.Expenditures += kernel.Centavos(-amount)
		}
	}
	report.SpecialAssessments.Net = report.SpecialAssessments.Collections - report.SpecialAssessments.Expenditures

	var netFund kernel.Centavos
	for categoryID, amount := range actuals {
		if domain.IsSpecialAssessment(categoryID) {
			continue
		}
		netFund += kernel.Centavos(amount)
	}
	report.NetFundBalance = netFund + report.SpecialAssessments.Net

	return report, nil
}
