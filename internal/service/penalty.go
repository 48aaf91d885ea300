package service

import (
	"context"
	"math"
	"time"

	"github.com/sandyland/sams-core/internal/apperr"
	"github.com/sandyland/sams-core/internal/domain"
	"github.com/sandyland/sams-core/internal/kernel"
	"github.com/sandyland/sams-core/internal/store"
	"github.com/sandyland/sams-core/internal/websocket"
)

// penaltyTolerance is the 1-centavo slack below which a recalculated
// penalty is considered unchanged, per §4.J rule 2.f.
const penaltyTolerance = kernel.Centavos(1)

// PenaltyRecalculatorTally counts outcomes across a recalculation pass,
// used for performance telemetry (§4.J rule 3).
type PenaltyRecalculatorTally struct {
	BillsExamined int
	UnitsUpdated  int
	UnitsSkipped  int
}

// PenaltyRecalculator implements §4.J: compounding monthly penalty on
// unpaid water-bill principal.
type PenaltyRecalculator struct {
	store     store.Store
	publisher websocket.EventPublisher
}

// NewPenaltyRecalculator wires a PenaltyRecalculator.
func NewPenaltyRecalculator(s store.Store) *PenaltyRecalculator {
	return &PenaltyRecalculator{store: s, publisher: &websocket.NoOpPublisher{}}
}

// SetEventPublisher wires a WebSocket publisher for real-time updates.
func (p *PenaltyRecalculator) SetEventPublisher(pub websocket.EventPublisher) {
	p.publisher = pub
}

// expectedPenalty computes the compounding (or linear) penalty owed on
// overduePrincipal after monthsLate full months of delinquency. The final
// total is rounded down to the centavo: penalty accrual always resolves
// exact halves in the owner's favor rather than away from zero.
func expectedPenalty(overduePrincipal kernel.Centavos, penaltyRate float64, monthsLate int, compound bool) kernel.Centavos {
	if overduePrincipal <= 0 || monthsLate <= 0 {
		return 0
	}
	if !compound {
		total := float64(overduePrincipal) * penaltyRate * float64(monthsLate)
		return kernel.Centavos(math.Floor(total))
	}
	runningTotal := float64(overduePrincipal)
	totalPenalty := 0.0
	for i := 0; i < monthsLate; i++ {
		monthly := runningTotal * penaltyRate
		totalPenalty += monthly
		runningTotal += monthly
	}
	return kernel.Centavos(math.Floor(totalPenalty))
}

// PreviewUnitPenalty computes the penalty entry would carry if recalculated
// as of asOf, without mutating anything. Used by the Payment Distributor's
// backdated-payment preview (§4.K): the persisted bill always reflects the
// true current penalty, never the backdated one.
func PreviewUnitPenalty(entry domain.WaterBillUnitEntry, dueDate time.Time, cfg domain.WaterConfig, asOf time.Time) kernel.Centavos {
	if entry.Status == domain.BillStatusPaid {
		return kernel.Centavos(entry.PenaltyAmount)
	}
	overdue := entry.CurrentCharge - entry.PaidAmount
	if overdue < 0 {
		overdue = 0
	}
	deadline := dueDate.AddDate(0, 0, cfg.PenaltyDays)
	if !deadline.Before(asOf) {
		return kernel.Centavos(entry.PenaltyAmount)
	}
	monthsLate := kernel.MonthsBetweenClamped(deadline, asOf)
	return expectedPenalty(kernel.Centavos(overdue), cfg.PenaltyRate, monthsLate, cfg.CompoundPenalty)
}

// RecalcTenant walks every unpaid-or-partially-paid water bill for the
// tenant and updates penaltyAmount where the recalculated value differs
// from the stored one by more than penaltyTolerance. now is a parameter so
// callers and tests control the evaluation instant; the Payment
// Distributor's non-mutating as-of preview uses PreviewUnitPenalty instead.
func (p *PenaltyRecalculator) RecalcTenant(ctx context.Context, tenantID string, cfg domain.WaterConfig, now time.Time) (PenaltyRecalculatorTally, error) {
	if cfg.PenaltyRate <= 0 || cfg.PenaltyDays <= 0 {
		return PenaltyRecalculatorTally{}, apperr.Wrap(apperr.ConfigError, domain.ErrConfigError, "penaltyRate/penaltyDays missing")
	}

	docs, err := p.store.ListDocs(ctx, waterBillsCollection(tenantID))
	if err != nil {
		return PenaltyRecalculatorTally{}, apperr.Wrap(apperr.StoreTimeout, err, "list water bills")
	}

	var tally PenaltyRecalculatorTally
	for _, d := range docs {
		var bill domain.WaterBill
		if err := store.FromDoc(d.Data, &bill); err != nil {
			return tally, apperr.Wrap(apperr.Internal, err, "unmarshal water bill")
		}
		tally.BillsExamined++

		deadline := bill.DueDate.AddDate(0, 0, cfg.PenaltyDays)
		if !deadline.Before(now) {
			tally.UnitsSkipped += len(bill.Units)
			continue
		}

		changed := false
		for _, entry := range bill.Units {
			if entry.Status == domain.BillStatusPaid {
				tally.UnitsSkipped++
				continue
			}
			overdue := entry.CurrentCharge - entry.PaidAmount
			if overdue < 0 {
				overdue = 0
			}
			monthsLate := kernel.MonthsBetweenClamped(deadline, now)
			newPenalty := expectedPenalty(kernel.Centavos(overdue), cfg.PenaltyRate, monthsLate, cfg.CompoundPenalty)

			diff := newPenalty - kernel.Centavos(entry.PenaltyAmount)
			if diff.Abs() > penaltyTolerance {
				entry.PenaltyAmount = int64(newPenalty)
				updatedAt := now
				entry.LastPenaltyUpdate = &updatedAt
				tally.UnitsUpdated++
				changed = true
			} else {
				tally.UnitsSkipped++
			}
		}

		if changed {
			doc, err := store.ToDoc(bill)
			if err != nil {
				return tally, apperr.Wrap(apperr.Internal, err, "marshal water bill")
			}
			if err := p.store.Set(ctx, waterBillPath(tenantID, bill.FiscalYear, bill.FiscalQuarter), doc); err != nil {
				return tally, apperr.Wrap(apperr.StoreTimeout, err, "write water bill")
			}
			p.publisher.Publish(tenantID, websocket.WaterBillUpdated(map[string]interface{}{"docId": bill.DocID()}))
		}
	}

	p.publisher.Publish(tenantID, websocket.PenaltyRecalcComplete(map[string]interface{}{
		"billsExamined": tally.BillsExamined,
		"unitsUpdated":  tally.UnitsUpdated,
		"unitsSkipped":  tally.UnitsSkipped,
	}))
	return tally, nil
}
