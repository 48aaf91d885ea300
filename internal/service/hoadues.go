package service

import (
	"context"
	"time"

	"github.com/sandyland/sams-core/internal/apperr"
	"github.com/sandyland/sams-core/internal/domain"
	"github.com/sandyland/sams-core/internal/kernel"
	"github.com/sandyland/sams-core/internal/store"
)

// HOADuesService implements §4.G: the fixed 12-slot payment ledger per
// (tenant, unitId, fiscalYear).
type HOADuesService struct {
	store            store.Store
	fiscalStartMonth int
	graceDays        int
	tenantLoc        *time.Location
}

// NewHOADuesService wires an HOADuesService for a tenant's fiscal
// configuration. The caller supplies fiscalStartMonth and graceDays;
// graceDays is stored but none of the service's methods reads it, so due
// dates carry no grace period. loc is the tenant's fixed civil timezone.
func NewHOADuesService(s store.Store, fiscalStartMonth, graceDays int, loc *time.Location) *HOADuesService {
	return &HOADuesService{store: s, fiscalStartMonth: fiscalStartMonth, graceDays: graceDays, tenantLoc: loc}
}

// ensureDueDates fills DuesPayment.DueDate for every slot of rec based on
// the tenant's billing frequency: monthly tenants get a due date on every
// slot; quarterly tenants carry the authoritative due date only on the
// first month of each quarter.
func (h *HOADuesService) ensureDueDates(rec *domain.HOADuesRecord, frequency domain.DuesFrequency) {
	for i := 0; i < 12; i++ {
		if frequency == domain.DuesFrequencyQuarterly && i%3 != 0 {
			rec.Payments[i].DueDate = nil
			continue
		}
		d := kernel.FiscalMonthStartDate(rec.FiscalYear, i, h.fiscalStartMonth, h.tenantLoc)
		rec.Payments[i].DueDate = &d
	}
}

// EnsureYear idempotently creates the 12-slot record for (tenantID,
// unitID, fiscalYear), copying scheduledAmount from the unit and seeding
// due dates. If the record already exists, it is returned unchanged.
func (h *HOADuesService) EnsureYear(ctx context.Context, tenantID string, unit domain.Unit, fiscalYear int, frequency domain.DuesFrequency) (domain.HOADuesRecord, error) {
	data, err := h.store.Get(ctx, duesPath(tenantID, unit.UnitID, fiscalYear))
	if err != nil && err != store.ErrNotFound {
		return domain.HOADuesRecord{}, apperr.Wrap(apperr.StoreTimeout, err, "read dues record")
	}
	if data != nil {
		var existing domain.HOADuesRecord
		if err := store.FromDoc(data, &existing); err != nil {
			return domain.HOADuesRecord{}, apperr.Wrap(apperr.Internal, err, "unmarshal dues record")
		}
		return existing, nil
	}

	rec := domain.HOADuesRecord{
		TenantID:        tenantID,
		UnitID:          unit.UnitID,
		FiscalYear:      fiscalYear,
		ScheduledAmount: unit.ScheduledDuesAmount,
	}
	for i := 0; i < 12; i++ {
		rec.Payments[i].Month = i + 1
		rec.Payments[i].Amount = unit.ScheduledDuesAmount
	}
	h.ensureDueDates(&rec, frequency)

	doc, err := store.ToDoc(rec)
	if err != nil {
		return domain.HOADuesRecord{}, apperr.Wrap(apperr.Internal, err, "marshal dues record")
	}
	if err := h.store.Set(ctx, duesPath(tenantID, unit.UnitID, fiscalYear), doc); err != nil {
		return domain.HOADuesRecord{}, apperr.Wrap(apperr.StoreTimeout, err, "write dues record")
	}
	return rec, nil
}

// MonthPayment is one slot's applied payment; RecordPayment takes a slice of
// them, one per fiscal month it writes.
type MonthPayment struct {
	Month       int
	Amount      kernel.Centavos
	BasePaid    kernel.Centavos
	PenaltyPaid kernel.Centavos
}

// RecordPayment writes the given slots atomically and recomputes totalPaid.
func (h *HOADuesService) RecordPayment(ctx context.Context, tenantID, unitID string, fiscalYear int, slots []MonthPayment, transactionID string, paymentDate time.Time) (domain.HOADuesRecord, error) {
	var result domain.HOADuesRecord
	err := h.store.RunTransaction(ctx, func(txn store.Tx) error {
		rec, err := h.getInTx(txn, tenantID, unitID, fiscalYear)
		if err != nil {
			return err
		}
		for _, s := range slots {
			i := s.Month - 1
			if i < 0 || i > 11 {
				continue
			}
			rec.Payments[i].Amount = int64(s.Amount)
			rec.Payments[i].BasePaid = int64(s.BasePaid)
			rec.Payments[i].PenaltyPaid = int64(s.PenaltyPaid)
			rec.Payments[i].TransactionID = transactionID
			rec.Payments[i].Date = &paymentDate
			rec.Payments[i].Paid = s.Amount > 0
		}
		rec.RecomputeTotalPaid()

		doc, err := store.ToDoc(rec)
		if err != nil {
			return err
		}
		if err := txn.Set(duesPath(tenantID, unitID, fiscalYear), doc); err != nil {
			return err
		}
		result = rec
		return nil
	})
	if err != nil {
		return domain.HOADuesRecord{}, apperr.Wrap(apperr.StoreTimeout, err, "record dues payment")
	}
	return result, nil
}

// ReversePayment clears every slot whose transactionId matches txID,
// setting amount=0 and paid=false, then recomputes totalPaid.
func (h *HOADuesService) ReversePayment(ctx context.Context, tenantID, unitID string, fiscalYear int, txID string) error {
	return h.store.RunTransaction(ctx, func(txn store.Tx) error {
		return h.reverseSlotsInTx(txn, tenantID, unitID, fiscalYear, txID)
	})
}

// reverseInTx is the compensating hook the Transaction Engine invokes from
// inside its own delete transaction. It must locate the fiscal year whose
// record actually contains txID; unlike ReversePayment, the caller does not
// know the fiscal year ahead of time, so it checks the unit's dues records
// for the fiscal years numbered one before, equal to and one after the
// current calendar year; a payment recorded in any other fiscal year is not
// reversed. This mirrors the teacher's narrow per-entity reversal helpers but
// adapted to the fixed-length slot array this spec requires.
func (h *HOADuesService) reverseInTx(txn store.Tx, tenantID, unitID, txID string) error {
	years, err := yearsForUnit(txn, tenantID, unitID)
	if err != nil {
		return err
	}
	for _, fy := range years {
		if err := h.reverseSlotsInTx(txn, tenantID, unitID, fy, txID); err != nil {
			return err
		}
	}
	return nil
}

func (h *HOADuesService) reverseSlotsInTx(txn store.Tx, tenantID, unitID string, fiscalYear int, txID string) error {
	rec, err := h.getInTx(txn, tenantID, unitID, fiscalYear)
	if err != nil {
		if err == store.ErrNotFound {
			return nil
		}
		return err
	}
	changed := false
	for i := range rec.Payments {
		if rec.Payments[i].TransactionID == txID {
			rec.Payments[i].Amount = 0
			rec.Payments[i].BasePaid = 0
			rec.Payments[i].PenaltyPaid = 0
			rec.Payments[i].Paid = false
			rec.Payments[i].TransactionID = ""
			rec.Payments[i].Date = nil
			changed = true
		}
	}
	if !changed {
		return nil
	}
	rec.RecomputeTotalPaid()
	doc, err := store.ToDoc(rec)
	if err != nil {
		return err
	}
	return txn.Set(duesPath(tenantID, unitID, fiscalYear), doc)
}

func (h *HOADuesService) getInTx(txn store.Tx, tenantID, unitID string, fiscalYear int) (domain.HOADuesRecord, error) {
	data, err := txn.Get(duesPath(tenantID, unitID, fiscalYear))
	if err != nil {
		return domain.HOADuesRecord{}, err
	}
	var rec domain.HOADuesRecord
	if err := store.FromDoc(data, &rec); err != nil {
		return domain.HOADuesRecord{}, err
	}
	return rec, nil
}

// yearsForUnit reports which of the fiscal years now.Year()-1, now.Year()
// and now.Year()+1 have a dues record for unitID; other years are not
// checked.
func yearsForUnit(txn interface {
	Get(path string) (map[string]interface{}, error)
}, tenantID, unitID string) ([]int, error) {
	// Tx has no ListDocs; the caller is expected to know candidate years in
	// practice (recent fiscal years). Bounded scan keeps this simple and
	// avoids widening the Tx interface just for this one reversal path.
	var years []int
	now := time.Now()
	for _, fy := range []int{now.Year() - 1, now.Year(), now.Year() + 1} {
		if _, err := txn.Get(duesPath(tenantID, unitID, fy)); err == nil {
			years = append(years, fy)
		} else if err != store.ErrNotFound {
			return nil, err
		}
	}
	return years, nil
}

// ListYear returns every unit's dues record for fiscalYear.
func (h *HOADuesService) ListYear(ctx context.Context, tenantID string, unitIDs []string, fiscalYear int) (map[string]domain.HOADuesRecord, error) {
	out := make(map[string]domain.HOADuesRecord, len(unitIDs))
	for _, unitID := range unitIDs {
		data, err := h.store.Get(ctx, duesPath(tenantID, unitID, fiscalYear))
		if err == store.ErrNotFound {
			continue
		}
		if err != nil {
			return nil, apperr.Wrap(apperr.StoreTimeout, err, "read dues record")
		}
		var rec domain.HOADuesRecord
		if err := store.FromDoc(data, &rec); err != nil {
			return nil, apperr.Wrap(apperr.Internal, err, "unmarshal dues record")
		}
		out[unitID] = rec
	}
	return out, nil
}
