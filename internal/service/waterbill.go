package service

import (
	"context"
	"time"

	"github.com/sandyland/sams-core/internal/apperr"
	"github.com/sandyland/sams-core/internal/domain"
	"github.com/sandyland/sams-core/internal/kernel"
	"github.com/sandyland/sams-core/internal/store"
	"github.com/sandyland/sams-core/internal/websocket"
)

// WaterBillGenerator implements §4.I: quarterly consumption billing plus
// payment application and reversal against a generated bill.
type WaterBillGenerator struct {
	store            store.Store
	readings         *WaterReadingsService
	penalty          *PenaltyRecalculator
	fiscalStartMonth int
	tenantLoc        *time.Location
	publisher        websocket.EventPublisher
}

// NewWaterBillGenerator wires a WaterBillGenerator for a tenant's fiscal
// configuration.
func NewWaterBillGenerator(s store.Store, readings *WaterReadingsService, penalty *PenaltyRecalculator, fiscalStartMonth int, loc *time.Location) *WaterBillGenerator {
	return &WaterBillGenerator{
		store:            s,
		readings:         readings,
		penalty:          penalty,
		fiscalStartMonth: fiscalStartMonth,
		tenantLoc:        loc,
		publisher:        &websocket.NoOpPublisher{},
	}
}

// SetEventPublisher wires a WebSocket publisher for real-time updates.
func (g *WaterBillGenerator) SetEventPublisher(p websocket.EventPublisher) {
	g.publisher = p
}

// Get loads a generated bill by (fiscalYear, quarter).
func (g *WaterBillGenerator) Get(ctx context.Context, tenantID string, fiscalYear, quarter int) (domain.WaterBill, error) {
	data, err := g.store.Get(ctx, waterBillPath(tenantID, fiscalYear, quarter))
	if err != nil {
		if err == store.ErrNotFound {
			return domain.WaterBill{}, apperr.Wrap(apperr.NotFound, domain.ErrBillNotFound, "")
		}
		return domain.WaterBill{}, apperr.Wrap(apperr.StoreTimeout, err, "read water bill")
	}
	var bill domain.WaterBill
	if err := store.FromDoc(data, &bill); err != nil {
		return domain.WaterBill{}, apperr.Wrap(apperr.Internal, err, "unmarshal water bill")
	}
	return bill, nil
}

// Generate builds and persists the bill for fiscal quarter Q of fiscalYear,
// per the five steps of §4.I. units supplies the unit roster to bill; a unit
// absent from the latest month's readings is assumed unchanged since its
// last known reading (zero consumption), not silently dropped from the bill.
func (g *WaterBillGenerator) Generate(ctx context.Context, tenantID string, fiscalYear, quarter int, cfg domain.WaterConfig, units []domain.Unit, now time.Time) (domain.WaterBill, error) {
	if _, err := g.Get(ctx, tenantID, fiscalYear, quarter); err == nil {
		return domain.WaterBill{}, apperr.Wrap(apperr.Conflict, domain.ErrBillAlreadyExists, "")
	} else if apperr.KindOf(err) != apperr.NotFound {
		return domain.WaterBill{}, err
	}

	firstFM := (quarter - 1) * 3
	monthDocs := make([]domain.WaterReadings, 3)
	for i := 0; i < 3; i++ {
		fy, fm := fiscalYear, firstFM+i
		wr, err := g.readings.Get(ctx, tenantID, fy, fm)
		if err != nil {
			if apperr.KindOf(err) == apperr.NotFound {
				return domain.WaterBill{}, apperr.Wrap(apperr.InvalidInput, domain.ErrMissingReadings, "")
			}
			return domain.WaterBill{}, err
		}
		monthDocs[i] = wr
	}
	lastMonth := monthDocs[2]

	if g.penalty != nil {
		if _, err := g.penalty.RecalcTenant(ctx, tenantID, cfg, now); err != nil {
			return domain.WaterBill{}, err
		}
	}

	calYear, calMonth := kernel.FiscalQuarterStartMonth(fiscalYear, quarter, g.fiscalStartMonth)
	quarterStart := time.Date(calYear, time.Month(calMonth), 1, 0, 0, 0, 0, g.tenantLoc)
	dueDate := quarterStart.AddDate(0, 0, cfg.DueDay)

	bill := domain.WaterBill{
		TenantID:       tenantID,
		FiscalYear:     fiscalYear,
		FiscalQuarter:  quarter,
		BillDate:       now,
		DueDate:        dueDate,
		ConfigSnapshot: cfg,
		Units:          make(map[string]*domain.WaterBillUnitEntry, len(units)),
	}

	for _, unit := range units {
		prior, err := g.readings.PriorReading(ctx, tenantID, unit.UnitID, fiscalYear, firstFM)
		if err != nil {
			return domain.WaterBill{}, err
		}
		current, ok := lastMonth.Readings[unit.UnitID]
		if !ok {
			current = prior
		}

		raw := current - prior
		meterReset := false
		consumption := raw
		if raw < 0 {
			meterReset = true
			consumption = 0
		}

		var carWashCount, boatWashCount int
		for _, month := range monthDocs {
			carWashCount += month.CarWashCounts[unit.UnitID]
			boatWashCount += month.BoatWashCounts[unit.UnitID]
		}

		currentCharge := int64(consumption)*cfg.RatePerM3 + int64(carWashCount)*cfg.CarWashRate + int64(boatWashCount)*cfg.BoatWashRate
		if currentCharge < cfg.MinimumCharge {
			currentCharge = cfg.MinimumCharge
		}

		bill.Units[unit.UnitID] = &domain.WaterBillUnitEntry{
			PriorReading:   prior,
			CurrentReading: current,
			Consumption:    consumption,
			MeterReset:     meterReset,
			CarWashCount:   carWashCount,
			BoatWashCount:  boatWashCount,
			CurrentCharge:  currentCharge,
			PenaltyAmount:  0,
			PaidAmount:     0,
			Status:         domain.BillStatusUnpaid,
		}
	}

	doc, err := store.ToDoc(bill)
	if err != nil {
		return domain.WaterBill{}, apperr.Wrap(apperr.Internal, err, "marshal water bill")
	}
	if err := g.store.Set(ctx, waterBillPath(tenantID, fiscalYear, quarter), doc); err != nil {
		return domain.WaterBill{}, apperr.Wrap(apperr.StoreTimeout, err, "write water bill")
	}
	g.publisher.Publish(tenantID, websocket.WaterBillUpdated(map[string]interface{}{"docId": bill.DocID()}))

	return bill, nil
}

// ApplyPaymentInTx records a payment against one unit's bill entry within an
// already-open store transaction, for composition inside the Payment
// Distributor's atomic commit (§4.K).
func (g *WaterBillGenerator) ApplyPaymentInTx(txn store.Tx, tenantID string, fiscalYear, quarter int, unitID string, payment domain.WaterBillPayment) error {
	bill, err := g.getInTx(txn, tenantID, fiscalYear, quarter)
	if err != nil {
		return err
	}
	entry, ok := bill.Units[unitID]
	if !ok {
		return domain.ErrUnitNotFound
	}
	entry.PaidAmount += payment.Amount
	entry.Payments = append(entry.Payments, payment)
	if entry.PaidAmount >= entry.TotalAmount() {
		entry.Status = domain.BillStatusPaid
	}

	doc, err := store.ToDoc(bill)
	if err != nil {
		return err
	}
	return txn.Set(waterBillPath(tenantID, fiscalYear, quarter), doc)
}

// reversePaymentInTx undoes every payment entry recorded under txID across
// the unit's bills, clearing paidAmount and reopening status. Candidate
// quarters are scanned within a bounded window since Tx cannot list
// collections, mirroring HOADuesService.reverseInTx's approach.
func (g *WaterBillGenerator) reversePaymentInTx(txn store.Tx, tenantID, unitID, txID string) error {
	now := time.Now()
	for _, fy := range []int{now.Year() - 1, now.Year(), now.Year() + 1} {
		for q := 1; q <= 4; q++ {
			bill, err := g.getInTx(txn, tenantID, fy, q)
			if err != nil {
				if err == store.ErrNotFound {
					continue
				}
				return err
			}
			entry, ok := bill.Units[unitID]
			if !ok {
				continue
			}
			changed := false
			kept := entry.Payments[:0]
			for _, p := range entry.Payments {
				if p.TransactionID == txID {
					entry.PaidAmount -= p.Amount
					changed = true
					continue
				}
				kept = append(kept, p)
			}
			if !changed {
				continue
			}
			entry.Payments = kept
			if entry.PaidAmount < 0 {
				entry.PaidAmount = 0
			}
			if entry.PaidAmount < entry.TotalAmount() {
				entry.Status = domain.BillStatusUnpaid
			}
			doc, err := store.ToDoc(bill)
			if err != nil {
				return err
			}
			if err := txn.Set(waterBillPath(tenantID, fy, q), doc); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *WaterBillGenerator) getInTx(txn store.Tx, tenantID string, fiscalYear, quarter int) (domain.WaterBill, error) {
	data, err := txn.Get(waterBillPath(tenantID, fiscalYear, quarter))
	if err != nil {
		return domain.WaterBill{}, err
	}
	var bill domain.WaterBill
	if err := store.FromDoc(data, &bill); err != nil {
		return domain.WaterBill{}, err
	}
	return bill, nil
}
