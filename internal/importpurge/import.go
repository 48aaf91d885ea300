// Package importpurge implements §4.L: the fixed-sequence legacy-data
// importer and the recursive tenant purge, both driven off the
// document-store port and reporting progress through the same WebSocket
// Hub the rest of the module publishes through.
package importpurge

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sandyland/sams-core/internal/apperr"
	"github.com/sandyland/sams-core/internal/audit"
	"github.com/sandyland/sams-core/internal/domain"
	"github.com/sandyland/sams-core/internal/jobslot"
	"github.com/sandyland/sams-core/internal/store"
	"github.com/sandyland/sams-core/internal/websocket"
	"github.com/sandyland/sams-core/internal/xref"
)

// importStepNames enumerates the fixed sequence, in order. The sequence is
// closed: no optional steps, no reordering.
var importStepNames = []string{
	"Client", "Config", "PaymentMethods", "Categories", "Vendors",
	"Units", "YearEndBalances", "Transactions", "HOADues", "WaterBills",
}

// Importer runs one tenant's legacy-data import per §4.L.
type Importer struct {
	store     store.Store
	audit     *audit.Log
	jobs      *jobslot.Registry
	publisher websocket.EventPublisher
}

// NewImporter wires an Importer.
func NewImporter(s store.Store, auditLog *audit.Log, jobs *jobslot.Registry) *Importer {
	return &Importer{store: s, audit: auditLog, jobs: jobs, publisher: &websocket.NoOpPublisher{}}
}

// SetEventPublisher wires a WebSocket publisher for real-time progress.
func (im *Importer) SetEventPublisher(pub websocket.EventPublisher) {
	im.publisher = pub
}

func importMetaPath(tenantID, importID string) string {
	return fmt.Sprintf("clients/%s/importRuns/%s", tenantID, importID)
}

func tenantRootPath(tenantID string) string {
	return fmt.Sprintf("clients/%s", tenantID)
}

func configPath(tenantID string) string {
	return fmt.Sprintf("clients/%s/config", tenantID)
}

func namedDocCollectionPath(tenantID, collection string) string {
	return fmt.Sprintf("clients/%s/%s", tenantID, collection)
}

func unitPath(tenantID, unitID string) string {
	return fmt.Sprintf("clients/%s/units/%s", tenantID, unitID)
}

func transactionPath(tenantID, docID string) string {
	return fmt.Sprintf("clients/%s/transactions/%s", tenantID, docID)
}

func duesPath(tenantID, unitID string, fiscalYear int) string {
	return fmt.Sprintf("clients/%s/units/%s/dues/%04d", tenantID, unitID, fiscalYear)
}

func waterBillPath(tenantID string, fiscalYear, quarter int) string {
	return fmt.Sprintf("clients/%s/projects/waterBills/bills/%d-Q%d", tenantID, fiscalYear, quarter)
}

// Run executes the fixed import sequence for tenantID against bundle,
// halting at the first step that fails. userID is the acting principal
// recorded on the audit trail.
func (im *Importer) Run(ctx context.Context, tenantID string, bundle Bundle, userID string) (domain.ImportMetadata, error) {
	if bundle.Client.ClientID != tenantID {
		err := apperr.Wrap(apperr.SafetyCheckFailed, domain.ErrClientIDMismatch,
			fmt.Sprintf("Client.json clientId %q does not match target tenant %q", bundle.Client.ClientID, tenantID))
		_ = im.audit.RecordFatal(ctx, audit.Entry{
			TenantID: tenantID, Module: "import", Action: "safety-check-failed",
			ParentPath: tenantRootPath(tenantID), UserID: userID, Notes: err.Error(),
		})
		return domain.ImportMetadata{}, err
	}

	if !im.jobs.TryAcquire(tenantID, "import") {
		return domain.ImportMetadata{}, apperr.New(apperr.Conflict, "an import or purge is already running for this tenant")
	}
	defer im.jobs.Release(tenantID, "import")

	xr := xref.New()
	meta := domain.ImportMetadata{
		TenantID:  tenantID,
		ImportID:  uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	for _, name := range importStepNames {
		meta.Steps = append(meta.Steps, domain.ImportStepResult{Name: name, Status: domain.ImportStepPending})
	}

	steps := []func(context.Context, string, Bundle, *xref.Table) (processed, succeeded, failed int, err error){
		im.stepClient, im.stepConfig, im.stepPaymentMethods, im.stepCategories, im.stepVendors,
		im.stepUnits, im.stepYearEndBalances, im.stepTransactions, im.stepHOADues, im.stepWaterBills,
	}

	var runErr error
	for i, step := range steps {
		meta.Steps[i].Status = domain.ImportStepRunning
		im.persistMeta(ctx, meta)

		processed, succeeded, failed, err := step(ctx, tenantID, bundle, xr)
		meta.Steps[i].Processed = processed
		meta.Steps[i].Succeeded = succeeded
		meta.Steps[i].Failed = failed
		if processed > 0 {
			meta.Steps[i].Percent = float64(succeeded) / float64(processed) * 100
		} else {
			meta.Steps[i].Percent = 100
		}

		if err != nil {
			meta.Steps[i].Status = domain.ImportStepFailed
			runErr = fmt.Errorf("step %s: %w", importStepNames[i], err)
			im.persistMeta(ctx, meta)
			im.publisher.Publish(tenantID, websocket.ImportProgress(stepSummary(importStepNames[i], meta.Steps[i])))
			break
		}
		meta.Steps[i].Status = domain.ImportStepDone
		im.persistMeta(ctx, meta)
		im.publisher.Publish(tenantID, websocket.ImportProgress(stepSummary(importStepNames[i], meta.Steps[i])))
	}

	ended := time.Now().UTC()
	meta.EndedAt = &ended
	im.persistMeta(ctx, meta)

	if runErr != nil {
		if err := im.audit.RecordFatal(ctx, audit.Entry{
			TenantID: tenantID, Module: "import", Action: "failed",
			ParentPath: tenantRootPath(tenantID), DocID: meta.ImportID, UserID: userID, Notes: runErr.Error(),
		}); err != nil {
			return meta, err
		}
		im.publisher.Publish(tenantID, websocket.ImportFailed(map[string]interface{}{"importId": meta.ImportID, "error": runErr.Error()}))
		return meta, runErr
	}

	if err := im.audit.RecordFatal(ctx, audit.Entry{
		TenantID: tenantID, Module: "import", Action: "complete",
		ParentPath: tenantRootPath(tenantID), DocID: meta.ImportID, UserID: userID,
	}); err != nil {
		return meta, err
	}
	im.publisher.Publish(tenantID, websocket.ImportComplete(map[string]interface{}{"importId": meta.ImportID}))
	return meta, nil
}

func stepSummary(name string, r domain.ImportStepResult) map[string]interface{} {
	return map[string]interface{}{
		"step": name, "status": r.Status, "processed": r.Processed,
		"succeeded": r.Succeeded, "failed": r.Failed, "percent": r.Percent,
	}
}

func (im *Importer) persistMeta(ctx context.Context, meta domain.ImportMetadata) {
	doc, err := store.ToDoc(meta)
	if err != nil {
		return
	}
	_ = im.store.Set(ctx, importMetaPath(meta.TenantID, meta.ImportID), doc)
}

func (im *Importer) stepClient(ctx context.Context, tenantID string, b Bundle, _ *xref.Table) (int, int, int, error) {
	doc, err := store.ToDoc(map[string]interface{}{
		"id":                   b.Client.ClientID,
		"displayCurrency":      b.Client.DisplayCurrency,
		"fiscalYearStartMonth": b.Client.FiscalYearStartMonth,
		"duesFrequency":        b.Client.DuesFrequency,
		"duesGraceDays":        b.Client.DuesGraceDays,
	})
	if err != nil {
		return 1, 0, 1, err
	}
	if err := im.store.Set(ctx, tenantRootPath(tenantID), doc); err != nil {
		return 1, 0, 1, err
	}
	return 1, 1, 0, nil
}

func (im *Importer) stepConfig(ctx context.Context, tenantID string, b Bundle, _ *xref.Table) (int, int, int, error) {
	if b.Config == nil {
		return 0, 0, 0, nil
	}
	doc, err := store.ToDoc(b.Config)
	if err != nil {
		return 1, 0, 1, err
	}
	if err := im.store.Set(ctx, configPath(tenantID), doc); err != nil {
		return 1, 0, 1, err
	}
	return 1, 1, 0, nil
}

func (im *Importer) writeNamedDocs(ctx context.Context, tenantID, collection string, docs []NamedDoc) (int, int, int, error) {
	processed, succeeded := 0, 0
	for _, d := range docs {
		processed++
		fields := d.Fields
		if fields == nil {
			fields = map[string]interface{}{}
		}
		fields["id"] = d.ID
		doc, err := store.ToDoc(fields)
		if err != nil {
			return processed, succeeded, processed - succeeded, err
		}
		path := fmt.Sprintf("%s/%s", namedDocCollectionPath(tenantID, collection), d.ID)
		if err := im.store.Set(ctx, path, doc); err != nil {
			return processed, succeeded, processed - succeeded, err
		}
		succeeded++
	}
	return processed, succeeded, processed - succeeded, nil
}

func (im *Importer) stepPaymentMethods(ctx context.Context, tenantID string, b Bundle, _ *xref.Table) (int, int, int, error) {
	return im.writeNamedDocs(ctx, tenantID, "paymentMethods", b.PaymentMethods)
}

func (im *Importer) stepCategories(ctx context.Context, tenantID string, b Bundle, _ *xref.Table) (int, int, int, error) {
	return im.writeNamedDocs(ctx, tenantID, "categories", b.Categories)
}

func (im *Importer) stepVendors(ctx context.Context, tenantID string, b Bundle, _ *xref.Table) (int, int, int, error) {
	return im.writeNamedDocs(ctx, tenantID, "vendors", b.Vendors)
}

func (im *Importer) stepYearEndBalances(ctx context.Context, tenantID string, b Bundle, _ *xref.Table) (int, int, int, error) {
	return im.writeNamedDocs(ctx, tenantID, "yearEndBalances", b.YearEndBalances)
}

func (im *Importer) stepUnits(ctx context.Context, tenantID string, b Bundle, _ *xref.Table) (int, int, int, error) {
	processed, succeeded := 0, 0
	for _, u := range b.Units {
		processed++
		unit := domain.Unit{
			TenantID:            tenantID,
			UnitID:              u.UnitID,
			UnitNumber:          u.UnitNumber,
			Owners:              u.Owners,
			Managers:            u.Managers,
			ScheduledDuesAmount: u.ScheduledDuesAmount,
		}
		doc, err := store.ToDoc(unit)
		if err != nil {
			return processed, succeeded, processed - succeeded, err
		}
		if err := im.store.Set(ctx, unitPath(tenantID, u.UnitID), doc); err != nil {
			return processed, succeeded, processed - succeeded, err
		}
		succeeded++
	}
	return processed, succeeded, processed - succeeded, nil
}

// stepTransactions writes every legacy transaction and builds the Cross-
// Reference Store entries for records carrying a paySeq tag.
func (im *Importer) stepTransactions(ctx context.Context, tenantID string, b Bundle, xr *xref.Table) (int, int, int, error) {
	processed, succeeded := 0, 0
	for _, t := range b.Transactions {
		processed++
		docID := t.DocID
		if docID == "" {
			return processed, succeeded, processed - succeeded, apperr.New(apperr.InvalidInput, "transaction record missing docId")
		}
		tx := domain.Transaction{
			TenantID: tenantID, DocID: docID, Date: t.Date, Amount: t.Amount,
			CategoryID: t.CategoryID, Allocations: t.Allocations, PaymentMethod: t.PaymentMethod,
			AccountID: t.AccountID, Vendor: t.Vendor, UnitID: t.UnitID, Notes: t.Notes,
			PaySeq: t.PaySeq, CreatedAt: t.Date,
		}
		if tx.CategoryID == domain.SplitCategoryID && len(tx.Allocations) == 0 {
			// Legacy export data sometimes carries a -split- transaction whose
			// allocations were never exported. Flag it rather than reject the
			// import outright; it still shows up in the ledger, just marked.
			tx.Corrupt = true
		}
		doc, err := store.ToDoc(tx)
		if err != nil {
			return processed, succeeded, processed - succeeded, err
		}
		if err := im.store.Set(ctx, transactionPath(tenantID, docID), doc); err != nil {
			return processed, succeeded, processed - succeeded, err
		}
		xr.Put(t.PaySeq, xref.Entry{TransactionID: docID, UnitID: t.UnitID, Amount: t.Amount, Date: t.Date})
		succeeded++
	}
	return processed, succeeded, processed - succeeded, nil
}

// stepHOADues consumes the Cross-Reference Store to attach the resolved
// transactionId to every slot that carried a legacy paySeq.
func (im *Importer) stepHOADues(ctx context.Context, tenantID string, b Bundle, xr *xref.Table) (int, int, int, error) {
	processed, succeeded := 0, 0
	for _, f := range b.HOADues {
		processed++
		rec := domain.HOADuesRecord{
			TenantID: tenantID, UnitID: f.UnitID, FiscalYear: f.FiscalYear, ScheduledAmount: f.ScheduledAmount,
		}
		for _, slot := range f.Slots {
			i := slot.Month - 1
			if i < 0 || i > 11 {
				continue
			}
			txID := ""
			if entry, ok := xr.Get(slot.PaySeq); ok {
				txID = entry.TransactionID
			}
			rec.Payments[i] = domain.DuesPayment{
				Month: slot.Month, Amount: slot.Amount, BasePaid: slot.BasePaid, PenaltyPaid: slot.PenaltyPaid,
				Date: slot.Date, Paid: slot.Paid, DueDate: slot.DueDate, TransactionID: txID, Notes: slot.Notes,
			}
		}
		rec.RecomputeTotalPaid()
		doc, err := store.ToDoc(rec)
		if err != nil {
			return processed, succeeded, processed - succeeded, err
		}
		if err := im.store.Set(ctx, duesPath(tenantID, f.UnitID, f.FiscalYear), doc); err != nil {
			return processed, succeeded, processed - succeeded, err
		}
		succeeded++
	}
	return processed, succeeded, processed - succeeded, nil
}

// stepWaterBills consumes the Cross-Reference Store the same way stepHOADues
// does, resolving each legacy payment's paySeq to its new transactionId.
func (im *Importer) stepWaterBills(ctx context.Context, tenantID string, b Bundle, xr *xref.Table) (int, int, int, error) {
	processed, succeeded := 0, 0
	for _, f := range b.WaterBills {
		processed++
		bill := domain.WaterBill{
			TenantID: tenantID, FiscalYear: f.FiscalYear, FiscalQuarter: f.FiscalQuarter,
			BillDate: f.BillDate, DueDate: f.DueDate, Units: make(map[string]*domain.WaterBillUnitEntry, len(f.Units)),
		}
		for _, u := range f.Units {
			entry := &domain.WaterBillUnitEntry{
				PriorReading: u.PriorReading, CurrentReading: u.CurrentReading, Consumption: u.Consumption,
				CarWashCount: u.CarWashCount, BoatWashCount: u.BoatWashCount,
				CurrentCharge: u.CurrentCharge, PenaltyAmount: u.PenaltyAmount,
			}
			var paidTotal int64
			for _, p := range u.Payments {
				txID := ""
				if e, ok := xr.Get(p.PaySeq); ok {
					txID = e.TransactionID
				}
				entry.Payments = append(entry.Payments, domain.WaterBillPayment{
					TransactionID: txID, Amount: p.Amount, BaseChargePaid: p.BaseChargePaid,
					PenaltyPaid: p.PenaltyPaid, Date: p.Date,
				})
				paidTotal += p.Amount
			}
			entry.PaidAmount = paidTotal
			if paidTotal >= entry.TotalAmount() {
				entry.Status = domain.BillStatusPaid
			} else {
				entry.Status = domain.BillStatusUnpaid
			}
			bill.Units[u.UnitID] = entry
		}
		doc, err := store.ToDoc(bill)
		if err != nil {
			return processed, succeeded, processed - succeeded, err
		}
		if err := im.store.Set(ctx, waterBillPath(tenantID, f.FiscalYear, f.FiscalQuarter), doc); err != nil {
			return processed, succeeded, processed - succeeded, err
		}
		succeeded++
	}
	return processed, succeeded, processed - succeeded, nil
}
