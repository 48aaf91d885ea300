package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sandyland/sams-core/internal/apperr"
	"github.com/sandyland/sams-core/internal/audit"
	"github.com/sandyland/sams-core/internal/domain"
	"github.com/sandyland/sams-core/internal/kernel"
	"github.com/sandyland/sams-core/internal/store"
	"github.com/sandyland/sams-core/internal/websocket"
)

// Category IDs recorded on obligation allocations. These name the
// accounting category the allocation posts against; they are distinct
// from the allocation's type tag.
const (
	hoaDuesCategoryID          = "hoa_dues"
	waterConsumptionCategoryID = "water_consumption"
	waterPenaltyCategoryID     = "water_penalty"
)

// typePriority orders obligations of equal due date: penalties before
// consumption principal before HOA dues, per §4.K.
func typePriority(t domain.AllocationType) int {
	switch t {
	case domain.AllocationWaterPenalty:
		return 3
	case domain.AllocationWaterConsumption:
		return 2
	case domain.AllocationHOAMonth:
		return 1
	default:
		return 0
	}
}

// obligation is one open charge a payment can be applied against.
type obligation struct {
	Type        domain.AllocationType
	CategoryID  string
	DueDate     time.Time
	TargetName  string
	Outstanding kernel.Centavos

	// Routing back to the persisted entity this obligation was read from.
	waterFiscalYear  int
	waterQuarter     int
	duesFiscalYear   int
	duesMonth        int // 1-based
}

func sortObligations(obs []obligation) {
	sort.SliceStable(obs, func(i, j int) bool {
		if !obs[i].DueDate.Equal(obs[j].DueDate) {
			return obs[i].DueDate.Before(obs[j].DueDate)
		}
		return typePriority(obs[i].Type) > typePriority(obs[j].Type)
	})
}

// PaymentInput is the caller-supplied request to preview or commit a
// payment distribution.
type PaymentInput struct {
	TenantID       string
	UnitID         string
	Amount         kernel.Centavos
	AsOfDate       *time.Time
	SelectedMonth  *time.Time
	DuesFiscalYear int
	WaterConfig    domain.WaterConfig
	PaymentMethod  string
	AccountID      string
	Notes          string

	// PreviewSignature, when set, is the DistributionPlan.Signature a prior
	// Preview returned. Commit rejects with a Conflict/Stale error if the
	// obligations or credit balance it re-reads no longer match it.
	PreviewSignature string
}

// DistributionPlan is the full allocation plan produced by distribute(),
// returned from Preview and persisted (less the final docID) by Commit.
type DistributionPlan struct {
	Allocations        []domain.Allocation
	AppliedToBills     kernel.Centavos
	AppliedToPenalties kernel.Centavos
	CreditUsed         kernel.Centavos
	CreditAdded        kernel.Centavos
	NewCreditBalance   kernel.Centavos
	UnpaidRemaining    kernel.Centavos

	// Signature fingerprints the obligations and credit balance the plan
	// was built from. Commit recomputes it against freshly-read state and
	// rejects the commit as stale if a caller's prior Preview no longer
	// matches (§4.K commit step (a)).
	Signature string
}

// obligationSignature fingerprints the obligations and credit balance a
// plan was built from, so Commit can detect a changed-since-preview state.
func obligationSignature(obs []obligation, creditBalance kernel.Centavos) string {
	h := sha256.New()
	fmt.Fprintf(h, "credit:%d", int64(creditBalance))
	for _, o := range obs {
		fmt.Fprintf(h, "|%s:%s:%d", o.Type, o.TargetName, int64(o.Outstanding))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// PaymentDistributor implements §4.K: splitting one incoming payment across
// open obligations (water penalties, water principal, HOA dues) and the
// unit's credit balance.
type PaymentDistributor struct {
	store     store.Store
	ids       *kernel.IDGenerator
	credit    *CreditBalanceService
	dues      *HOADuesService
	waterBill *WaterBillGenerator
	audit     *audit.Log
	publisher websocket.EventPublisher
}

// NewPaymentDistributor wires a PaymentDistributor.
func NewPaymentDistributor(s store.Store, ids *kernel.IDGenerator, credit *CreditBalanceService, dues *HOADuesService, waterBill *WaterBillGenerator, auditLog *audit.Log) *PaymentDistributor {
	return &PaymentDistributor{
		store:     s,
		ids:       ids,
		credit:    credit,
		dues:      dues,
		waterBill: waterBill,
		audit:     auditLog,
		publisher: &websocket.NoOpPublisher{},
	}
}

// SetEventPublisher wires a WebSocket publisher for real-time updates.
func (p *PaymentDistributor) SetEventPublisher(pub websocket.EventPublisher) {
	p.publisher = pub
}

// buildObligations loads every open obligation for the unit: the HOA dues
// slots of DuesFiscalYear, and every not-yet-paid water bill entry across
// the four quarters of that same fiscal year. asOf, if set, previews
// penalties as of that instant without mutating the stored bill (§4.K).
func (p *PaymentDistributor) buildObligations(ctx context.Context, in PaymentInput, asOf time.Time) ([]obligation, error) {
	var obs []obligation

	if p.dues != nil {
		rec, err := p.dues.store.Get(ctx, duesPath(in.TenantID, in.UnitID, in.DuesFiscalYear))
		if err != nil && err != store.ErrNotFound {
			return nil, apperr.Wrap(apperr.StoreTimeout, err, "read dues record")
		}
		if rec != nil {
			var d domain.HOADuesRecord
			if err := store.FromDoc(rec, &d); err != nil {
				return nil, apperr.Wrap(apperr.Internal, err, "unmarshal dues record")
			}
			for i, slot := range d.Payments {
				outstanding := slot.Amount - slot.BasePaid - slot.PenaltyPaid
				if outstanding <= 0 {
					continue
				}
				if slot.DueDate == nil {
					continue
				}
				if in.SelectedMonth != nil && slot.DueDate.After(*in.SelectedMonth) {
					continue
				}
				obs = append(obs, obligation{
					Type:           domain.AllocationHOAMonth,
					CategoryID:     hoaDuesCategoryID,
					DueDate:        *slot.DueDate,
					TargetName:     "HOA Dues",
					Outstanding:    kernel.Centavos(outstanding),
					duesFiscalYear: in.DuesFiscalYear,
					duesMonth:      i + 1,
				})
			}
		}
	}

	if p.waterBill != nil {
		for q := 1; q <= 4; q++ {
			bill, err := p.waterBill.Get(ctx, in.TenantID, in.DuesFiscalYear, q)
			if err != nil {
				if apperr.KindOf(err) == apperr.NotFound {
					continue
				}
				return nil, err
			}
			entry, ok := bill.Units[in.UnitID]
			if !ok || entry.Status == domain.BillStatusPaid {
				continue
			}
			if in.SelectedMonth != nil && bill.DueDate.After(*in.SelectedMonth) {
				continue
			}

			penaltyAmount := entry.PenaltyAmount
			if in.AsOfDate != nil {
				penaltyAmount = int64(PreviewUnitPenalty(*entry, bill.DueDate, in.WaterConfig, asOf))
			}
			var basePaid, penaltyPaid int64
			for _, pay := range entry.Payments {
				basePaid += pay.BaseChargePaid
				penaltyPaid += pay.PenaltyPaid
			}
			penaltyOutstanding := penaltyAmount - penaltyPaid
			principalOutstanding := entry.CurrentCharge - basePaid

			if penaltyOutstanding > 0 {
				obs = append(obs, obligation{
					Type:            domain.AllocationWaterPenalty,
					CategoryID:      waterPenaltyCategoryID,
					DueDate:         bill.DueDate,
					TargetName:      bill.DocID() + " penalty",
					Outstanding:     kernel.Centavos(penaltyOutstanding),
					waterFiscalYear: in.DuesFiscalYear,
					waterQuarter:    q,
				})
			}
			if principalOutstanding > 0 {
				obs = append(obs, obligation{
					Type:            domain.AllocationWaterConsumption,
					CategoryID:      waterConsumptionCategoryID,
					DueDate:         bill.DueDate,
					TargetName:      bill.DocID(),
					Outstanding:     kernel.Centavos(principalOutstanding),
					waterFiscalYear: in.DuesFiscalYear,
					waterQuarter:    q,
				})
			}
		}
	}

	sortObligations(obs)
	return obs, nil
}

// distribute is the pure allocation algorithm of §4.K step 1-3. usedCredit
// is defined as the portion of creditBalance consumed beyond the tendered
// amount; creditAdded is the portion of the tendered amount left over after
// every obligation is satisfied. Untouched pre-existing credit is neither
// "used" nor "added" — it simply continues to sit in the balance, which
// keeps Σallocations == amount for the originating transaction even though
// the distribution pool itself is amount+creditBalance.
func distribute(obs []obligation, amount, creditBalance kernel.Centavos) DistributionPlan {
	pool := amount + creditBalance
	var plan DistributionPlan
	plan.Signature = obligationSignature(obs, creditBalance)

	for _, o := range obs {
		if pool <= 0 {
			break
		}
		pay := o.Outstanding
		if pay > pool {
			pay = pool
		}
		if pay <= 0 {
			continue
		}
		plan.Allocations = append(plan.Allocations, domain.Allocation{
			TargetName: o.TargetName,
			Type:       o.Type,
			CategoryID: o.CategoryID,
			Amount:     int64(pay),
		})
		pool -= pay
		switch o.Type {
		case domain.AllocationWaterPenalty:
			plan.AppliedToPenalties += pay
		case domain.AllocationWaterConsumption:
			plan.AppliedToBills += pay
		}
		if pool == 0 {
			break
		}
	}

	obligationsPaid := plan.AppliedToBills + plan.AppliedToPenalties
	for _, a := range plan.Allocations {
		if a.Type == domain.AllocationHOAMonth {
			obligationsPaid += kernel.Centavos(a.Amount)
		}
	}

	if obligationsPaid > amount {
		plan.CreditUsed = obligationsPaid - amount
		if plan.CreditUsed > creditBalance {
			plan.CreditUsed = creditBalance
		}
	} else {
		plan.CreditAdded = amount - obligationsPaid
	}

	if plan.CreditUsed > 0 {
		plan.Allocations = append(plan.Allocations, domain.Allocation{
			TargetName: "Credit Balance",
			Type:       domain.AllocationCreditUsed,
			CategoryID: "credit",
			Amount:     -int64(plan.CreditUsed),
		})
	}
	if plan.CreditAdded > 0 {
		plan.Allocations = append(plan.Allocations, domain.Allocation{
			TargetName: "Credit Balance",
			Type:       domain.AllocationCreditAdded,
			CategoryID: "credit",
			Amount:     int64(plan.CreditAdded),
		})
	}

	plan.NewCreditBalance = creditBalance - plan.CreditUsed + plan.CreditAdded

	var outstandingTotal kernel.Centavos
	for _, o := range obs {
		outstandingTotal += o.Outstanding
	}
	plan.UnpaidRemaining = outstandingTotal - obligationsPaid
	if plan.UnpaidRemaining < 0 {
		plan.UnpaidRemaining = 0
	}
	return plan
}

// Preview builds the allocation plan without writing anything.
func (p *PaymentDistributor) Preview(ctx context.Context, in PaymentInput) (DistributionPlan, error) {
	asOf := time.Now().UTC()
	if in.AsOfDate != nil {
		asOf = *in.AsOfDate
	}
	obs, err := p.buildObligations(ctx, in, asOf)
	if err != nil {
		return DistributionPlan{}, err
	}
	if len(obs) == 0 && in.Amount > 0 {
		return DistributionPlan{}, apperr.Wrap(apperr.InvalidInput, domain.ErrInsufficientObligations, "no open obligations for this unit")
	}

	cb, err := p.credit.Get(ctx, in.TenantID, in.UnitID)
	if err != nil {
		return DistributionPlan{}, err
	}
	return distribute(obs, in.Amount, kernel.Centavos(cb.Balance)), nil
}

// Commit reads the unit's open obligations just before its store
// transaction; inside that transaction it reads the credit balance,
// re-derives the plan and persists it: the transaction document, each
// obligation's bill/dues update, and the net credit delta. userID is the
// acting principal for the audit entry.
func (p *PaymentDistributor) Commit(ctx context.Context, in PaymentInput, userID string) (string, DistributionPlan, error) {
	asOf := time.Now().UTC()
	if in.AsOfDate != nil {
		asOf = *in.AsOfDate
	}
	obs, err := p.buildObligations(ctx, in, asOf)
	if err != nil {
		return "", DistributionPlan{}, err
	}

	var docID string
	var plan DistributionPlan
	err = p.store.RunTransaction(ctx, func(txn store.Tx) error {
		cbData, err := txn.Get(creditPath(in.TenantID, in.UnitID))
		if err != nil && err != store.ErrNotFound {
			return err
		}
		var cb domain.CreditBalance
		if cbData != nil {
			if err := store.FromDoc(cbData, &cb); err != nil {
				return err
			}
		}

		plan = distribute(obs, in.Amount, kernel.Centavos(cb.Balance))
		if in.PreviewSignature != "" && in.PreviewSignature != plan.Signature {
			return apperr.Wrap(apperr.Conflict, domain.ErrStale, "obligations or credit balance changed since preview")
		}

		docID = p.ids.TransactionID()
		tx := domain.Transaction{
			TenantID:      in.TenantID,
			DocID:         docID,
			Date:          time.Now().UTC(),
			Amount:        int64(in.Amount),
			CategoryID:    domain.SplitCategoryID,
			Allocations:   plan.Allocations,
			PaymentMethod: in.PaymentMethod,
			AccountID:     in.AccountID,
			UnitID:        in.UnitID,
			Notes:         in.Notes,
			CreatedAt:     time.Now().UTC(),
		}
		doc, err := store.ToDoc(tx)
		if err != nil {
			return err
		}
		if err := txn.Set(transactionPath(in.TenantID, docID), doc); err != nil {
			return err
		}

		for _, o := range obs {
			applied := allocationAmountFor(plan.Allocations, o)
			if applied <= 0 {
				continue
			}
			switch o.Type {
			case domain.AllocationHOAMonth:
				if err := applyDuesSlotInTx(txn, in.TenantID, in.UnitID, o.duesFiscalYear, o.duesMonth, applied, docID); err != nil {
					return err
				}
			case domain.AllocationWaterPenalty:
				if err := p.waterBill.ApplyPaymentInTx(txn, in.TenantID, o.waterFiscalYear, o.waterQuarter, in.UnitID, domain.WaterBillPayment{
					TransactionID: docID, Amount: applied, PenaltyPaid: applied, Date: tx.Date,
				}); err != nil {
					return err
				}
			case domain.AllocationWaterConsumption:
				if err := p.waterBill.ApplyPaymentInTx(txn, in.TenantID, o.waterFiscalYear, o.waterQuarter, in.UnitID, domain.WaterBillPayment{
					TransactionID: docID, Amount: applied, BaseChargePaid: applied, Date: tx.Date,
				}); err != nil {
					return err
				}
			}
		}

		netCreditDelta := plan.CreditAdded - plan.CreditUsed
		if netCreditDelta != 0 {
			if _, err := p.credit.ApplyInTx(txn, in.TenantID, in.UnitID, netCreditDelta, docID, "payment distribution"); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return "", DistributionPlan{}, err
		}
		return "", DistributionPlan{}, apperr.Wrap(apperr.StoreTimeout, err, "commit payment distribution")
	}

	p.audit.Record(ctx, audit.Entry{
		TenantID:   in.TenantID,
		Module:     "payments",
		Action:     "distribute",
		ParentPath: transactionsCollection(in.TenantID),
		DocID:      docID,
		UserID:     userID,
	})
	p.publisher.Publish(in.TenantID, websocket.TransactionCreated(map[string]interface{}{"docId": docID, "unitId": in.UnitID}))
	p.publisher.Publish(in.TenantID, websocket.CreditBalanceUpdated(map[string]interface{}{"unitId": in.UnitID, "balance": int64(plan.NewCreditBalance)}))

	return docID, plan, nil
}

// allocationAmountFor finds the allocation the distributor produced for a
// given obligation, matching on the identifying fields set in distribute.
func allocationAmountFor(allocations []domain.Allocation, o obligation) int64 {
	for _, a := range allocations {
		if a.Type == o.Type && a.TargetName == o.TargetName {
			return a.Amount
		}
	}
	return 0
}

// applyDuesSlotInTx fills one HOA dues slot's payment fields, splitting the
// applied amount between basePaid and penaltyPaid (dues carry no separate
// running penalty balance, so the full amount posts as basePaid).
func applyDuesSlotInTx(txn store.Tx, tenantID, unitID string, fiscalYear, month int, amount int64, transactionID string) error {
	data, err := txn.Get(duesPath(tenantID, unitID, fiscalYear))
	if err != nil {
		return err
	}
	var rec domain.HOADuesRecord
	if err := store.FromDoc(data, &rec); err != nil {
		return err
	}
	i := month - 1
	if i < 0 || i > 11 {
		return nil
	}
	rec.Payments[i].BasePaid += amount
	rec.Payments[i].TransactionID = transactionID
	now := time.Now().UTC()
	rec.Payments[i].Date = &now
	if rec.Payments[i].BasePaid+rec.Payments[i].PenaltyPaid >= rec.Payments[i].Amount {
		rec.Payments[i].Paid = true
	}
	rec.RecomputeTotalPaid()

	doc, err := store.ToDoc(rec)
	if err != nil {
		return err
	}
	return txn.Set(duesPath(tenantID, unitID, fiscalYear), doc)
}
