package service

import (
	"context"
	"time"

	"github.com/sandyland/sams-core/internal/apperr"
	"github.com/sandyland/sams-core/internal/audit"
	"github.com/sandyland/sams-core/internal/domain"
	"github.com/sandyland/sams-core/internal/kernel"
	"github.com/sandyland/sams-core/internal/store"
	"github.com/sandyland/sams-core/internal/websocket"
)

// splitTolerance is the ±1 centavo slack the split-sum invariant allows.
const splitTolerance = kernel.Centavos(1)

// TransactionDraft is the caller-supplied input to Create.
type TransactionDraft struct {
	Date          time.Time
	Amount        kernel.Centavos
	CategoryID    string
	Allocations   []domain.Allocation
	PaymentMethod string
	AccountID     string
	Vendor        string
	UnitID        string
	Notes         string
	PaySeq        string
}

// TransactionEngine implements create/query/split-validate/delete for
// financial transactions (§4.E).
type TransactionEngine struct {
	store     store.Store
	ids       *kernel.IDGenerator
	audit     *audit.Log
	publisher websocket.EventPublisher
	dues      *HOADuesService
	waterBill *WaterBillGenerator
}

// NewTransactionEngine wires a TransactionEngine. dues and waterBill supply
// the compensating-reversal hooks Delete must invoke within the same store
// transaction; either may be nil if that reversal path is not needed by
// the caller (e.g. import, which never deletes).
func NewTransactionEngine(s store.Store, ids *kernel.IDGenerator, auditLog *audit.Log, dues *HOADuesService, waterBill *WaterBillGenerator) *TransactionEngine {
	return &TransactionEngine{store: s, ids: ids, audit: auditLog, publisher: &websocket.NoOpPublisher{}, dues: dues, waterBill: waterBill}
}

// SetEventPublisher wires a WebSocket publisher for real-time updates.
func (e *TransactionEngine) SetEventPublisher(p websocket.EventPublisher) {
	e.publisher = p
}

func validateSplit(amount kernel.Centavos, categoryID string, allocations []domain.Allocation) error {
	if categoryID != domain.SplitCategoryID {
		return nil
	}
	if len(allocations) == 0 {
		return apperr.Wrap(apperr.Integrity, domain.ErrCorruptSplit, "split transaction has no allocations")
	}
	parts := make([]kernel.Centavos, len(allocations))
	for i, a := range allocations {
		parts[i] = kernel.Centavos(a.Amount)
	}
	if !kernel.SumWithinTolerance(amount, parts, splitTolerance) {
		return apperr.Wrap(apperr.Integrity, domain.ErrSplitSumMismatch, "allocation amounts do not sum to transaction amount")
	}
	return nil
}

// Create validates draft, assigns a document ID, writes the transaction,
// and records an audit entry.
func (e *TransactionEngine) Create(ctx context.Context, tenantID string, draft TransactionDraft, userID string) (string, error) {
	if draft.CategoryID != domain.SplitCategoryID && len(draft.Allocations) == 0 {
		// plain single-category transaction, nothing further to validate
	} else if err := validateSplit(draft.Amount, draft.CategoryID, draft.Allocations); err != nil {
		return "", err
	}

	docID := e.ids.TransactionID()
	tx := domain.Transaction{
		TenantID:      tenantID,
		DocID:         docID,
		Date:          draft.Date,
		Amount:        int64(draft.Amount),
		CategoryID:    draft.CategoryID,
		Allocations:   draft.Allocations,
		PaymentMethod: draft.PaymentMethod,
		AccountID:     draft.AccountID,
		Vendor:        draft.Vendor,
		UnitID:        draft.UnitID,
		Notes:         draft.Notes,
		PaySeq:        draft.PaySeq,
		CreatedAt:     time.Now().UTC(),
	}

	doc, err := store.ToDoc(tx)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, err, "marshal transaction")
	}
	if err := e.store.Set(ctx, transactionPath(tenantID, docID), doc); err != nil {
		return "", apperr.Wrap(apperr.StoreTimeout, err, "write transaction")
	}

	e.audit.Record(ctx, audit.Entry{
		TenantID:   tenantID,
		Module:     "transactions",
		Action:     "create",
		ParentPath: transactionsCollection(tenantID),
		DocID:      docID,
		UserID:     userID,
	})
	e.publisher.Publish(tenantID, websocket.TransactionCreated(map[string]interface{}{"docId": docID, "unitId": draft.UnitID}))

	return docID, nil
}

// Get loads one transaction by docID.
func (e *TransactionEngine) Get(ctx context.Context, tenantID, docID string) (*domain.Transaction, error) {
	data, err := e.store.Get(ctx, transactionPath(tenantID, docID))
	if err != nil {
		if err == store.ErrNotFound {
			return nil, apperr.Wrap(apperr.NotFound, domain.ErrTransactionNotFound, docID)
		}
		return nil, apperr.Wrap(apperr.StoreTimeout, err, "read transaction")
	}
	var tx domain.Transaction
	if err := store.FromDoc(data, &tx); err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "unmarshal transaction")
	}
	return &tx, nil
}

// List returns transactions matching filters, newest first by docID.
func (e *TransactionEngine) List(ctx context.Context, tenantID string, filters domain.TransactionFilters) ([]domain.Transaction, error) {
	var predicates []store.Predicate
	if filters.UnitID != "" {
		predicates = append(predicates, store.Predicate{Field: "unitId", Op: store.OpEqual, Value: filters.UnitID})
	}
	if filters.CategoryID != "" {
		predicates = append(predicates, store.Predicate{Field: "categoryId", Op: store.OpEqual, Value: filters.CategoryID})
	}

	docs, err := e.store.Query(ctx, transactionsCollection(tenantID), predicates, &store.OrderBy{Field: "docId", Descending: true}, filters.Limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreTimeout, err, "query transactions")
	}

	out := make([]domain.Transaction, 0, len(docs))
	for _, d := range docs {
		var tx domain.Transaction
		if err := store.FromDoc(d.Data, &tx); err != nil {
			return nil, apperr.Wrap(apperr.Internal, err, "unmarshal transaction")
		}
		if filters.StartDate != nil && tx.Date.Before(*filters.StartDate) {
			continue
		}
		if filters.EndDate != nil && tx.Date.After(*filters.EndDate) {
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

// Delete removes a transaction. Only callable by an admin; if the
// transaction represents an HOA or water payment, the compensating
// reversal runs inside the same store transaction.
func (e *TransactionEngine) Delete(ctx context.Context, tenantID, docID string, isAdmin bool, userID string) error {
	if !isAdmin {
		return apperr.New(apperr.Forbidden, "only an admin may delete a transaction")
	}

	tx, err := e.Get(ctx, tenantID, docID)
	if err != nil {
		return err
	}

	err = e.store.RunTransaction(ctx, func(txn store.Tx) error {
		if err := txn.Delete(transactionPath(tenantID, docID)); err != nil {
			return err
		}
		for _, a := range tx.Allocations {
			switch a.Type {
			case domain.AllocationHOAMonth:
				if e.dues != nil {
					if err := e.dues.reverseInTx(txn, tenantID, tx.UnitID, docID); err != nil {
						return err
					}
				}
			case domain.AllocationWaterConsumption, domain.AllocationWaterPenalty:
				if e.waterBill != nil {
					if err := e.waterBill.reversePaymentInTx(txn, tenantID, tx.UnitID, docID); err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
	if err != nil {
		return apperr.Wrap(apperr.StoreTimeout, err, "delete transaction")
	}

	e.audit.Record(ctx, audit.Entry{
		TenantID:   tenantID,
		Module:     "transactions",
		Action:     "delete",
		ParentPath: transactionsCollection(tenantID),
		DocID:      docID,
		UserID:     userID,
	})
	e.publisher.Publish(tenantID, websocket.TransactionDeleted(map[string]interface{}{"docId": docID}))
	return nil
}
