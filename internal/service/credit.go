package service

import (
	"context"
	"time"

	"github.com/sandyland/sams-core/internal/apperr"
	"github.com/sandyland/sams-core/internal/domain"
	"github.com/sandyland/sams-core/internal/kernel"
	"github.com/sandyland/sams-core/internal/store"
)

// CreditBalanceService maintains {balance, history} per (tenant, unitId),
// per §4.F. Balance never goes negative; every mutation appends a history
// entry and happens inside the store transaction of the originating payment.
type CreditBalanceService struct {
	store store.Store
}

// NewCreditBalanceService wires a CreditBalanceService.
func NewCreditBalanceService(s store.Store) *CreditBalanceService {
	return &CreditBalanceService{store: s}
}

func (c *CreditBalanceService) load(data map[string]interface{}, tenantID, unitID string) (domain.CreditBalance, error) {
	if data == nil {
		return domain.CreditBalance{TenantID: tenantID, UnitID: unitID, Balance: 0}, nil
	}
	var cb domain.CreditBalance
	if err := store.FromDoc(data, &cb); err != nil {
		return domain.CreditBalance{}, err
	}
	return cb, nil
}

// Get returns the current balance and history, defaulting to a zero
// balance if the unit has never had a credit movement.
func (c *CreditBalanceService) Get(ctx context.Context, tenantID, unitID string) (domain.CreditBalance, error) {
	data, err := c.store.Get(ctx, creditPath(tenantID, unitID))
	if err != nil && err != store.ErrNotFound {
		return domain.CreditBalance{}, apperr.Wrap(apperr.StoreTimeout, err, "read credit balance")
	}
	return c.load(data, tenantID, unitID)
}

// Preview is a non-transactional read of the current balance for UI use.
func (c *CreditBalanceService) Preview(ctx context.Context, tenantID, unitID string) (kernel.Centavos, error) {
	cb, err := c.Get(ctx, tenantID, unitID)
	if err != nil {
		return 0, err
	}
	return kernel.Centavos(cb.Balance), nil
}

// Apply atomically adjusts balance by delta, enforcing newBalance >= 0 and
// appending a history entry. Call within the store transaction of the
// originating payment via ApplyInTx when one is already open.
func (c *CreditBalanceService) Apply(ctx context.Context, tenantID, unitID string, delta kernel.Centavos, transactionID, reason string) (domain.CreditBalance, error) {
	var result domain.CreditBalance
	err := c.store.RunTransaction(ctx, func(txn store.Tx) error {
		updated, err := c.applyInTx(txn, tenantID, unitID, delta, transactionID, reason)
		if err != nil {
			return err
		}
		result = updated
		return nil
	})
	if err != nil {
		return domain.CreditBalance{}, err
	}
	return result, nil
}

// ApplyInTx is the same mutation as Apply, but runs against an
// already-open transactional handle (used by the Payment Distributor's
// commit path, which applies credit alongside other writes atomically).
func (c *CreditBalanceService) ApplyInTx(txn store.Tx, tenantID, unitID string, delta kernel.Centavos, transactionID, reason string) (domain.CreditBalance, error) {
	return c.applyInTx(txn, tenantID, unitID, delta, transactionID, reason)
}

func (c *CreditBalanceService) applyInTx(txn store.Tx, tenantID, unitID string, delta kernel.Centavos, transactionID, reason string) (domain.CreditBalance, error) {
	data, err := txn.Get(creditPath(tenantID, unitID))
	if err != nil && err != store.ErrNotFound {
		return domain.CreditBalance{}, apperr.Wrap(apperr.StoreTimeout, err, "read credit balance")
	}
	cb, err := c.load(data, tenantID, unitID)
	if err != nil {
		return domain.CreditBalance{}, apperr.Wrap(apperr.Internal, err, "unmarshal credit balance")
	}

	newBalance := kernel.Centavos(cb.Balance) + delta
	if newBalance < 0 {
		return domain.CreditBalance{}, apperr.Wrap(apperr.Integrity, domain.ErrNegativeCredit, "credit balance would go negative")
	}

	cb.Balance = int64(newBalance)
	cb.History = append(cb.History, domain.CreditHistoryEntry{
		Timestamp:     time.Now().UTC(),
		Delta:         int64(delta),
		NewBalance:    cb.Balance,
		TransactionID: transactionID,
		Reason:        reason,
	})

	doc, err := store.ToDoc(cb)
	if err != nil {
		return domain.CreditBalance{}, apperr.Wrap(apperr.Internal, err, "marshal credit balance")
	}
	if err := txn.Set(creditPath(tenantID, unitID), doc); err != nil {
		return domain.CreditBalance{}, apperr.Wrap(apperr.StoreTimeout, err, "write credit balance")
	}
	return cb, nil
}
