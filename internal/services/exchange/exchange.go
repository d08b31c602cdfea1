// Package exchange maintains the per-customer credit ledger. The ledger is
// append-only; the balance is always folded from the full history inside the
// same database transaction that holds the customer row lock, so it cannot
// drift from the log and concurrent spends serialize.
package exchange

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bundlebay/giftcore/internal/infra/pgutils"
	"github.com/bundlebay/giftcore/internal/repos/customers"
	pgcustomers "github.com/bundlebay/giftcore/internal/repos/customers/postgres"
	"github.com/bundlebay/giftcore/internal/repos/entitlements"
	pgentitlements "github.com/bundlebay/giftcore/internal/repos/entitlements/postgres"
	"github.com/bundlebay/giftcore/internal/repos/ledger"
	pgledger "github.com/bundlebay/giftcore/internal/repos/ledger/postgres"
)

type Service struct {
	db           *sql.DB
	customers    customers.Customers
	entitlements entitlements.Entitlements
	ledger       ledger.Ledger
	now          func() time.Time
}

func New(dbx *sql.DB) *Service {
	return &Service{
		db:           dbx,
		customers:    pgcustomers.New(dbx),
		entitlements: pgentitlements.New(dbx),
		ledger:       pgledger.New(dbx),
		now:          time.Now,
	}
}

// SurrenderKey trades an owned key assignment for credits. The key moves to
// the exchange pool (ownerless, status transferred) and a key_for_credits
// entry is appended, all in one transaction.
func (s *Service) SurrenderKey(ctx context.Context, customerID int64, entitlementID string) (Result, error) {
	var result Result

	err := pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		err := s.customers.Exists(tx, customerID)
		if err != nil {
			return fmt.Errorf("check customer: %w", err)
		}

		// Customer lock first, entitlement lock second, everywhere.
		err = s.customers.LockForLedger(tx, customerID)
		if err != nil {
			return fmt.Errorf("lock customer: %w", err)
		}

		ent, err := s.entitlements.LockAndGet(tx, entitlementID)
		if err != nil {
			return fmt.Errorf("lock entitlement: %w", err)
		}

		if ent.OwnerCustomerID == nil || *ent.OwnerCustomerID != customerID {
			return ErrNotOwner
		}
		if ent.Status != entitlements.StatusActive ||
			ent.Kind != entitlements.KindKeyAssignment ||
			ent.CreditsValue <= 0 {
			return ErrNotExchangeable
		}

		txn := ledger.Transaction{
			ID:                   uuid.NewString(),
			CustomerID:           customerID,
			Type:                 ledger.TypeKeyForCredits,
			CreditAmount:         ent.CreditsValue,
			RelatedEntitlementID: &ent.ID,
			CreatedAt:            s.now().UTC(),
		}

		err = s.ledger.Append(tx, txn)
		if err != nil {
			return fmt.Errorf("append earning: %w", err)
		}

		err = s.entitlements.Transfer(tx, entitlementID, nil, entitlements.StatusTransferred, false)
		if err != nil {
			return fmt.Errorf("move key to pool: %w", err)
		}

		balance, err := s.ledger.BalanceTx(tx, customerID)
		if err != nil {
			return fmt.Errorf("fold balance: %w", err)
		}

		result = Result{NewBalance: balance, Transaction: txn}

		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("surrender key: %w", err)
	}

	return result, nil
}

// RedeemKey spends credits on a pool-owned key. The affordability check and
// the append happen under the customer row lock: two concurrent redeems that
// cannot both be afforded serialize, and the loser sees the reduced balance.
func (s *Service) RedeemKey(ctx context.Context, customerID int64, poolEntitlementID string) (Result, error) {
	var result Result

	err := pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		err := s.customers.Exists(tx, customerID)
		if err != nil {
			return fmt.Errorf("check customer: %w", err)
		}

		err = s.customers.LockForLedger(tx, customerID)
		if err != nil {
			return fmt.Errorf("lock customer: %w", err)
		}

		ent, err := s.entitlements.LockAndGet(tx, poolEntitlementID)
		if err != nil {
			return fmt.Errorf("lock entitlement: %w", err)
		}

		if ent.OwnerCustomerID != nil ||
			ent.Status != entitlements.StatusTransferred ||
			ent.CreditsRequired <= 0 {
			return ErrNotExchangeable
		}

		balance, err := s.ledger.BalanceTx(tx, customerID)
		if err != nil {
			return fmt.Errorf("fold balance: %w", err)
		}

		if balance < ent.CreditsRequired {
			return &InsufficientCreditsError{Required: ent.CreditsRequired, Balance: balance}
		}

		txn := ledger.Transaction{
			ID:                   uuid.NewString(),
			CustomerID:           customerID,
			Type:                 ledger.TypeCreditsForKey,
			CreditAmount:         ent.CreditsRequired,
			RelatedEntitlementID: &ent.ID,
			CreatedAt:            s.now().UTC(),
		}

		err = s.ledger.Append(tx, txn)
		if err != nil {
			return fmt.Errorf("append spend: %w", err)
		}

		owner := customerID

		err = s.entitlements.Transfer(tx, poolEntitlementID, &owner, entitlements.StatusActive, false)
		if err != nil {
			return fmt.Errorf("transfer key: %w", err)
		}

		result = Result{NewBalance: balance - ent.CreditsRequired, Transaction: txn}

		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("redeem key: %w", err)
	}

	return result, nil
}

// Adjust appends a privileged adjustment. Positive delta adds credits,
// negative deducts; a deduct that would drive the balance negative is
// rejected. The reason is mandatory.
func (s *Service) Adjust(ctx context.Context, customerID int64, delta int64, reason string) (Result, error) {
	if reason == "" {
		return Result{}, ErrReasonRequired
	}
	if delta == 0 {
		return Result{}, fmt.Errorf("zero adjustment: %w", ErrNotExchangeable)
	}

	txType := ledger.TypeAdjustmentAdd
	amount := delta
	if delta < 0 {
		txType = ledger.TypeAdjustmentDeduct
		amount = -delta
	}

	var result Result

	err := pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		err := s.customers.Exists(tx, customerID)
		if err != nil {
			return fmt.Errorf("check customer: %w", err)
		}

		err = s.customers.LockForLedger(tx, customerID)
		if err != nil {
			return fmt.Errorf("lock customer: %w", err)
		}

		balance, err := s.ledger.BalanceTx(tx, customerID)
		if err != nil {
			return fmt.Errorf("fold balance: %w", err)
		}

		if txType == ledger.TypeAdjustmentDeduct && balance < amount {
			return &InsufficientCreditsError{Required: amount, Balance: balance}
		}

		txn := ledger.Transaction{
			ID:           uuid.NewString(),
			CustomerID:   customerID,
			Type:         txType,
			CreditAmount: amount,
			Reason:       &reason,
			CreatedAt:    s.now().UTC(),
		}

		err = s.ledger.Append(tx, txn)
		if err != nil {
			return fmt.Errorf("append adjustment: %w", err)
		}

		result = Result{NewBalance: balance + delta, Transaction: txn}

		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("adjust credits: %w", err)
	}

	return result, nil
}

// GetBalance folds the customer's history without locks; suitable for GETs.
func (s *Service) GetBalance(ctx context.Context, customerID int64) (int64, error) {
	balance, err := s.ledger.Balance(ctx, customerID)
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}

	return balance, nil
}

// History returns the customer's ledger entries, newest first.
func (s *Service) History(ctx context.Context, customerID int64) ([]ledger.Transaction, error) {
	txns, err := s.ledger.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}

	return txns, nil
}
