package ledger

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var ErrDuplicateTransaction = errors.New("duplicate transaction")

type TxType string

const (
	TypeKeyForCredits    TxType = "key_for_credits"
	TypeCreditsForKey    TxType = "credits_for_key"
	TypeAdjustmentAdd    TxType = "credit_adjustment_add"
	TypeAdjustmentDeduct TxType = "credit_adjustment_deduct"
)

// Earning reports whether this transaction type increases the balance.
func (t TxType) Earning() bool {
	return t == TypeKeyForCredits || t == TypeAdjustmentAdd
}

// Transaction is one immutable ledger entry. CreditAmount is always positive;
// the type decides the sign when the balance is folded.
type Transaction struct {
	ID                   string
	CustomerID           int64
	Type                 TxType
	CreditAmount         int64
	RelatedEntitlementID *string
	Reason               *string
	CreatedAt            time.Time
}

// Ledger is append-only. The balance is never stored; it is folded from the
// full history at validation time, inside the transaction that holds the
// customer row lock when a mutation depends on it.
type Ledger interface {
	Append(tx *sql.Tx, txn Transaction) error
	Balance(ctx context.Context, customerID int64) (int64, error)
	BalanceTx(tx *sql.Tx, customerID int64) (int64, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]Transaction, error)
}
