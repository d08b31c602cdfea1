package ledger

import (
	"context"
	"database/sql"
	"fmt"
)

// Balance folds the customer's full history without locks; suitable for GETs.
func (r *ledgerRepo) Balance(ctx context.Context, customerID int64) (int64, error) {
	var balance int64

	err := r.db.QueryRowContext(ctx, balanceQuery, customerID).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("fold balance: %w", err)
	}

	return balance, nil
}

// BalanceTx folds the history inside tx. Callers must already hold the
// customer row lock so the fold cannot race a concurrent append.
func (r *ledgerRepo) BalanceTx(tx *sql.Tx, customerID int64) (int64, error) {
	var balance int64

	err := tx.QueryRow(balanceQuery, customerID).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("fold balance in tx: %w", err)
	}

	return balance, nil
}
