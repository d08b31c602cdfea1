package ledger

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/bundlebay/giftcore/internal/repos/ledger"
	"github.com/jackc/pgx/v5/pgconn"
)

func (r *ledgerRepo) Append(tx *sql.Tx, txn ledger.Transaction) error {
	_, err := tx.Exec(`
		INSERT INTO exchange_transactions (
			id, customer_id, type, credit_amount,
			related_entitlement_id, reason, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, txn.ID, txn.CustomerID, txn.Type, txn.CreditAmount,
		txn.RelatedEntitlementID, txn.Reason, txn.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" { // unique_violation
				return ledger.ErrDuplicateTransaction
			}
		}

		return fmt.Errorf("append transaction: %w", err)
	}

	return nil
}
