package ledger

import (
	"context"
	"fmt"

	"github.com/bundlebay/giftcore/internal/repos/ledger"
)

func (r *ledgerRepo) ListByCustomer(ctx context.Context, customerID int64) ([]ledger.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, customer_id, type, credit_amount,
		       related_entitlement_id, reason, created_at
		FROM exchange_transactions
		WHERE customer_id = $1
		ORDER BY created_at DESC, id DESC
	`, customerID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []ledger.Transaction

	for rows.Next() {
		var txn ledger.Transaction

		err = rows.Scan(
			&txn.ID, &txn.CustomerID, &txn.Type, &txn.CreditAmount,
			&txn.RelatedEntitlementID, &txn.Reason, &txn.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}

		txns = append(txns, txn)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	return txns, nil
}
