package ledger

import (
	"database/sql"

	"github.com/bundlebay/giftcore/internal/repos/ledger"
)

var _ ledger.Ledger = (*ledgerRepo)(nil)

type ledgerRepo struct{ db *sql.DB }

func New(db *sql.DB) *ledgerRepo {
	return &ledgerRepo{db: db}
}

// balanceQuery folds the append-only history into the derived balance.
const balanceQuery = `
	SELECT COALESCE(SUM(
		CASE WHEN type IN ('key_for_credits', 'credit_adjustment_add')
		     THEN credit_amount
		     ELSE -credit_amount
		END
	), 0)
	FROM exchange_transactions
	WHERE customer_id = $1
`
