package customers

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/bundlebay/giftcore/internal/repos/customers"
)

func (r *customersRepo) LockForLedger(tx *sql.Tx, customerID int64) error {
	var id int64

	err := tx.QueryRow(`
		SELECT id
		FROM customers
		WHERE id = $1
		FOR UPDATE
	`, customerID).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return customers.ErrCustomerNotFound
		}

		return fmt.Errorf("lock customer: %w", err)
	}

	return nil
}
