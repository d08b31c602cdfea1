package customers

import (
	"database/sql"
	"fmt"

	"github.com/bundlebay/giftcore/internal/repos/customers"
)

func (r *customersRepo) Exists(tx *sql.Tx, customerID int64) error {
	var exists bool

	err := tx.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM customers WHERE id = $1)
	`, customerID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}

	if !exists {
		return customers.ErrCustomerNotFound
	}

	return nil
}
