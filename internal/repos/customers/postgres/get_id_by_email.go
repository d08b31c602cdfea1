package customers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bundlebay/giftcore/internal/repos/customers"
)

func (r *customersRepo) GetIDByEmail(ctx context.Context, email string) (int64, error) {
	var id int64

	err := r.db.QueryRowContext(ctx, `
		SELECT id
		FROM customers
		WHERE lower(email) = lower($1)
	`, email).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, customers.ErrCustomerNotFound
		}

		return 0, fmt.Errorf("get id by email: %w", err)
	}

	return id, nil
}
