package pgutils

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// WithTx runs fn inside a transaction, committing when fn returns nil and
// rolling back otherwise. fn's error passes through unwrapped so sentinel
// checks on the caller side keep working.
//
// The default isolation level is enough here: every mutating flow takes
// explicit FOR UPDATE row locks inside fn (customer row before entitlement
// row), and those locks are held until commit or rollback.
func WithTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	err = fn(tx)
	if err != nil {
		rbErr := tx.Rollback()
		if rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}

		return err
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}
