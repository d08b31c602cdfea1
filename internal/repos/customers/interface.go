package customers

import (
	"context"
	"database/sql"
	"errors"
)

var ErrCustomerNotFound = errors.New("customer not found")

type Customers interface {
	Exists(tx *sql.Tx, customerID int64) error
	// LockForLedger takes the customer row lock that serializes all credit
	// mutations for this customer within the surrounding transaction.
	LockForLedger(tx *sql.Tx, customerID int64) error
	GetIDByEmail(ctx context.Context, email string) (int64, error)
}
