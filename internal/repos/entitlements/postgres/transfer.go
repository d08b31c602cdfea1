package entitlements

import (
	"database/sql"
	"fmt"

	"github.com/bundlebay/giftcore/internal/repos/entitlements"
)

func (r *entitlementsRepo) Transfer(tx *sql.Tx, id string, newOwner *int64, newStatus entitlements.Status, markGifted bool) error {
	res, err := tx.Exec(`
		UPDATE entitlements
		SET owner_customer_id = $2,
		    status = $3,
		    gifted = gifted OR $4
		WHERE id = $1
	`, id, newOwner, newStatus, markGifted)
	if err != nil {
		return fmt.Errorf("transfer entitlement: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return entitlements.ErrEntitlementNotFound
	}

	return nil
}
