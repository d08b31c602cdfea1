package gifts

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/bundlebay/giftcore/internal/repos/gifts"
)

func (r *giftsRepo) MarkAccepted(tx *sql.Tx, entitlementID string, recipientCustomerID int64, acceptedAt time.Time) error {
	res, err := tx.Exec(`
		UPDATE gift_records
		SET gift_accepted = true,
		    gift_accepted_at = $3,
		    recipient_customer_id = $2
		WHERE entitlement_id = $1
		  AND gift_accepted = false
	`, entitlementID, recipientCustomerID, acceptedAt)
	if err != nil {
		return fmt.Errorf("mark accepted: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return gifts.ErrAlreadyAccepted
	}

	return nil
}
