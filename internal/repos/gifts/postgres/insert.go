package gifts

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/bundlebay/giftcore/internal/repos/gifts"
	"github.com/jackc/pgx/v5/pgconn"
)

func (r *giftsRepo) Insert(tx *sql.Tx, g gifts.Gift) error {
	_, err := tx.Exec(`
		INSERT INTO gift_records (
			entitlement_id, gifted_by_customer_id, recipient_email,
			recipient_customer_id, gift_message, gifted_at
		)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, g.EntitlementID, g.GiftedByCustomerID, g.RecipientEmail, g.RecipientCustomerID, g.GiftMessage, g.GiftedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" { // unique_violation
				return gifts.ErrGiftExists
			}
		}

		return fmt.Errorf("insert gift: %w", err)
	}

	return nil
}
