package gifts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bundlebay/giftcore/internal/repos/gifts"
)

func (r *giftsRepo) Get(ctx context.Context, entitlementID string) (gifts.Gift, error) {
	var g gifts.Gift

	err := r.db.QueryRowContext(ctx, `
		SELECT entitlement_id, gifted_by_customer_id, recipient_email,
		       recipient_customer_id, gift_message, gifted_at,
		       gift_accepted, gift_accepted_at
		FROM gift_records
		WHERE entitlement_id = $1
	`, entitlementID).Scan(
		&g.EntitlementID, &g.GiftedByCustomerID, &g.RecipientEmail,
		&g.RecipientCustomerID, &g.GiftMessage, &g.GiftedAt,
		&g.GiftAccepted, &g.GiftAcceptedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return gifts.Gift{}, gifts.ErrGiftNotFound
		}

		return gifts.Gift{}, fmt.Errorf("get gift: %w", err)
	}

	return g, nil
}
