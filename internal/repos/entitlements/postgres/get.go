package entitlements

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bundlebay/giftcore/internal/repos/entitlements"
)

func (r *entitlementsRepo) Get(ctx context.Context, id string) (entitlements.Entitlement, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+selectColumns+`
		FROM entitlements
		WHERE id = $1
	`, id)

	e, err := scanEntitlement(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entitlements.Entitlement{}, entitlements.ErrEntitlementNotFound
		}

		return entitlements.Entitlement{}, fmt.Errorf("get entitlement: %w", err)
	}

	return e, nil
}
