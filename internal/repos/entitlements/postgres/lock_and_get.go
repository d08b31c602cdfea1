package entitlements

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/bundlebay/giftcore/internal/repos/entitlements"
)

func (r *entitlementsRepo) LockAndGet(tx *sql.Tx, id string) (entitlements.Entitlement, error) {
	row := tx.QueryRow(`
		SELECT `+selectColumns+`
		FROM entitlements
		WHERE id = $1
		FOR UPDATE
	`, id)

	e, err := scanEntitlement(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entitlements.Entitlement{}, entitlements.ErrEntitlementNotFound
		}

		return entitlements.Entitlement{}, fmt.Errorf("lock/get entitlement: %w", err)
	}

	return e, nil
}
