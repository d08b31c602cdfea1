package entitlements

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/bundlebay/giftcore/internal/repos/entitlements"
)

var _ entitlements.Entitlements = (*entitlementsRepo)(nil)

type entitlementsRepo struct{ db *sql.DB }

func New(db *sql.DB) *entitlementsRepo {
	return &entitlementsRepo{db: db}
}

const selectColumns = `
	id, owner_customer_id, kind, status,
	base_amount, charity_amount, tip_amount, upsell_amount,
	publisher_split_pct, platform_split_pct, charity_split_pct,
	excess_distribution, purchased_tier_price, product_list,
	credits_value, credits_required, gifted, completed
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntitlement(row rowScanner) (entitlements.Entitlement, error) {
	var (
		e        entitlements.Entitlement
		products []byte
	)

	err := row.Scan(
		&e.ID, &e.OwnerCustomerID, &e.Kind, &e.Status,
		&e.BaseAmount, &e.CharityAmount, &e.TipAmount, &e.UpsellAmount,
		&e.PublisherSplitPct, &e.PlatformSplitPct, &e.CharitySplitPct,
		&e.ExcessDistribution, &e.PurchasedTierPrice, &products,
		&e.CreditsValue, &e.CreditsRequired, &e.Gifted, &e.Completed,
	)
	if err != nil {
		return entitlements.Entitlement{}, err
	}

	err = json.Unmarshal(products, &e.ProductList)
	if err != nil {
		return entitlements.Entitlement{}, fmt.Errorf("decode product list: %w", err)
	}

	return e, nil
}
