package upgrade

import "time"

type TierType string

const (
	TierBase    TierType = "base"
	TierCharity TierType = "charity"
	TierUpsell  TierType = "upsell"
)

// Tier is a purchase-time pricing bracket from the bundle definition,
// supplied read-only by the catalog service.
type Tier struct {
	Type     TierType
	Price    int64
	Products []string
}

type Bundle struct {
	Tiers           []Tier
	UpgradeDeadline time.Time
}

// Evaluation is a normal result, not an error: "not eligible" is a common,
// expected outcome. CanUpgrade is nil while bundle data is unavailable.
type Evaluation struct {
	CanUpgrade       *bool
	Reason           string
	IsGiftedPurchase bool
}

// RevenueSplit buckets always sum to Total; the platform bucket absorbs any
// rounding remainder from the percentage splits.
type RevenueSplit struct {
	Publisher int64
	Platform  int64
	Charity   int64
	Upsell    int64
	Total     int64
}
