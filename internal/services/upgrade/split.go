package upgrade

import "github.com/bundlebay/giftcore/internal/repos/entitlements"

// ComputeRevenueSplit buckets the snapshot amounts for display and
// settlement. All amounts are integer minor units. Publisher and charity
// shares are truncated percentage cuts of the base amount; the tip goes to
// whichever side the purchase's excess distribution names; the platform
// bucket is the residual, so the rounding remainder lands there and the
// buckets always sum exactly to the total.
func ComputeRevenueSplit(ent entitlements.Entitlement) RevenueSplit {
	publisher := ent.BaseAmount * int64(ent.PublisherSplitPct) / 100
	charity := ent.BaseAmount*int64(ent.CharitySplitPct)/100 + ent.CharityAmount

	if ent.TipAmount > 0 {
		if ent.ExcessDistribution == entitlements.ExcessToPublishers {
			publisher += ent.TipAmount
		} else {
			charity += ent.TipAmount
		}
	}

	total := ent.BaseAmount + ent.CharityAmount + ent.TipAmount + ent.UpsellAmount
	platform := total - publisher - charity - ent.UpsellAmount

	return RevenueSplit{
		Publisher: publisher,
		Platform:  platform,
		Charity:   charity,
		Upsell:    ent.UpsellAmount,
		Total:     total,
	}
}
