// Package upgrade decides whether a completed purchase may still be upgraded
// and computes the revenue split of its snapshot pricing. Everything here is
// a pure function of immutable purchase-time data.
package upgrade

import (
	"slices"
	"time"

	"github.com/bundlebay/giftcore/internal/repos/entitlements"
)

const (
	ReasonNotCompleted       = "Purchase not completed"
	ReasonCompleteCollection = "You already own the complete collection"
	ReasonWindowEnded        = "Upgrade period has ended"
)

// Evaluate applies the eligibility checks in order:
//
//  1. bundle purchases must be completed;
//  2. owning the highest base tier, all charity tiers, and every upsell
//     product means there is nothing left to upgrade to (this positive
//     "complete collection" outcome beats the window check);
//  3. the upgrade window must still be open.
//
// A nil bundle yields an indeterminate evaluation (CanUpgrade == nil), used
// while bundle data is still loading.
func Evaluate(ent entitlements.Entitlement, bundle *Bundle, now time.Time) Evaluation {
	if ent.Kind == entitlements.KindBundlePurchase && !ent.Completed {
		return Evaluation{CanUpgrade: ptr(false), Reason: ReasonNotCompleted}
	}

	if bundle == nil {
		return Evaluation{}
	}

	if hasCompleteCollection(ent, bundle) {
		return Evaluation{CanUpgrade: ptr(false), Reason: ReasonCompleteCollection}
	}

	if now.After(bundle.UpgradeDeadline) {
		return Evaluation{CanUpgrade: ptr(false), Reason: ReasonWindowEnded}
	}

	// Gifted purchases route to an informational dialog instead of the
	// direct upgrade purchase flow.
	return Evaluation{CanUpgrade: ptr(true), IsGiftedPurchase: ent.Gifted}
}

func hasCompleteCollection(ent entitlements.Entitlement, bundle *Bundle) bool {
	return hasHighestBaseTier(ent, bundle) &&
		allCharityTiersPurchased(ent, bundle) &&
		allUpsellProductsOwned(ent, bundle)
}

func hasHighestBaseTier(ent entitlements.Entitlement, bundle *Bundle) bool {
	var highest int64

	for _, tier := range bundle.Tiers {
		if tier.Type == TierBase && tier.Price > highest {
			highest = tier.Price
		}
	}

	return ent.PurchasedTierPrice >= highest
}

func allCharityTiersPurchased(ent entitlements.Entitlement, bundle *Bundle) bool {
	for _, tier := range bundle.Tiers {
		if tier.Type == TierCharity {
			return ent.CharityAmount > 0
		}
	}

	// No charity tiers exist, so there is nothing left to buy.
	return true
}

func allUpsellProductsOwned(ent entitlements.Entitlement, bundle *Bundle) bool {
	for _, tier := range bundle.Tiers {
		if tier.Type != TierUpsell {
			continue
		}

		for _, product := range tier.Products {
			if !slices.Contains(ent.ProductList, product) {
				return false
			}
		}
	}

	return true
}

func ptr(b bool) *bool { return &b }
