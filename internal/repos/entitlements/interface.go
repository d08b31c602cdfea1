package entitlements

import (
	"context"
	"database/sql"
	"errors"
)

var ErrEntitlementNotFound = errors.New("entitlement not found")

type Kind string

const (
	KindBundlePurchase Kind = "bundle_purchase"
	KindKeyAssignment  Kind = "key_assignment"
)

type Status string

const (
	StatusActive      Status = "active"
	StatusTransferred Status = "transferred"
	StatusRevoked     Status = "revoked"
)

type ExcessDistribution string

const (
	ExcessToPublishers ExcessDistribution = "publishers"
	ExcessToCharity    ExcessDistribution = "charity"
)

// Entitlement is one purchasable unit: a whole bundle purchase or a single
// key assignment. Pricing fields are a snapshot frozen at purchase time, in
// minor currency units. A nil OwnerCustomerID means the exchange pool owns it.
type Entitlement struct {
	ID              string
	OwnerCustomerID *int64
	Kind            Kind
	Status          Status

	BaseAmount         int64
	CharityAmount      int64
	TipAmount          int64
	UpsellAmount       int64
	PublisherSplitPct  int
	PlatformSplitPct   int
	CharitySplitPct    int
	ExcessDistribution ExcessDistribution
	PurchasedTierPrice int64
	ProductList        []string

	// CreditsValue is earned when the key is surrendered to the pool;
	// CreditsRequired is the price to redeem it back out.
	CreditsValue    int64
	CreditsRequired int64

	Gifted    bool
	Completed bool
}

type Entitlements interface {
	Get(ctx context.Context, id string) (Entitlement, error)
	LockAndGet(tx *sql.Tx, id string) (Entitlement, error)
	// Transfer is the only code path allowed to change ownership or status.
	Transfer(tx *sql.Tx, id string, newOwner *int64, newStatus Status, markGifted bool) error
}
