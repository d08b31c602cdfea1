package gifting

import "errors"

var (
	ErrEmailMismatch = errors.New("gift was sent to a different email")
	ErrSelfGift      = errors.New("sender cannot accept their own gift")
	ErrRateLimited   = errors.New("too many acceptance attempts")
	ErrNotOwner      = errors.New("entitlement not owned by sender")
	ErrNotGiftable   = errors.New("entitlement cannot be gifted")
)

// Identity is the verified caller, as supplied by the upstream identity
// service. The gate trusts it as given.
type Identity struct {
	CustomerID int64
	Email      string
}

type SendRequest struct {
	EntitlementID      string
	GiftedByCustomerID int64
	RecipientEmail     string
	GiftMessage        string
}

type AcceptResult struct {
	RedirectTarget string
}
