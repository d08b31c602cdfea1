package gifts

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var (
	ErrGiftNotFound    = errors.New("gift not found")
	ErrGiftExists      = errors.New("gift already exists for entitlement")
	ErrAlreadyAccepted = errors.New("gift already accepted")
)

// Gift is the transfer envelope attached to a gifted entitlement.
// GiftAccepted flips false to true exactly once and never back.
type Gift struct {
	EntitlementID       string
	GiftedByCustomerID  int64
	RecipientEmail      string
	RecipientCustomerID *int64
	GiftMessage         string
	GiftedAt            time.Time
	GiftAccepted        bool
	GiftAcceptedAt      *time.Time
}

type Gifts interface {
	Get(ctx context.Context, entitlementID string) (Gift, error)
	Insert(tx *sql.Tx, g Gift) error
	// MarkAccepted performs the compare-and-swap on gift_accepted; it returns
	// ErrAlreadyAccepted when another transaction won the race.
	MarkAccepted(tx *sql.Tx, entitlementID string, recipientCustomerID int64, acceptedAt time.Time) error
}
