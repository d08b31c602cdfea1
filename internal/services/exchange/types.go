package exchange

import (
	"errors"
	"fmt"

	"github.com/bundlebay/giftcore/internal/repos/ledger"
)

var (
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrNotExchangeable     = errors.New("entitlement not exchangeable")
	ErrNotOwner            = errors.New("entitlement not owned by customer")
	ErrReasonRequired      = errors.New("adjustment reason required")
)

// InsufficientCreditsError carries the shortfall so callers can show it.
// errors.Is(err, ErrInsufficientCredits) matches it.
type InsufficientCreditsError struct {
	Required int64
	Balance  int64
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: need %d, have %d", e.Required, e.Balance)
}

func (e *InsufficientCreditsError) Is(target error) bool {
	return target == ErrInsufficientCredits
}

func (e *InsufficientCreditsError) Shortfall() int64 {
	return e.Required - e.Balance
}

type Result struct {
	NewBalance  int64
	Transaction ledger.Transaction
}
