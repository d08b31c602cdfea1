// Package gifting implements the gift transfer state machine and the
// acceptance gate in front of it. A gift moves Pending -> Accepted at most
// once; ownership of the underlying entitlement moves in the same database
// transaction as the state flip.
package gifting

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bundlebay/giftcore/internal/infra/pgutils"
	"github.com/bundlebay/giftcore/internal/infra/ratelimit"
	"github.com/bundlebay/giftcore/internal/repos/customers"
	pgcustomers "github.com/bundlebay/giftcore/internal/repos/customers/postgres"
	"github.com/bundlebay/giftcore/internal/repos/entitlements"
	pgentitlements "github.com/bundlebay/giftcore/internal/repos/entitlements/postgres"
	"github.com/bundlebay/giftcore/internal/repos/gifts"
	pggifts "github.com/bundlebay/giftcore/internal/repos/gifts/postgres"
)

type Service struct {
	db           *sql.DB
	customers    customers.Customers
	entitlements entitlements.Entitlements
	gifts        gifts.Gifts
	limiter      ratelimit.Limiter
	now          func() time.Time
}

func New(dbx *sql.DB, limiter ratelimit.Limiter) *Service {
	return &Service{
		db:           dbx,
		customers:    pgcustomers.New(dbx),
		entitlements: pgentitlements.New(dbx),
		gifts:        pggifts.New(dbx),
		limiter:      limiter,
		now:          time.Now,
	}
}

// Send creates the gift record for an owned, active entitlement.
func (s *Service) Send(ctx context.Context, req SendRequest) (gifts.Gift, error) {
	if strings.TrimSpace(req.RecipientEmail) == "" {
		return gifts.Gift{}, fmt.Errorf("recipient email required: %w", ErrNotGiftable)
	}

	record := gifts.Gift{
		EntitlementID:      req.EntitlementID,
		GiftedByCustomerID: req.GiftedByCustomerID,
		RecipientEmail:     strings.ToLower(strings.TrimSpace(req.RecipientEmail)),
		GiftMessage:        req.GiftMessage,
		GiftedAt:           s.now().UTC(),
	}

	// The recipient may not have an account yet; when they do, the record
	// carries their id so the storefront can surface the pending gift.
	recipientID, err := s.customers.GetIDByEmail(ctx, record.RecipientEmail)
	switch {
	case err == nil:
		record.RecipientCustomerID = &recipientID
	case errors.Is(err, customers.ErrCustomerNotFound):
	default:
		return gifts.Gift{}, fmt.Errorf("resolve recipient: %w", err)
	}

	err = pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		ent, err := s.entitlements.LockAndGet(tx, req.EntitlementID)
		if err != nil {
			return fmt.Errorf("lock entitlement: %w", err)
		}

		if ent.OwnerCustomerID == nil || *ent.OwnerCustomerID != req.GiftedByCustomerID {
			return ErrNotOwner
		}
		if ent.Status != entitlements.StatusActive {
			return ErrNotGiftable
		}

		err = s.gifts.Insert(tx, record)
		if err != nil {
			return fmt.Errorf("insert gift: %w", err)
		}

		return nil
	})
	if err != nil {
		return gifts.Gift{}, fmt.Errorf("send gift: %w", err)
	}

	return record, nil
}

// Accept runs the full acceptance flow:
//
// 1) Load the gift record; missing -> ErrGiftNotFound.
// 2) Already accepted -> ErrAlreadyAccepted (idempotent retries land here).
// 3) Recipient email must match the caller's verified email.
// 4) The sender may not accept their own gift.
// 5) Consume a rate-limit attempt for (entitlementId, email).
// 6) In one DB transaction: CAS gift_accepted false->true, re-check under
//    the row lock that the sender still owns the active entitlement, then
//    transfer ownership. Both commit or neither does.
// 7) Reset the rate-limit counter after commit.
//
// A failure at steps 1-4 or 6 leaves the attempt counted; only success
// forgives earlier failed attempts.
func (s *Service) Accept(ctx context.Context, entitlementID string, identity Identity) (AcceptResult, error) {
	gift, err := s.gifts.Get(ctx, entitlementID)
	if err != nil {
		return AcceptResult{}, fmt.Errorf("load gift: %w", err)
	}

	if gift.GiftAccepted {
		return AcceptResult{}, gifts.ErrAlreadyAccepted
	}

	if !strings.EqualFold(gift.RecipientEmail, identity.Email) {
		return AcceptResult{}, ErrEmailMismatch
	}

	if gift.GiftedByCustomerID == identity.CustomerID {
		return AcceptResult{}, ErrSelfGift
	}

	key := limiterKey(entitlementID, identity.Email)

	decision, err := s.limiter.Check(ctx, key)
	if err != nil {
		return AcceptResult{}, fmt.Errorf("rate limit check: %w", err)
	}
	if !decision.Allowed {
		return AcceptResult{}, ErrRateLimited
	}

	var redirect string

	err = pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		err := s.gifts.MarkAccepted(tx, entitlementID, identity.CustomerID, s.now().UTC())
		if err != nil {
			return fmt.Errorf("mark accepted: %w", err)
		}

		ent, err := s.entitlements.LockAndGet(tx, entitlementID)
		if err != nil {
			return fmt.Errorf("lock entitlement: %w", err)
		}

		// The sender may have surrendered or otherwise lost the entitlement
		// while the gift sat pending; ownership they no longer hold must not
		// move. The rollback also un-flips the acceptance CAS above.
		if ent.OwnerCustomerID == nil || *ent.OwnerCustomerID != gift.GiftedByCustomerID ||
			ent.Status != entitlements.StatusActive {
			return ErrNotGiftable
		}

		owner := identity.CustomerID

		err = s.entitlements.Transfer(tx, entitlementID, &owner, entitlements.StatusActive, true)
		if err != nil {
			return fmt.Errorf("transfer entitlement: %w", err)
		}

		redirect = redirectTarget(ent)

		return nil
	})
	if err != nil {
		return AcceptResult{}, fmt.Errorf("accept gift: %w", err)
	}

	// Best effort: a stale counter only penalizes future failed attempts.
	err = s.limiter.Reset(ctx, key)
	if err != nil {
		slog.Warn("rate limit reset failed", "entitlementId", entitlementID, "error", err)
	}

	return AcceptResult{RedirectTarget: redirect}, nil
}

// CanAccept evaluates the acceptance guard without consuming a rate-limit
// attempt or mutating anything. Front-ends use it to decide whether to render
// the accept action.
func (s *Service) CanAccept(ctx context.Context, entitlementID string, identity Identity) (bool, error) {
	gift, err := s.gifts.Get(ctx, entitlementID)
	if err != nil {
		if errors.Is(err, gifts.ErrGiftNotFound) {
			return false, nil
		}

		return false, fmt.Errorf("load gift: %w", err)
	}

	if gift.GiftAccepted {
		return false, nil
	}
	if !strings.EqualFold(gift.RecipientEmail, identity.Email) {
		return false, nil
	}
	if gift.GiftedByCustomerID == identity.CustomerID {
		return false, nil
	}

	ent, err := s.entitlements.Get(ctx, entitlementID)
	if err != nil {
		return false, fmt.Errorf("load entitlement: %w", err)
	}

	if ent.OwnerCustomerID == nil || *ent.OwnerCustomerID != gift.GiftedByCustomerID ||
		ent.Status != entitlements.StatusActive {
		return false, nil
	}

	return true, nil
}

// Status returns the gift record for rendering. Read-only.
func (s *Service) Status(ctx context.Context, entitlementID string) (gifts.Gift, error) {
	gift, err := s.gifts.Get(ctx, entitlementID)
	if err != nil {
		return gifts.Gift{}, fmt.Errorf("load gift: %w", err)
	}

	return gift, nil
}

// ResendNotification confirms a gift is still pending before the external
// notification collaborator re-sends the gift email.
func (s *Service) ResendNotification(ctx context.Context, entitlementID string) error {
	gift, err := s.gifts.Get(ctx, entitlementID)
	if err != nil {
		return fmt.Errorf("load gift: %w", err)
	}

	if gift.GiftAccepted {
		return gifts.ErrAlreadyAccepted
	}

	return nil
}

func limiterKey(entitlementID, email string) string {
	return entitlementID + ":" + strings.ToLower(strings.TrimSpace(email))
}

func redirectTarget(ent entitlements.Entitlement) string {
	if ent.Kind == entitlements.KindKeyAssignment {
		return "/keys/" + ent.ID
	}

	return "/purchases/" + ent.ID
}
