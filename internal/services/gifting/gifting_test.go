package gifting

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bundlebay/giftcore/internal/infra/pgtestutil"
	"github.com/bundlebay/giftcore/internal/infra/ratelimit"
	"github.com/bundlebay/giftcore/internal/repos/gifts"
)

const entID = "dddddddd-0000-0000-0000-000000000001"

var (
	sender    = Identity{CustomerID: 1, Email: "sender@example.com"}
	recipient = Identity{CustomerID: 2, Email: "rcpt@example.com"}
)

func newTestService(t *testing.T, limiter ratelimit.Limiter) (*Service, *sql.DB, func()) {
	t.Helper()

	db, cleanup := pgtestutil.NewTestDB(t)

	_, err := db.Exec(`INSERT INTO customers (id, email) VALUES (1, 'sender@example.com'), (2, 'rcpt@example.com')`)
	if err != nil {
		cleanup()
		t.Fatalf("seed customers: %v", err)
	}

	_, err = db.Exec(`
		INSERT INTO entitlements (id, owner_customer_id, kind, status)
		VALUES ($1, 1, 'bundle_purchase', 'active')
	`, entID)
	if err != nil {
		cleanup()
		t.Fatalf("seed entitlement: %v", err)
	}

	if limiter == nil {
		limiter = ratelimit.NewMemory(ratelimit.Config{MaxAttempts: 5, Window: 10 * time.Minute})
	}

	return New(db, limiter), db, cleanup
}

func sendGift(t *testing.T, svc *Service) {
	t.Helper()

	_, err := svc.Send(context.Background(), SendRequest{
		EntitlementID:      entID,
		GiftedByCustomerID: sender.CustomerID,
		RecipientEmail:     recipient.Email,
		GiftMessage:        "enjoy!",
	})
	if err != nil {
		t.Fatalf("send gift: %v", err)
	}
}

func ownerOf(t *testing.T, db *sql.DB, id string) int64 {
	t.Helper()

	var owner sql.NullInt64

	err := db.QueryRow(`SELECT owner_customer_id FROM entitlements WHERE id = $1`, id).Scan(&owner)
	if err != nil {
		t.Fatalf("query owner: %v", err)
	}
	if !owner.Valid {
		t.Fatalf("entitlement %s is pool-owned", id)
	}

	return owner.Int64
}

func TestAccept_IdempotentAcceptance(t *testing.T) {
	t.Parallel()

	svc, db, cleanup := newTestService(t, nil)
	defer cleanup()

	sendGift(t, svc)
	ctx := context.Background()

	result, err := svc.Accept(ctx, entID, recipient)
	if err != nil {
		t.Fatalf("first accept: %v", err)
	}
	if result.RedirectTarget != "/purchases/"+entID {
		t.Fatalf("redirect: got %q", result.RedirectTarget)
	}

	if got := ownerOf(t, db, entID); got != recipient.CustomerID {
		t.Fatalf("owner after accept: want %d, got %d", recipient.CustomerID, got)
	}

	_, err = svc.Accept(ctx, entID, recipient)
	if !errors.Is(err, gifts.ErrAlreadyAccepted) {
		t.Fatalf("second accept: want ErrAlreadyAccepted, got %v", err)
	}

	// Ownership must not move again.
	if got := ownerOf(t, db, entID); got != recipient.CustomerID {
		t.Fatalf("owner after retry: want %d, got %d", recipient.CustomerID, got)
	}
}

func TestAccept_GuardFailures(t *testing.T) {
	t.Parallel()

	type tc struct {
		name     string
		identity Identity
		wantErr  error
	}

	tests := []tc{
		{
			name:     "email_mismatch",
			identity: Identity{CustomerID: 3, Email: "stranger@example.com"},
			wantErr:  ErrEmailMismatch,
		},
		{
			name: "self_gift_even_with_matching_email",
			// The sender somehow controls the recipient address; still refused.
			identity: Identity{CustomerID: sender.CustomerID, Email: recipient.Email},
			wantErr:  ErrSelfGift,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, db, cleanup := newTestService(t, nil)
			defer cleanup()

			sendGift(t, svc)

			_, err := svc.Accept(context.Background(), entID, tt.identity)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("want %v, got %v", tt.wantErr, err)
			}

			// No state mutated.
			if got := ownerOf(t, db, entID); got != sender.CustomerID {
				t.Fatalf("owner changed on failed accept: %d", got)
			}
		})
	}
}

func TestAccept_GiftNotFound(t *testing.T) {
	t.Parallel()

	svc, _, cleanup := newTestService(t, nil)
	defer cleanup()

	_, err := svc.Accept(context.Background(), entID, recipient)
	if !errors.Is(err, gifts.ErrGiftNotFound) {
		t.Fatalf("want ErrGiftNotFound, got %v", err)
	}
}

func TestAccept_RateLimited(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.NewMemory(ratelimit.Config{MaxAttempts: 2, Window: 10 * time.Minute})

	svc, _, cleanup := newTestService(t, limiter)
	defer cleanup()

	sendGift(t, svc)
	ctx := context.Background()

	// Burn the window for this gift/email pair.
	key := limiterKey(entID, recipient.Email)
	for i := 0; i < 2; i++ {
		_, err := limiter.Check(ctx, key)
		if err != nil {
			t.Fatalf("burn attempt: %v", err)
		}
	}

	_, err := svc.Accept(ctx, entID, recipient)
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("want ErrRateLimited, got %v", err)
	}

	// A successful accept after the window resets the counter.
	err = limiter.Reset(ctx, key)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}

	_, err = svc.Accept(ctx, entID, recipient)
	if err != nil {
		t.Fatalf("accept after reset: %v", err)
	}

	d, err := limiter.Check(ctx, key)
	if err != nil {
		t.Fatalf("check after success: %v", err)
	}
	if !d.Allowed || d.Remaining != 1 {
		t.Fatalf("counter not reset after success: %+v", d)
	}
}

func TestAccept_ConcurrentExactlyOneWins(t *testing.T) {
	t.Parallel()

	svc, db, cleanup := newTestService(t, nil)
	defer cleanup()

	sendGift(t, svc)

	const attempts = 8

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := svc.Accept(context.Background(), entID, recipient)

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				successes++
			case errors.Is(err, gifts.ErrAlreadyAccepted):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Fatalf("want exactly 1 success, got %d (conflicts: %d)", successes, conflicts)
	}

	if got := ownerOf(t, db, entID); got != recipient.CustomerID {
		t.Fatalf("owner after race: want %d, got %d", recipient.CustomerID, got)
	}
}

func TestAccept_SenderNoLongerOwnsEntitlement(t *testing.T) {
	t.Parallel()

	svc, db, cleanup := newTestService(t, nil)
	defer cleanup()

	sendGift(t, svc)
	ctx := context.Background()

	// While the gift sat pending the sender surrendered the entitlement to
	// the exchange pool.
	_, err := db.Exec(`UPDATE entitlements SET owner_customer_id = NULL, status = 'transferred' WHERE id = $1`, entID)
	if err != nil {
		t.Fatalf("move to pool: %v", err)
	}

	_, err = svc.Accept(ctx, entID, recipient)
	if !errors.Is(err, ErrNotGiftable) {
		t.Fatalf("accept of pool-owned entitlement: want ErrNotGiftable, got %v", err)
	}

	// ... and then a third customer redeemed it out of the pool.
	_, err = db.Exec(`INSERT INTO customers (id, email) VALUES (3, 'dave@example.com')`)
	if err != nil {
		t.Fatalf("seed third customer: %v", err)
	}

	_, err = db.Exec(`UPDATE entitlements SET owner_customer_id = 3, status = 'active' WHERE id = $1`, entID)
	if err != nil {
		t.Fatalf("redeem to third customer: %v", err)
	}

	_, err = svc.Accept(ctx, entID, recipient)
	if !errors.Is(err, ErrNotGiftable) {
		t.Fatalf("accept of redeemed entitlement: want ErrNotGiftable, got %v", err)
	}

	// The redeemer keeps the entitlement and the refused accept rolled the
	// acceptance flip back, so the gift is still pending.
	if got := ownerOf(t, db, entID); got != 3 {
		t.Fatalf("owner after refused accepts: want 3, got %d", got)
	}

	var accepted bool

	err = db.QueryRow(`SELECT gift_accepted FROM gift_records WHERE entitlement_id = $1`, entID).Scan(&accepted)
	if err != nil {
		t.Fatalf("query gift record: %v", err)
	}
	if accepted {
		t.Fatal("gift marked accepted despite refused transfer")
	}

	ok, err := svc.CanAccept(ctx, entID, recipient)
	if err != nil {
		t.Fatalf("can accept: %v", err)
	}
	if ok {
		t.Fatal("canAccept should be false once the sender lost the entitlement")
	}
}

func TestSend_ResolvesRecipientCustomerID(t *testing.T) {
	t.Parallel()

	svc, db, cleanup := newTestService(t, nil)
	defer cleanup()

	sendGift(t, svc)
	ctx := context.Background()

	// The recipient address belongs to an existing customer.
	var resolved sql.NullInt64

	err := db.QueryRow(`SELECT recipient_customer_id FROM gift_records WHERE entitlement_id = $1`, entID).Scan(&resolved)
	if err != nil {
		t.Fatalf("query gift record: %v", err)
	}
	if !resolved.Valid || resolved.Int64 != recipient.CustomerID {
		t.Fatalf("recipient id: want %d, got %+v", recipient.CustomerID, resolved)
	}

	// A gift to an address with no account stays unresolved.
	const otherEntID = "dddddddd-0000-0000-0000-000000000002"

	_, err = db.Exec(`
		INSERT INTO entitlements (id, owner_customer_id, kind, status)
		VALUES ($1, 1, 'bundle_purchase', 'active')
	`, otherEntID)
	if err != nil {
		t.Fatalf("seed entitlement: %v", err)
	}

	_, err = svc.Send(ctx, SendRequest{
		EntitlementID:      otherEntID,
		GiftedByCustomerID: sender.CustomerID,
		RecipientEmail:     "nobody@example.com",
	})
	if err != nil {
		t.Fatalf("send to unregistered email: %v", err)
	}

	err = db.QueryRow(`SELECT recipient_customer_id FROM gift_records WHERE entitlement_id = $1`, otherEntID).Scan(&resolved)
	if err != nil {
		t.Fatalf("query second gift record: %v", err)
	}
	if resolved.Valid {
		t.Fatalf("unregistered recipient should stay unresolved, got %d", resolved.Int64)
	}
}

func TestSend_Guards(t *testing.T) {
	t.Parallel()

	svc, db, cleanup := newTestService(t, nil)
	defer cleanup()

	ctx := context.Background()

	_, err := svc.Send(ctx, SendRequest{
		EntitlementID:      entID,
		GiftedByCustomerID: 99,
		RecipientEmail:     recipient.Email,
	})
	if !errors.Is(err, ErrNotOwner) {
		t.Fatalf("non-owner send: want ErrNotOwner, got %v", err)
	}

	_, err = db.Exec(`UPDATE entitlements SET status = 'revoked' WHERE id = $1`, entID)
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}

	_, err = svc.Send(ctx, SendRequest{
		EntitlementID:      entID,
		GiftedByCustomerID: sender.CustomerID,
		RecipientEmail:     recipient.Email,
	})
	if !errors.Is(err, ErrNotGiftable) {
		t.Fatalf("revoked send: want ErrNotGiftable, got %v", err)
	}
}

func TestCanAccept_DoesNotConsumeAttempts(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.NewMemory(ratelimit.Config{MaxAttempts: 1, Window: 10 * time.Minute})

	svc, _, cleanup := newTestService(t, limiter)
	defer cleanup()

	sendGift(t, svc)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		ok, err := svc.CanAccept(ctx, entID, recipient)
		if err != nil {
			t.Fatalf("can accept: %v", err)
		}
		if !ok {
			t.Fatal("recipient should be able to accept")
		}
	}

	// The single allowed attempt is still available.
	_, err := svc.Accept(ctx, entID, recipient)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}

	ok, err := svc.CanAccept(ctx, entID, recipient)
	if err != nil {
		t.Fatalf("can accept after accept: %v", err)
	}
	if ok {
		t.Fatal("accepted gift should not be acceptable again")
	}
}

func TestResendNotification(t *testing.T) {
	t.Parallel()

	svc, _, cleanup := newTestService(t, nil)
	defer cleanup()

	sendGift(t, svc)
	ctx := context.Background()

	err := svc.ResendNotification(ctx, entID)
	if err != nil {
		t.Fatalf("resend while pending: %v", err)
	}

	_, err = svc.Accept(ctx, entID, recipient)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}

	err = svc.ResendNotification(ctx, entID)
	if !errors.Is(err, gifts.ErrAlreadyAccepted) {
		t.Fatalf("resend after accept: want ErrAlreadyAccepted, got %v", err)
	}
}
