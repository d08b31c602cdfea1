package e2etests

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"testing"
	"time"
)

// Black-box tests against a running instance with the DEV seed applied
// (run the migrator with APP_ENV=DEV first). Each flow consumes seed
// state, so the suite expects a freshly seeded database.

const (
	baseURL   = "http://localhost:8080"
	timeout   = 5 * time.Second
	waitReady = 20 * time.Second

	bundleID  = "11111111-1111-1111-1111-111111111111"
	ownedKey  = "22222222-2222-2222-2222-222222222222"
	poolKey   = "33333333-3333-3333-3333-333333333333"
	missingID = "99999999-9999-9999-9999-999999999999"
)

var httpClient = &http.Client{Timeout: timeout}

type identity struct {
	customerID int64
	email      string
}

var (
	alice = identity{1, "alice@example.com"}
	bob   = identity{2, "bob@example.com"}
	carol = identity{3, "carol@example.com"}
)

func TestE2E_GiftFlow(t *testing.T) {
	waitUntilReady(t)

	t.Run("alice_sends_gift_to_bob", func(t *testing.T) {
		code, body := doJSON(t, http.MethodPost, "/entitlements/"+bundleID+"/gift", &alice,
			map[string]string{"recipientEmail": bob.email, "giftMessage": "happy birthday"})
		if code != http.StatusCreated {
			t.Fatalf("send gift: want 201, got %d (%s)", code, body)
		}
	})

	t.Run("duplicate_send_conflicts", func(t *testing.T) {
		code, body := doJSON(t, http.MethodPost, "/entitlements/"+bundleID+"/gift", &alice,
			map[string]string{"recipientEmail": bob.email})
		if code != http.StatusConflict {
			t.Fatalf("duplicate send: want 409, got %d (%s)", code, body)
		}
	})

	t.Run("bob_can_accept", func(t *testing.T) {
		code, body := doJSON(t, http.MethodGet, "/entitlements/"+bundleID+"/gift/can-accept", &bob, nil)
		if code != http.StatusOK {
			t.Fatalf("can-accept: want 200, got %d (%s)", code, body)
		}

		var payload struct {
			CanAccept bool `json:"canAccept"`
		}
		mustDecode(t, body, &payload)
		if !payload.CanAccept {
			t.Fatal("bob should be able to accept")
		}
	})

	t.Run("carol_cannot_accept_foreign_gift", func(t *testing.T) {
		code, body := doJSON(t, http.MethodPost, "/entitlements/"+bundleID+"/gift/accept", &carol, nil)
		if code != http.StatusForbidden {
			t.Fatalf("foreign accept: want 403, got %d (%s)", code, body)
		}
	})

	t.Run("bob_accepts_and_gets_redirect", func(t *testing.T) {
		code, body := doJSON(t, http.MethodPost, "/entitlements/"+bundleID+"/gift/accept", &bob, nil)
		if code != http.StatusOK {
			t.Fatalf("accept: want 200, got %d (%s)", code, body)
		}

		var payload struct {
			RedirectTarget string `json:"redirectTarget"`
		}
		mustDecode(t, body, &payload)
		if payload.RedirectTarget != "/purchases/"+bundleID {
			t.Fatalf("redirect: got %q", payload.RedirectTarget)
		}
	})

	t.Run("second_accept_conflicts", func(t *testing.T) {
		code, body := doJSON(t, http.MethodPost, "/entitlements/"+bundleID+"/gift/accept", &bob, nil)
		if code != http.StatusConflict {
			t.Fatalf("second accept: want 409, got %d (%s)", code, body)
		}
	})

	t.Run("gift_status_shows_accepted", func(t *testing.T) {
		code, body := doJSON(t, http.MethodGet, "/entitlements/"+bundleID+"/gift", nil, nil)
		if code != http.StatusOK {
			t.Fatalf("gift status: want 200, got %d (%s)", code, body)
		}

		var payload struct {
			RecipientEmail string `json:"recipientEmail"`
			GiftAccepted   bool   `json:"giftAccepted"`
		}
		mustDecode(t, body, &payload)
		if payload.RecipientEmail != bob.email || !payload.GiftAccepted {
			t.Fatalf("unexpected gift status: %s", body)
		}
	})

	t.Run("resend_after_accept_conflicts", func(t *testing.T) {
		code, body := doJSON(t, http.MethodPost, "/entitlements/"+bundleID+"/gift/resend", &alice, nil)
		if code != http.StatusConflict {
			t.Fatalf("resend: want 409, got %d (%s)", code, body)
		}
	})
}

func TestE2E_ExchangeFlow(t *testing.T) {
	waitUntilReady(t)

	t.Run("bob_initial_balance_zero", func(t *testing.T) {
		if got := getBalance(t, bob.customerID); got != 0 {
			t.Fatalf("initial balance: want 0, got %d", got)
		}
	})

	t.Run("carol_cannot_redeem_without_credits", func(t *testing.T) {
		code, body := doJSON(t, http.MethodPost, customerPath(carol.customerID, "/redeem"), nil,
			map[string]string{"entitlementId": poolKey})
		if code != http.StatusConflict {
			t.Fatalf("broke redeem: want 409, got %d (%s)", code, body)
		}

		var payload struct {
			Shortfall int64 `json:"shortfall"`
		}
		mustDecode(t, body, &payload)
		if payload.Shortfall != 10 {
			t.Fatalf("shortfall: want 10, got %d", payload.Shortfall)
		}
	})

	t.Run("bob_surrenders_key", func(t *testing.T) {
		code, body := doJSON(t, http.MethodPost, customerPath(bob.customerID, "/exchange"), nil,
			map[string]string{"entitlementId": ownedKey})
		if code != http.StatusOK {
			t.Fatalf("surrender: want 200, got %d (%s)", code, body)
		}

		var payload struct {
			NewBalance    int64 `json:"newBalance"`
			CreditsEarned int64 `json:"creditsEarned"`
		}
		mustDecode(t, body, &payload)
		if payload.NewBalance != 10 || payload.CreditsEarned != 10 {
			t.Fatalf("want balance 10 / earned 10, got %+v", payload)
		}
	})

	t.Run("double_surrender_forbidden", func(t *testing.T) {
		code, body := doJSON(t, http.MethodPost, customerPath(bob.customerID, "/exchange"), nil,
			map[string]string{"entitlementId": ownedKey})
		if code != http.StatusForbidden {
			t.Fatalf("double surrender: want 403, got %d (%s)", code, body)
		}
	})

	t.Run("bob_redeems_pool_key", func(t *testing.T) {
		code, body := doJSON(t, http.MethodPost, customerPath(bob.customerID, "/redeem"), nil,
			map[string]string{"entitlementId": poolKey})
		if code != http.StatusOK {
			t.Fatalf("redeem: want 200, got %d (%s)", code, body)
		}

		var payload struct {
			NewBalance int64 `json:"newBalance"`
		}
		mustDecode(t, body, &payload)
		if payload.NewBalance != 0 {
			t.Fatalf("balance after redeem: want 0, got %d", payload.NewBalance)
		}
	})

	t.Run("history_records_both_legs", func(t *testing.T) {
		code, body := doJSON(t, http.MethodGet, customerPath(bob.customerID, "/credits/history"), nil, nil)
		if code != http.StatusOK {
			t.Fatalf("history: want 200, got %d (%s)", code, body)
		}

		var payload struct {
			Transactions []struct {
				Type         string `json:"type"`
				CreditAmount int64  `json:"creditAmount"`
			} `json:"transactions"`
		}
		mustDecode(t, body, &payload)
		if len(payload.Transactions) != 2 {
			t.Fatalf("want 2 transactions, got %d (%s)", len(payload.Transactions), body)
		}
	})
}

func TestE2E_Validation(t *testing.T) {
	waitUntilReady(t)

	t.Run("unknown_gift_404", func(t *testing.T) {
		code, _ := doJSON(t, http.MethodPost, "/entitlements/"+missingID+"/gift/resend", nil, nil)
		if code != http.StatusNotFound {
			t.Fatalf("want 404, got %d", code)
		}
	})

	t.Run("can_accept_without_gift_is_false", func(t *testing.T) {
		code, body := doJSON(t, http.MethodGet, "/entitlements/"+missingID+"/gift/can-accept", &bob, nil)
		if code != http.StatusOK {
			t.Fatalf("want 200, got %d (%s)", code, body)
		}

		var payload struct {
			CanAccept bool `json:"canAccept"`
		}
		mustDecode(t, body, &payload)
		if payload.CanAccept {
			t.Fatal("no gift record, canAccept should be false")
		}
	})

	t.Run("malformed_entitlement_id_400", func(t *testing.T) {
		code, _ := doJSON(t, http.MethodGet, "/entitlements/not-a-uuid/gift/can-accept", &bob, nil)
		if code != http.StatusBadRequest {
			t.Fatalf("want 400, got %d", code)
		}
	})

	t.Run("missing_identity_401", func(t *testing.T) {
		code, _ := doJSON(t, http.MethodPost, "/entitlements/"+missingID+"/gift/accept", nil, nil)
		if code != http.StatusUnauthorized {
			t.Fatalf("want 401, got %d", code)
		}
	})

	t.Run("admin_without_token_403", func(t *testing.T) {
		code, _ := doJSON(t, http.MethodPost, "/admin/customers/3/adjustments", nil,
			map[string]any{"delta": 5, "reason": "test"})
		if code != http.StatusForbidden {
			t.Fatalf("want 403, got %d", code)
		}
	})
}

/* -------------------- helpers -------------------- */

func customerPath(customerID int64, suffix string) string {
	return "/customers/" + strconv.FormatInt(customerID, 10) + suffix
}

func doJSON(t *testing.T, method, path string, id *identity, payload any) (int, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, baseURL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if id != nil {
		req.Header.Set("X-Customer-Id", strconv.FormatInt(id.customerID, 10))
		req.Header.Set("X-Customer-Email", id.email)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}

	return resp.StatusCode, b
}

func getBalance(t *testing.T, customerID int64) int64 {
	t.Helper()

	code, body := doJSON(t, http.MethodGet, customerPath(customerID, "/credits"), nil, nil)
	if code != http.StatusOK {
		t.Fatalf("get balance: want 200, got %d (%s)", code, body)
	}

	var payload struct {
		CustomerID int64 `json:"customerId"`
		Balance    int64 `json:"balance"`
	}
	mustDecode(t, body, &payload)

	if payload.CustomerID != customerID {
		t.Fatalf("customerId mismatch: want %d, got %d", customerID, payload.CustomerID)
	}

	return payload.Balance
}

func mustDecode(t *testing.T, body []byte, dst any) {
	t.Helper()

	err := json.Unmarshal(body, dst)
	if err != nil {
		t.Fatalf("decode json %q: %v", body, err)
	}
}

func waitUntilReady(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), waitReady)
	defer cancel()

	tick := time.NewTicker(200 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			t.Fatalf("service not ready at %s within %s", baseURL, waitReady)
		case <-tick.C:
			resp, err := httpClient.Get(baseURL + "/healthz")
			if err != nil {
				continue
			}
			_ = resp.Body.Close()

			if resp.StatusCode == http.StatusOK {
				return
			}
		}
	}
}
