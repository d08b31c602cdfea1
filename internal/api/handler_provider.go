package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bundlebay/giftcore/internal/repos/customers"
	"github.com/bundlebay/giftcore/internal/repos/entitlements"
	"github.com/bundlebay/giftcore/internal/repos/gifts"
	"github.com/bundlebay/giftcore/internal/repos/ledger"
	"github.com/bundlebay/giftcore/internal/services/exchange"
	"github.com/bundlebay/giftcore/internal/services/gifting"
	"github.com/bundlebay/giftcore/internal/services/upgrade"
)

// HandlerProvider wraps the core services and exposes HTTP handlers.
type HandlerProvider struct {
	gifting  *gifting.Service
	exchange *exchange.Service
	upgrade  *upgrade.Service
}

func NewHandler(giftSvc *gifting.Service, exchSvc *exchange.Service, upgSvc *upgrade.Service) *HandlerProvider {
	return &HandlerProvider{
		gifting:  giftSvc,
		exchange: exchSvc,
		upgrade:  upgSvc,
	}
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// identityFromHeaders reads the verified caller set by the upstream identity
// service. The core trusts these headers as given.
func identityFromHeaders(r *http.Request) (gifting.Identity, error) {
	rawID := r.Header.Get("X-Customer-Id")
	email := r.Header.Get("X-Customer-Email")

	if rawID == "" || email == "" {
		return gifting.Identity{}, fmt.Errorf("missing identity headers")
	}

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return gifting.Identity{}, fmt.Errorf("invalid X-Customer-Id")
	}

	return gifting.Identity{CustomerID: id, Email: email}, nil
}

func parseEntitlementID(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "entitlementId")
	if raw == "" {
		return "", fmt.Errorf("missing entitlementId")
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid entitlementId: %w", err)
	}

	return id.String(), nil
}

func parseCustomerID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "customerId")
	if raw == "" {
		return 0, fmt.Errorf("missing customerId")
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid customerId")
	}

	return id, nil
}

// mapDomainError translates core sentinels to HTTP responses. Anything
// unrecognized is a 500 and gets logged; partial state is never observable,
// so those are safe for the caller to retry.
func mapDomainError(w http.ResponseWriter, err error) {
	var insufficient *exchange.InsufficientCreditsError

	switch {
	case errors.Is(err, gifts.ErrGiftNotFound),
		errors.Is(err, entitlements.ErrEntitlementNotFound),
		errors.Is(err, customers.ErrCustomerNotFound):
		writeError(w, http.StatusNotFound, "not available")

	case errors.Is(err, gifts.ErrAlreadyAccepted):
		// Informational: the caller already owns the result.
		writeJSON(w, http.StatusConflict, map[string]string{"status": "already_accepted"})

	case errors.Is(err, gifts.ErrGiftExists):
		writeError(w, http.StatusConflict, "gift already exists")

	case errors.Is(err, ledger.ErrDuplicateTransaction):
		writeError(w, http.StatusConflict, "duplicate transaction")

	case errors.Is(err, gifting.ErrEmailMismatch):
		writeError(w, http.StatusForbidden, "gift was sent to a different email")

	case errors.Is(err, gifting.ErrSelfGift):
		writeError(w, http.StatusForbidden, "you cannot accept your own gift")

	case errors.Is(err, gifting.ErrNotOwner), errors.Is(err, exchange.ErrNotOwner):
		writeError(w, http.StatusForbidden, "not the owner")

	case errors.Is(err, gifting.ErrRateLimited):
		// A denied attempt has nothing left in the window.
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":             "too many attempts, try again later",
			"remainingAttempts": 0,
		})

	case errors.As(err, &insufficient):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":     "insufficient credits",
			"shortfall": insufficient.Shortfall(),
		})

	case errors.Is(err, gifting.ErrNotGiftable):
		writeError(w, http.StatusUnprocessableEntity, "entitlement cannot be gifted")

	case errors.Is(err, exchange.ErrNotExchangeable):
		writeError(w, http.StatusUnprocessableEntity, "entitlement cannot be exchanged")

	case errors.Is(err, exchange.ErrReasonRequired):
		writeError(w, http.StatusUnprocessableEntity, "adjustment reason required")

	default:
		slog.Error("unhandled domain error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
