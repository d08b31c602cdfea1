package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/bundlebay/giftcore/internal/services/gifting"
)

type sendGiftRequest struct {
	RecipientEmail string `json:"recipientEmail"`
	GiftMessage    string `json:"giftMessage"`
}

// SendGiftHandler handles POST /entitlements/{entitlementId}/gift
func (h *HandlerProvider) SendGiftHandler(w http.ResponseWriter, r *http.Request) {
	entitlementID, err := parseEntitlementID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid entitlementId in path")
		return
	}

	identity, err := identityFromHeaders(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "identity required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()

	var req sendGiftRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	err = dec.Decode(&req)
	if err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "empty body")
			return
		}

		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if strings.TrimSpace(req.RecipientEmail) == "" {
		writeError(w, http.StatusBadRequest, "recipientEmail required")
		return
	}

	gift, err := h.gifting.Send(r.Context(), gifting.SendRequest{
		EntitlementID:      entitlementID,
		GiftedByCustomerID: identity.CustomerID,
		RecipientEmail:     req.RecipientEmail,
		GiftMessage:        req.GiftMessage,
	})
	if err != nil {
		mapDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"entitlementId":  gift.EntitlementID,
		"recipientEmail": gift.RecipientEmail,
		"giftedAt":       gift.GiftedAt,
	})
}

// AcceptGiftHandler handles POST /entitlements/{entitlementId}/gift/accept
func (h *HandlerProvider) AcceptGiftHandler(w http.ResponseWriter, r *http.Request) {
	entitlementID, err := parseEntitlementID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid entitlementId in path")
		return
	}

	identity, err := identityFromHeaders(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "identity required")
		return
	}

	result, err := h.gifting.Accept(r.Context(), entitlementID, identity)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"redirectTarget": result.RedirectTarget})
}

// CanAcceptGiftHandler handles GET /entitlements/{entitlementId}/gift/can-accept
func (h *HandlerProvider) CanAcceptGiftHandler(w http.ResponseWriter, r *http.Request) {
	entitlementID, err := parseEntitlementID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid entitlementId in path")
		return
	}

	identity, err := identityFromHeaders(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "identity required")
		return
	}

	canAccept, err := h.gifting.CanAccept(r.Context(), entitlementID, identity)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"canAccept": canAccept})
}

// GiftStatusHandler handles GET /entitlements/{entitlementId}/gift
func (h *HandlerProvider) GiftStatusHandler(w http.ResponseWriter, r *http.Request) {
	entitlementID, err := parseEntitlementID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid entitlementId in path")
		return
	}

	gift, err := h.gifting.Status(r.Context(), entitlementID)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entitlementId":  gift.EntitlementID,
		"recipientEmail": gift.RecipientEmail,
		"giftMessage":    gift.GiftMessage,
		"giftedAt":       gift.GiftedAt,
		"giftAccepted":   gift.GiftAccepted,
		"giftAcceptedAt": gift.GiftAcceptedAt,
	})
}

// ResendGiftHandler handles POST /entitlements/{entitlementId}/gift/resend.
// The notification service calls this to confirm the gift is still pending
// before re-sending the gift email.
func (h *HandlerProvider) ResendGiftHandler(w http.ResponseWriter, r *http.Request) {
	entitlementID, err := parseEntitlementID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid entitlementId in path")
		return
	}

	err = h.gifting.ResendNotification(r.Context(), entitlementID)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "pending"})
}
