package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/bundlebay/giftcore/internal/repos/ledger"
)

type exchangeRequest struct {
	EntitlementID string `json:"entitlementId"`
}

type adjustmentRequest struct {
	Delta  int64  `json:"delta"`
	Reason string `json:"reason"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "empty body")
			return false
		}

		writeError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}

	return true
}

func parseBodyEntitlementID(w http.ResponseWriter, raw string) (string, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid entitlementId")
		return "", false
	}

	return id.String(), true
}

// SurrenderKeyHandler handles POST /customers/{customerId}/exchange
func (h *HandlerProvider) SurrenderKeyHandler(w http.ResponseWriter, r *http.Request) {
	customerID, err := parseCustomerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid customerId in path")
		return
	}

	var req exchangeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	entitlementID, ok := parseBodyEntitlementID(w, req.EntitlementID)
	if !ok {
		return
	}

	result, err := h.exchange.SurrenderKey(r.Context(), customerID, entitlementID)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"newBalance":    result.NewBalance,
		"creditsEarned": result.Transaction.CreditAmount,
	})
}

// RedeemKeyHandler handles POST /customers/{customerId}/redeem
func (h *HandlerProvider) RedeemKeyHandler(w http.ResponseWriter, r *http.Request) {
	customerID, err := parseCustomerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid customerId in path")
		return
	}

	var req exchangeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	entitlementID, ok := parseBodyEntitlementID(w, req.EntitlementID)
	if !ok {
		return
	}

	result, err := h.exchange.RedeemKey(r.Context(), customerID, entitlementID)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"newBalance":               result.NewBalance,
		"transferredEntitlementId": entitlementID,
	})
}

// GetBalanceHandler handles GET /customers/{customerId}/credits
func (h *HandlerProvider) GetBalanceHandler(w http.ResponseWriter, r *http.Request) {
	customerID, err := parseCustomerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid customerId in path")
		return
	}

	balance, err := h.exchange.GetBalance(r.Context(), customerID)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"customerId": customerID,
		"balance":    balance,
	})
}

type historyEntry struct {
	ID                   string  `json:"id"`
	Type                 string  `json:"type"`
	Direction            string  `json:"direction"`
	CreditAmount         int64   `json:"creditAmount"`
	RelatedEntitlementID *string `json:"relatedEntitlementId,omitempty"`
	Reason               *string `json:"reason,omitempty"`
	CreatedAt            string  `json:"createdAt"`
}

// GetHistoryHandler handles GET /customers/{customerId}/credits/history
func (h *HandlerProvider) GetHistoryHandler(w http.ResponseWriter, r *http.Request) {
	customerID, err := parseCustomerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid customerId in path")
		return
	}

	txns, err := h.exchange.History(r.Context(), customerID)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	entries := make([]historyEntry, 0, len(txns))
	for _, txn := range txns {
		entries = append(entries, toHistoryEntry(txn))
	}

	writeJSON(w, http.StatusOK, map[string]any{"transactions": entries})
}

func toHistoryEntry(txn ledger.Transaction) historyEntry {
	direction := "spent"
	if txn.Type.Earning() {
		direction = "earned"
	}

	return historyEntry{
		ID:                   txn.ID,
		Type:                 string(txn.Type),
		Direction:            direction,
		CreditAmount:         txn.CreditAmount,
		RelatedEntitlementID: txn.RelatedEntitlementID,
		Reason:               txn.Reason,
		CreatedAt:            txn.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

// AdjustCreditsHandler handles POST /admin/customers/{customerId}/adjustments
func (h *HandlerProvider) AdjustCreditsHandler(w http.ResponseWriter, r *http.Request) {
	customerID, err := parseCustomerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid customerId in path")
		return
	}

	var req adjustmentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.exchange.Adjust(r.Context(), customerID, req.Delta, req.Reason)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"newBalance":    result.NewBalance,
		"transactionId": result.Transaction.ID,
	})
}
