package api

import (
	"net/http"
)

// EvaluateUpgradeHandler handles GET /entitlements/{entitlementId}/upgrade
func (h *HandlerProvider) EvaluateUpgradeHandler(w http.ResponseWriter, r *http.Request) {
	entitlementID, err := parseEntitlementID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid entitlementId in path")
		return
	}

	report, err := h.upgrade.EvaluateUpgrade(r.Context(), entitlementID)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"canUpgrade":       report.Evaluation.CanUpgrade,
		"reason":           report.Evaluation.Reason,
		"isGiftedPurchase": report.Evaluation.IsGiftedPurchase,
		"revenueSplit": map[string]int64{
			"publisherAmount": report.RevenueSplit.Publisher,
			"platformAmount":  report.RevenueSplit.Platform,
			"charityAmount":   report.RevenueSplit.Charity,
			"upsellAmount":    report.RevenueSplit.Upsell,
			"totalAmount":     report.RevenueSplit.Total,
		},
	})
}
