package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	AdminToken    string
	ThrottleRPS   float64
	ThrottleBurst int
}

// NewRouter constructs the chi router with all API endpoints registered.
func NewRouter(h *HandlerProvider, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	thr := newThrottle(cfg.ThrottleRPS, cfg.ThrottleBurst)
	r.Use(thr.middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/entitlements/{entitlementId}", func(r chi.Router) {
		r.Post("/gift", h.SendGiftHandler)
		r.Get("/gift", h.GiftStatusHandler)
		r.Post("/gift/accept", h.AcceptGiftHandler)
		r.Get("/gift/can-accept", h.CanAcceptGiftHandler)
		r.Post("/gift/resend", h.ResendGiftHandler)
		r.Get("/upgrade", h.EvaluateUpgradeHandler)
	})

	r.Route("/customers/{customerId}", func(r chi.Router) {
		r.Post("/exchange", h.SurrenderKeyHandler)
		r.Post("/redeem", h.RedeemKeyHandler)
		r.Get("/credits", h.GetBalanceHandler)
		r.Get("/credits/history", h.GetHistoryHandler)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(requireAdminToken(cfg.AdminToken))
		r.Post("/customers/{customerId}/adjustments", h.AdjustCreditsHandler)
	})

	return r
}

// requireAdminToken gates privileged routes on a shared secret. An empty
// configured token disables the admin surface entirely.
func requireAdminToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("X-Admin-Token")

			if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
