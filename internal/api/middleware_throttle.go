package api

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// throttle keeps a token bucket per client IP. It protects the service from
// a single noisy client; the gift-acceptance attempt counter is a separate,
// per-gift concern handled in the gifting service.
type throttle struct {
	mu      sync.Mutex
	entries map[string]*throttleEntry

	rps   rate.Limit
	burst int

	idleTTL   time.Duration
	lastSweep time.Time
}

type throttleEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newThrottle(rps float64, burst int) *throttle {
	return &throttle{
		entries:   make(map[string]*throttleEntry),
		rps:       rate.Limit(rps),
		burst:     burst,
		idleTTL:   15 * time.Minute,
		lastSweep: time.Now(),
	}
}

func (t *throttle) limiter(key string) *rate.Limiter {
	now := time.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	// Opportunistic sweep instead of a janitor goroutine; request volume is
	// what grows the map in the first place.
	if now.Sub(t.lastSweep) > 2*time.Minute {
		cutoff := now.Add(-t.idleTTL)
		for k, ent := range t.entries {
			if ent.lastSeen.Before(cutoff) {
				delete(t.entries, k)
			}
		}
		t.lastSweep = now
	}

	if ent, ok := t.entries[key]; ok {
		ent.lastSeen = now
		return ent.lim
	}

	lim := rate.NewLimiter(t.rps, t.burst)
	t.entries[key] = &throttleEntry{lim: lim, lastSeen: now}

	return lim
}

func (t *throttle) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}

		if !t.limiter(host).Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}
