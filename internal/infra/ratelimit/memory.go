package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Memory is the process-local fixed-window backend: a mutex-guarded map of
// per-key windows plus a janitor that evicts expired ones.
type Memory struct {
	mu      sync.Mutex
	windows map[string]*window
	cfg     Config

	cleanupEvery time.Duration
	now          func() time.Time
}

type window struct {
	count   int
	startAt time.Time
}

type MemoryOption func(*Memory)

func WithCleanupEvery(d time.Duration) MemoryOption {
	return func(m *Memory) { m.cleanupEvery = d }
}

// withClock is test-only; it lets window expiry be driven without sleeping.
func withClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

func NewMemory(cfg Config, opts ...MemoryOption) *Memory {
	m := &Memory{
		windows:      make(map[string]*window),
		cfg:          cfg.withDefaults(),
		cleanupEvery: 2 * time.Minute,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Check(_ context.Context, key string) (Decision, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.windows[key]
	if !ok || now.Sub(w.startAt) >= m.cfg.Window {
		m.windows[key] = &window{count: 1, startAt: now}

		return Decision{Allowed: true, Remaining: m.cfg.MaxAttempts - 1}, nil
	}

	w.count++
	if w.count > m.cfg.MaxAttempts {
		return Decision{Allowed: false, Remaining: 0}, nil
	}

	return Decision{Allowed: true, Remaining: m.cfg.MaxAttempts - w.count}, nil
}

func (m *Memory) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.windows, key)

	return nil
}

func (m *Memory) cleanup() {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	for k, w := range m.windows {
		if now.Sub(w.startAt) >= m.cfg.Window {
			delete(m.windows, k)
		}
	}
}

// StartJanitor evicts expired windows periodically until ctx is canceled.
func (m *Memory) StartJanitor(ctx context.Context) {
	if m.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(m.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				m.cleanup()
			}
		}
	}()
}
