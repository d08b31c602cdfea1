// Package ratelimit counts gift-acceptance attempts per key over a fixed
// window. Two backends exist behind one interface: an in-memory map for a
// single-instance deployment and a Redis counter with TTL for deployments
// where any instance may serve a given retry.
package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of a single attempt.
type Decision struct {
	Allowed   bool
	Remaining int
}

// Limiter decides whether another attempt is allowed for a key right now.
// Check consumes an attempt; Reset forgets the key entirely (used after a
// successful accept so earlier failures stop counting).
type Limiter interface {
	Check(ctx context.Context, key string) (Decision, error)
	Reset(ctx context.Context, key string) error
}

// Config holds the fixed-window parameters shared by both backends.
type Config struct {
	MaxAttempts int
	Window      time.Duration
}

const (
	DefaultMaxAttempts = 5
	DefaultWindow      = 10 * time.Minute
)

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	return c
}
