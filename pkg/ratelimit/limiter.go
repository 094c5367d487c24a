// Package ratelimit implements fixed-window request counting keyed by client
// identity. Counters live in an external Store so every replica shares them.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Store is the counter backend. Increment must be atomic; Expire is only
// called after the first increment of a window.
type Store interface {
	Increment(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	TTL(ctx context.Context, key string) (time.Duration, error)
}

// Config holds the limiter policy
type Config struct {
	Limit     int           // Requests allowed per window
	Window    time.Duration // Window length
	KeyPrefix string        // Store key prefix (default: "rl:contact:")
	// Per-call store timeout; a timeout counts as an unavailable store
	StoreTimeout time.Duration
}

// DefaultConfig returns the contact form policy: 5 submissions per 15 minutes
func DefaultConfig() Config {
	return Config{
		Limit:        5,
		Window:       15 * time.Minute,
		KeyPrefix:    "rl:contact:",
		StoreTimeout: 3 * time.Second,
	}
}

// Decision is the outcome of a single Allow call
type Decision struct {
	Allowed   bool
	Key       string
	Count     int64
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// ErrUnavailable wraps every store failure
var ErrUnavailable = errors.New("rate limiter unavailable")

type Limiter struct {
	store  Store
	config Config
	now    func() time.Time
}

func NewLimiter(store Store, config Config) *Limiter {
	def := DefaultConfig()
	if config.Limit <= 0 {
		config.Limit = def.Limit
	}
	if config.Window <= 0 {
		config.Window = def.Window
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = def.KeyPrefix
	}
	if config.StoreTimeout <= 0 {
		config.StoreTimeout = def.StoreTimeout
	}
	return &Limiter{store: store, config: config, now: time.Now}
}

// Config returns the effective policy
func (l *Limiter) Config() Config {
	return l.config
}

// Allow counts one request for identity. Store errors are returned wrapped in
// ErrUnavailable and the caller is expected to reject the request.
func (l *Limiter) Allow(ctx context.Context, identity string) (Decision, error) {
	key := l.config.KeyPrefix + identity
	decision := Decision{Key: key, Limit: l.config.Limit}

	ctx, cancel := context.WithTimeout(ctx, l.config.StoreTimeout)
	defer cancel()

	count, err := l.store.Increment(ctx, key)
	if err != nil {
		return decision, fmt.Errorf("%w: increment %s: %v", ErrUnavailable, key, err)
	}
	decision.Count = count

	// A counter left without an expiry by a failed Expire gets one here
	ttl := l.config.Window
	needsExpiry := count == 1
	if !needsExpiry {
		remaining, err := l.store.TTL(ctx, key)
		switch {
		case err != nil:
			return decision, fmt.Errorf("%w: ttl %s: %v", ErrUnavailable, key, err)
		case remaining > 0:
			ttl = remaining
		default:
			needsExpiry = true
		}
	}
	if needsExpiry {
		if err := l.store.Expire(ctx, key, l.config.Window); err != nil {
			return decision, fmt.Errorf("%w: expire %s: %v", ErrUnavailable, key, err)
		}
	}
	decision.ResetAt = l.now().Add(ttl)

	decision.Allowed = count <= int64(l.config.Limit)
	if decision.Allowed {
		decision.Remaining = l.config.Limit - int(count)
	}
	return decision, nil
}
