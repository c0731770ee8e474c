// Package cache provides a small byte-oriented cache used for read-mostly
// catalog data. The Redis implementation is optional; without it callers get
// a no-op cache and always read through to the database.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque values under string keys.
type Cache interface {
	// Get returns the value and true on a hit, or nil and false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key for ttl. A zero ttl means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes the keys; missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
	// Close releases the underlying connection.
	Close() error
}

// Noop is a Cache that never stores anything.
type Noop struct{}

var _ Cache = Noop{}

// Get implements Cache.
func (Noop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

// Set implements Cache.
func (Noop) Set(context.Context, string, []byte, time.Duration) error { return nil }

// Delete implements Cache.
func (Noop) Delete(context.Context, ...string) error { return nil }

// Close implements Cache.
func (Noop) Close() error { return nil }
