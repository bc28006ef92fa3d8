package kvstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates the key does not exist or has expired.
var ErrNotFound = errors.New("kvstore: key not found")

// Store is an expiring key-value store. Each operation is atomic on its own;
// there are no multi-key transactions.
type Store interface {
	// Get returns the value at key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set writes value at key. A positive ttl sets the expiry; zero means
	// no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// SetNX writes value at key only if the key does not exist. It reports
	// whether the write happened.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	// Incr atomically increments the integer at key, creating it at 0 first
	// when absent, and returns the new value.
	Incr(ctx context.Context, key string) (int64, error)
	// ExpireNX sets ttl on key only if the key has no expiry yet. It reports
	// whether the expiry was set. Missing keys return ErrNotFound.
	ExpireNX(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// TTL returns the remaining lifetime of key. Keys without expiry return
	// zero; missing keys return ErrNotFound.
	TTL(ctx context.Context, key string) (time.Duration, error)
	// Del removes the given keys. Missing keys are not an error.
	Del(ctx context.Context, keys ...string) error
}
