// Package kvstore abstracts the shared low-latency key-value store used for
// the violation/ban ledger and for confirmation markers. Both the upload
// server and the metadata consumer talk to the same store, so correctness
// must not depend on single-process deployment.
package kvstore

import (
	"context"
	"time"
)

// Store is the narrow key-value contract the pipeline relies on.
//
// Increment must be linearizable per key: it is the only place where
// cross-request ordering matters.
type Store interface {
	// Increment atomically increments the integer value at key, creating it
	// with value 1 when absent, and returns the new value.
	Increment(ctx context.Context, key string) (int64, error)

	// Get returns the string value at key, or common.ErrorNotFound when the
	// key does not exist.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value at key. A zero ttl means the key never expires.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)
}
