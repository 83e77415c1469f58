// Package kv defines the key-value store contract that is the only
// I/O boundary of the service. Operations are atomic per key; there is
// no transaction spanning keys, which is why multi-key mutations run
// inside the store-wide critical section owned by the typed store.
package kv

import "context"

// Store is a persistent mapping from string keys to opaque string
// blobs.
type Store interface {
	// Get returns the blob under key, with found=false when absent.
	Get(ctx context.Context, key string) (blob string, found bool, err error)

	// Set writes the blob under key, replacing any previous value.
	Set(ctx context.Context, key, blob string) error

	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Ping checks that the underlying storage is reachable.
	Ping(ctx context.Context) error

	// Close flushes and releases the underlying storage.
	Close() error
}
