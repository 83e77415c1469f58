// Package memkv implements the key-value store contract in memory.
// It backs tests and runs configured without a store file.
package memkv

import (
	"context"
	"sync"
)

// MemKV is a volatile in-memory key-value store.
type MemKV struct {
	mu    sync.Mutex
	cache map[string]string
}

// New returns an empty in-memory store.
func New() (*MemKV, error) {
	return &MemKV{cache: map[string]string{}}, nil
}

// Get returns the blob stored under key.
func (db *MemKV) Get(ctx context.Context, key string) (string, bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	blob, found := db.cache[key]
	return blob, found, nil
}

// Set stores the blob under key.
func (db *MemKV) Set(ctx context.Context, key, blob string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.cache[key] = blob
	return nil
}

// Delete removes the key.
func (db *MemKV) Delete(ctx context.Context, key string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	delete(db.cache, key)
	return nil
}

// Ping always succeeds.
func (db *MemKV) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op.
func (db *MemKV) Close() error {
	return nil
}
