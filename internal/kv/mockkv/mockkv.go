// Package mockkv provides a testify-based mock implementation of the
// key-value store contract. It is used to simulate storage failures in
// unit tests so callers can be checked to surface them distinctly from
// business rejections.
package mockkv

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// StoreMock is a testify mock implementing kv.Store.
type StoreMock struct {
	mock.Mock
}

// Get mocks a blob lookup.
func (m *StoreMock) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

// Set mocks a blob write.
func (m *StoreMock) Set(ctx context.Context, key, blob string) error {
	args := m.Called(ctx, key, blob)
	return args.Error(0)
}

// Delete mocks a key removal.
func (m *StoreMock) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// Ping mocks a health check.
func (m *StoreMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close mocks closing the store.
func (m *StoreMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
