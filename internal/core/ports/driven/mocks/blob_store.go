package mocks

import (
	"context"
	"sync"

	"github.com/statichive/statichive-core/internal/core/domain"
)

type blob struct {
	data        []byte
	contentType string
}

// MockBlobStore is an in-memory BlobStore for testing.
type MockBlobStore struct {
	mu    sync.RWMutex
	blobs map[string]blob

	// PutErr, when set, makes every Put fail. Used to verify that a
	// failed storage write never publishes a page record.
	PutErr error
}

// NewMockBlobStore creates a new MockBlobStore
func NewMockBlobStore() *MockBlobStore {
	return &MockBlobStore{blobs: make(map[string]blob)}
}

func (m *MockBlobStore) Get(ctx context.Context, path string) ([]byte, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blobs[path]
	if !ok {
		return nil, "", domain.ErrNotFound
	}
	return b.data, b.contentType, nil
}

func (m *MockBlobStore) Put(ctx context.Context, path string, data []byte, contentType string) error {
	if m.PutErr != nil {
		return m.PutErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := make([]byte, len(data))
	copy(copied, data)
	m.blobs[path] = blob{data: copied, contentType: contentType}
	return nil
}

// Has reports whether a path holds a blob
func (m *MockBlobStore) Has(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.blobs[path]
	return ok
}
