package mocks

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/statichive/statichive-core/internal/core/domain"
)

// MockSourceClient is an in-memory SourceClient for testing.
// It counts fetches so tests can verify the single-flight contract.
type MockSourceClient struct {
	mu      sync.RWMutex
	trees   map[string]*domain.BlockTree
	err     error
	fetches atomic.Int64

	// FetchStarted, when non-nil, is closed on the first fetch so a
	// test can hold concurrent callers at the suspension point.
	FetchStarted chan struct{}
	// FetchRelease, when non-nil, blocks every fetch until closed.
	FetchRelease chan struct{}

	startOnce sync.Once
}

// NewMockSourceClient creates a new MockSourceClient
func NewMockSourceClient() *MockSourceClient {
	return &MockSourceClient{
		trees: make(map[string]*domain.BlockTree),
	}
}

// SetTree registers the tree returned for a document ID
func (m *MockSourceClient) SetTree(documentID string, tree *domain.BlockTree) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trees[documentID] = tree
}

// SetError makes every fetch fail with err
func (m *MockSourceClient) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// FetchCount returns how many times FetchTree was invoked
func (m *MockSourceClient) FetchCount() int64 {
	return m.fetches.Load()
}

func (m *MockSourceClient) FetchTree(ctx context.Context, documentID string) (*domain.BlockTree, error) {
	m.fetches.Add(1)

	if m.FetchStarted != nil {
		m.startOnce.Do(func() { close(m.FetchStarted) })
	}
	if m.FetchRelease != nil {
		select {
		case <-m.FetchRelease:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	tree, ok := m.trees[documentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return tree, nil
}
