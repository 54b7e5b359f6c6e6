package mocks

import (
	"context"
	"sync"

	"github.com/statichive/statichive-core/internal/core/domain"
)

// MockPageStateStore is an in-memory PageStateStore for testing.
type MockPageStateStore struct {
	mu     sync.RWMutex
	pages  map[string]*domain.PreparedPage
	queues map[string]*domain.ImageQueue
}

// NewMockPageStateStore creates a new MockPageStateStore
func NewMockPageStateStore() *MockPageStateStore {
	return &MockPageStateStore{
		pages:  make(map[string]*domain.PreparedPage),
		queues: make(map[string]*domain.ImageQueue),
	}
}

func (m *MockPageStateStore) GetPage(ctx context.Context, documentID string) (*domain.PreparedPage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	page, ok := m.pages[documentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *page
	return &copied, nil
}

func (m *MockPageStateStore) SavePage(ctx context.Context, page *domain.PreparedPage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *page
	m.pages[page.DocumentID] = &copied
	return nil
}

func (m *MockPageStateStore) GetQueue(ctx context.Context, documentID string) (*domain.ImageQueue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	queue, ok := m.queues[documentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneQueue(queue), nil
}

func (m *MockPageStateStore) SaveQueue(ctx context.Context, documentID string, queue *domain.ImageQueue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := cloneQueue(queue)
	copied.Version = queue.Version + 1
	m.queues[documentID] = copied
	queue.Version = copied.Version
	return nil
}

func cloneQueue(q *domain.ImageQueue) *domain.ImageQueue {
	copied := &domain.ImageQueue{
		Version: q.Version,
		Entries: make(map[string]string, len(q.Entries)),
	}
	for k, v := range q.Entries {
		copied.Entries[k] = v
	}
	return copied
}
