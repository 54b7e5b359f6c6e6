package mocks

import (
	"context"
	"fmt"
	"sync"
)

// MockImageFetcher is an in-memory ImageFetcher for testing.
type MockImageFetcher struct {
	mu      sync.RWMutex
	bodies  map[string][]byte
	errs    map[string]error
	fetched []string
}

// NewMockImageFetcher creates a new MockImageFetcher
func NewMockImageFetcher() *MockImageFetcher {
	return &MockImageFetcher{
		bodies: make(map[string][]byte),
		errs:   make(map[string]error),
	}
}

// SetBody registers the bytes returned for a URL
func (m *MockImageFetcher) SetBody(url string, body []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bodies[url] = body
}

// SetError makes fetches of url fail with err
func (m *MockImageFetcher) SetError(url string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[url] = err
}

// Fetched returns the URLs fetched so far, in order
func (m *MockImageFetcher) Fetched() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.fetched))
	copy(out, m.fetched)
	return out
}

func (m *MockImageFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	m.mu.Lock()
	m.fetched = append(m.fetched, url)
	m.mu.Unlock()

	m.mu.RLock()
	defer m.mu.RUnlock()
	if err, ok := m.errs[url]; ok {
		return nil, err
	}
	body, ok := m.bodies[url]
	if !ok {
		return nil, fmt.Errorf("no body registered for %s", url)
	}
	return body, nil
}
