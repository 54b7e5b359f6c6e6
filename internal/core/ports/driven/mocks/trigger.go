package mocks

import (
	"sync"
	"time"
)

// MockTriggerScheduler records scheduled and cancelled triggers without
// firing anything by itself. Tests drive drains directly.
type MockTriggerScheduler struct {
	mu        sync.Mutex
	pending   map[string]time.Duration
	scheduled []string
	cancelled []string
}

// NewMockTriggerScheduler creates a new MockTriggerScheduler
func NewMockTriggerScheduler() *MockTriggerScheduler {
	return &MockTriggerScheduler{pending: make(map[string]time.Duration)}
}

func (m *MockTriggerScheduler) Schedule(documentID string, delay time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending[documentID] = delay
	m.scheduled = append(m.scheduled, documentID)
}

func (m *MockTriggerScheduler) Cancel(documentID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, documentID)
	m.cancelled = append(m.cancelled, documentID)
}

// Pending reports whether a trigger is currently scheduled for the document
func (m *MockTriggerScheduler) Pending(documentID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.pending[documentID]
	return ok
}

// ScheduleCount returns how many times Schedule was called for the document
func (m *MockTriggerScheduler) ScheduleCount(documentID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, id := range m.scheduled {
		if id == documentID {
			n++
		}
	}
	return n
}

// CancelCount returns how many times Cancel was called for the document
func (m *MockTriggerScheduler) CancelCount(documentID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, id := range m.cancelled {
		if id == documentID {
			n++
		}
	}
	return n
}
