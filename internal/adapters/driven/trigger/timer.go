// Package trigger provides in-process scheduling of mirror queue
// drains: one cancelable one-shot timer per document.
package trigger

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/statichive/statichive-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.TriggerScheduler = (*TimerScheduler)(nil)

// Handler is invoked when a trigger fires.
type Handler func(ctx context.Context, documentID string)

// TimerScheduler implements TriggerScheduler with time.AfterFunc.
// Scheduling replaces any pending timer for the document, so at most
// one trigger is ever pending per document.
type TimerScheduler struct {
	mu      sync.Mutex
	timers  map[string]*time.Timer
	handler Handler
	logger  *slog.Logger
	stopped bool

	// fireTimeout bounds one drain invocation
	fireTimeout time.Duration
}

// NewTimerScheduler creates a TimerScheduler. The handler is attached
// later via OnFire because the mirror service and the scheduler
// reference each other.
func NewTimerScheduler(logger *slog.Logger) *TimerScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TimerScheduler{
		timers:      make(map[string]*time.Timer),
		logger:      logger,
		fireTimeout: time.Minute,
	}
}

// OnFire sets the drain handler. Must be called before Schedule.
func (s *TimerScheduler) OnFire(handler Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = handler
}

// Schedule arranges for the handler to fire after delay, replacing any
// pending trigger for the document.
func (s *TimerScheduler) Schedule(documentID string, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.handler == nil {
		return
	}

	if existing, ok := s.timers[documentID]; ok {
		existing.Stop()
	}
	s.timers[documentID] = time.AfterFunc(delay, func() {
		s.fire(documentID)
	})
}

// Cancel removes any pending trigger for the document.
func (s *TimerScheduler) Cancel(documentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.timers[documentID]; ok {
		existing.Stop()
		delete(s.timers, documentID)
	}
}

// Stop cancels all pending triggers. Triggers already firing run to
// completion.
func (s *TimerScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
}

func (s *TimerScheduler) fire(documentID string) {
	s.mu.Lock()
	delete(s.timers, documentID)
	handler := s.handler
	stopped := s.stopped
	s.mu.Unlock()
	if stopped || handler == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.fireTimeout)
	defer cancel()
	handler(ctx, documentID)
}
