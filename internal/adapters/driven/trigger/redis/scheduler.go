// Package redis provides a Redis-backed trigger scheduler: pending
// drains live in a sorted set scored by due time, so scheduled
// triggers survive process restarts and any instance can fire them.
package redis

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/statichive/statichive-core/internal/adapters/driven/trigger"
	"github.com/statichive/statichive-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.TriggerScheduler = (*Scheduler)(nil)

const dueSetKey = "statichive:triggers"

// Scheduler implements TriggerScheduler on a Redis sorted set. The
// poll loop pops due documents and invokes the drain handler; the
// ZREM result arbitrates between instances so each due trigger fires
// exactly once.
type Scheduler struct {
	client  *redis.Client
	handler trigger.Handler
	logger  *slog.Logger

	// Internal state
	mu       sync.RWMutex
	running  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
	interval time.Duration

	fireTimeout time.Duration
}

// NewScheduler creates a Redis-backed scheduler polling at interval
// (default: 1s).
func NewScheduler(client *redis.Client, logger *slog.Logger, interval time.Duration) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Scheduler{
		client:      client,
		logger:      logger,
		interval:    interval,
		fireTimeout: time.Minute,
	}
}

// OnFire sets the drain handler. Must be called before Start.
func (s *Scheduler) OnFire(handler trigger.Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = handler
}

// Schedule arranges for the handler to fire after delay. Rescheduling
// replaces the previous due time.
func (s *Scheduler) Schedule(documentID string, delay time.Duration) {
	due := float64(time.Now().Add(delay).UnixMilli())
	err := s.client.ZAdd(context.Background(), dueSetKey, redis.Z{
		Score:  due,
		Member: documentID,
	}).Err()
	if err != nil {
		s.logger.Error("schedule trigger", "document_id", documentID, "error", err)
	}
}

// Cancel removes any pending trigger for the document.
func (s *Scheduler) Cancel(documentID string) {
	if err := s.client.ZRem(context.Background(), dueSetKey, documentID).Err(); err != nil {
		s.logger.Error("cancel trigger", "document_id", documentID, "error", err)
	}
}

// Start begins the poll loop.
// It runs until Stop is called or context is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	s.logger.Info("trigger scheduler starting", "poll_interval", s.interval)
	go s.run(ctx)
}

// Stop gracefully stops the poll loop.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	close(s.stopCh)
	s.mu.Unlock()

	<-s.doneCh

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info("trigger scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.fireDue(ctx)
		}
	}
}

// fireDue pops every due document and invokes the handler for each.
func (s *Scheduler) fireDue(ctx context.Context) {
	s.mu.RLock()
	handler := s.handler
	s.mu.RUnlock()
	if handler == nil {
		return
	}

	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	due, err := s.client.ZRangeByScore(ctx, dueSetKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: now,
	}).Result()
	if err != nil {
		s.logger.Error("poll triggers", "error", err)
		return
	}

	for _, documentID := range due {
		// Whichever instance removes the member fires it.
		removed, err := s.client.ZRem(ctx, dueSetKey, documentID).Result()
		if err != nil {
			s.logger.Error("claim trigger", "document_id", documentID, "error", err)
			continue
		}
		if removed == 0 {
			continue
		}

		fireCtx, cancel := context.WithTimeout(ctx, s.fireTimeout)
		handler(fireCtx, documentID)
		cancel()
	}
}
