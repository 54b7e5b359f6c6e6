package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/statichive/statichive-core/internal/core/domain"
	"github.com/statichive/statichive-core/internal/core/ports/driven"
	"github.com/statichive/statichive-core/internal/core/ports/driving"
	"github.com/statichive/statichive-core/internal/extract"
)

// Ensure mirrorService implements MirrorService
var _ driving.MirrorService = (*mirrorService)(nil)

// mirrorService drains the image mirror queue and serves mirrored
// bytes to the edge. Drains share the page service's KeyLock, so a
// drain never races a preparation for the same document.
type mirrorService struct {
	state   driven.PageStateStore
	blobs   driven.BlobStore
	fetcher driven.ImageFetcher
	trigger driven.TriggerScheduler
	keys    *KeyLock
	logger  *slog.Logger

	triggerDelay time.Duration
	pollInterval time.Duration
	pollRounds   int
}

// MirrorServiceConfig holds dependencies for the mirror service.
type MirrorServiceConfig struct {
	State   driven.PageStateStore
	Blobs   driven.BlobStore
	Fetcher driven.ImageFetcher
	Trigger driven.TriggerScheduler
	Keys    *KeyLock // shared with the page service
	Logger  *slog.Logger

	// TriggerDelay is the gap before the rescheduled drain when
	// pending entries remain (default: 1s).
	TriggerDelay time.Duration

	// PollInterval and PollRounds bound how long GetImage waits for a
	// pending mirror (defaults: 1s, 3 rounds).
	PollInterval time.Duration
	PollRounds   int
}

// NewMirrorService creates the mirror queue service.
func NewMirrorService(cfg MirrorServiceConfig) driving.MirrorService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	keys := cfg.Keys
	if keys == nil {
		keys = NewKeyLock()
	}
	delay := cfg.TriggerDelay
	if delay <= 0 {
		delay = time.Second
	}
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = time.Second
	}
	rounds := cfg.PollRounds
	if rounds <= 0 {
		rounds = 3
	}

	return &mirrorService{
		state:        cfg.State,
		blobs:        cfg.Blobs,
		fetcher:      cfg.Fetcher,
		trigger:      cfg.Trigger,
		keys:         keys,
		logger:       logger,
		triggerDelay: delay,
		pollInterval: interval,
		pollRounds:   rounds,
	}
}

// DrainOne processes exactly one pending entry per invocation. The
// resolved sentinel is persisted before the network fetch, so a failed
// download is given up rather than retried in a tight loop; only a
// fresh preparation re-enqueues it. When pending entries remain the
// trigger is rescheduled, otherwise the cycle stops.
func (s *mirrorService) DrainOne(ctx context.Context, documentID string) {
	release, err := s.keys.Acquire(ctx, documentID)
	if err != nil {
		return
	}
	defer release()

	queue, err := s.state.GetQueue(ctx, documentID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("load image queue", "document_id", documentID, "error", err)
		}
		return
	}

	filename, source, ok := queue.NextPending()
	if !ok {
		return
	}

	queue.MarkResolved(filename)
	if err := s.state.SaveQueue(ctx, documentID, queue); err != nil {
		s.logger.Error("save image queue", "document_id", documentID, "error", err)
		return
	}

	if err := s.mirror(ctx, documentID, filename, source); err != nil {
		s.logger.Warn("image mirror failed",
			"document_id", documentID,
			"filename", filename,
			"url", source,
			"error", err,
		)
	}

	if queue.HasPending() {
		s.trigger.Schedule(documentID, s.triggerDelay)
	}
}

func (s *mirrorService) mirror(ctx context.Context, documentID, filename, source string) error {
	body, err := s.fetcher.Fetch(ctx, source)
	if err != nil {
		return err
	}
	return s.blobs.Put(ctx, domain.ImageBlobPath(documentID, filename), body, extract.ContentTypeFor(filename))
}

// QueueStatus reports the mirror state of one filename.
func (s *mirrorService) QueueStatus(ctx context.Context, documentID, filename string) (domain.MirrorStatus, error) {
	queue, err := s.state.GetQueue(ctx, documentID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.MirrorAbsent, nil
	}
	if err != nil {
		return domain.MirrorAbsent, err
	}
	return queue.Status(filename), nil
}

// GetImage returns mirrored bytes, waiting a bounded number of rounds
// for a pending entry to resolve. Callers past the bound get
// domain.ErrMirrorPending and should surface a transient-unavailable
// response.
func (s *mirrorService) GetImage(ctx context.Context, documentID, filename string) ([]byte, string, error) {
	for round := 0; round < s.pollRounds; round++ {
		queue, err := s.state.GetQueue(ctx, documentID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", domain.ErrNotFound
		}
		if err != nil {
			return nil, "", err
		}

		switch queue.Status(filename) {
		case domain.MirrorAbsent:
			return nil, "", domain.ErrNotFound
		case domain.MirrorResolved:
			// The blob may still be absent when the mirror fetch gave
			// up; that surfaces as not found.
			return s.blobs.Get(ctx, domain.ImageBlobPath(documentID, filename))
		case domain.MirrorPending:
			select {
			case <-ctx.Done():
				return nil, "", ctx.Err()
			case <-time.After(s.pollInterval):
			}
		}
	}
	return nil, "", domain.ErrMirrorPending
}
