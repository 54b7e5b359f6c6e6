package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/statichive/statichive-core/internal/core/domain"
	"github.com/statichive/statichive-core/internal/core/ports/driven"
	"github.com/statichive/statichive-core/internal/core/ports/driving"
	"github.com/statichive/statichive-core/internal/extract"
	"github.com/statichive/statichive-core/internal/render"
)

// Ensure pageService implements PageService
var _ driving.PageService = (*pageService)(nil)

// placeholderMarkup is published when rendering fails: a partial
// pipeline failure degrades content, it does not fail the document.
const placeholderMarkup = "<div></div>"

// distLockTTL bounds how long a crashed instance can hold a document.
const distLockTTL = 2 * time.Minute

// pageService is the per-document preparation coordinator. All state
// access for one document happens under the shared KeyLock, so at most
// one preparation is in flight per document identifier.
type pageService struct {
	source   driven.SourceClient
	state    driven.PageStateStore
	blobs    driven.BlobStore
	trigger  driven.TriggerScheduler
	distLock driven.DistributedLock
	keys     *KeyLock
	renderer *render.Renderer
	logger   *slog.Logger

	keepRaw      bool
	triggerDelay time.Duration
}

// PageServiceConfig holds dependencies for the page service.
type PageServiceConfig struct {
	Source  driven.SourceClient
	State   driven.PageStateStore
	Blobs   driven.BlobStore
	Trigger driven.TriggerScheduler
	Keys    *KeyLock // shared with the mirror service

	// DistLock, when set, extends the single-flight guarantee across
	// instances. Optional.
	DistLock driven.DistributedLock

	Logger *slog.Logger

	// KeepRaw stores a JSON snapshot of the fetched block tree next to
	// the rendered markup.
	KeepRaw bool

	// TriggerDelay is how soon after preparation the first mirror drain
	// fires (default: 1s).
	TriggerDelay time.Duration
}

// NewPageService creates the preparation coordinator.
func NewPageService(cfg PageServiceConfig) driving.PageService {
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

	return &pageService{
		source:       cfg.Source,
		state:        cfg.State,
		blobs:        cfg.Blobs,
		trigger:      cfg.Trigger,
		distLock:     cfg.DistLock,
		keys:         keys,
		renderer:     render.New(nil),
		logger:       logger,
		keepRaw:      cfg.KeepRaw,
		triggerDelay: delay,
	}
}

// PrepareOrFetch returns the prepared page record, preparing on a cache
// miss or when refresh is set. Concurrent callers for the same document
// serialize on the key lock; the ones that lose the race find the
// record the winner published and return without a second source fetch.
func (s *pageService) PrepareOrFetch(ctx context.Context, documentID string, refresh bool) (*domain.PreparedPage, error) {
	if documentID == "" {
		return nil, domain.ErrInvalidInput
	}

	release, err := s.keys.Acquire(ctx, documentID)
	if err != nil {
		return nil, err
	}
	defer release()

	if refresh {
		// A trigger scheduled for the previous queue must not fire
		// against the one this preparation is about to write.
		s.trigger.Cancel(documentID)
	} else {
		page, err := s.state.GetPage(ctx, documentID)
		if err == nil {
			return page, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}

	if s.distLock != nil {
		releaseDist, err := s.acquireDistLock(ctx, documentID)
		if err != nil {
			return nil, err
		}
		defer releaseDist()

		if !refresh {
			// Another instance may have prepared while we waited.
			if page, err := s.state.GetPage(ctx, documentID); err == nil {
				return page, nil
			}
		}
	}

	return s.prepare(ctx, documentID)
}

// Rendered returns the stored rendered markup for a prepared document.
func (s *pageService) Rendered(ctx context.Context, documentID string) ([]byte, error) {
	page, err := s.state.GetPage(ctx, documentID)
	if err != nil {
		return nil, err
	}
	data, _, err := s.blobs.Get(ctx, page.RenderedPath)
	return data, err
}

// prepare runs the pipeline: fetch, render, rewrite, persist blobs,
// seed the mirror queue, then publish the record. The record write is
// strictly last so a reader that observes it can assume the rendered
// path exists; the queue write strictly precedes its trigger.
func (s *pageService) prepare(ctx context.Context, documentID string) (*domain.PreparedPage, error) {
	tree, err := s.source.FetchTree(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceFetch, err)
	}

	markup, err := s.renderer.Render(tree)
	if err != nil {
		s.logger.Warn("render failed, publishing placeholder",
			"document_id", documentID,
			"error", err,
		)
		markup = placeholderMarkup
	}

	result := extract.Rewrite(documentID, markup)
	contentHash := extract.ContentHash([]byte(result.Markup))

	renderedPath := domain.RenderedBlobPath(documentID, contentHash)
	if err := s.blobs.Put(ctx, renderedPath, []byte(result.Markup), "text/html; charset=utf-8"); err != nil {
		return nil, fmt.Errorf("store rendered markup: %w", err)
	}

	rawPath := ""
	if s.keepRaw {
		snapshot, err := json.Marshal(tree)
		if err != nil {
			return nil, fmt.Errorf("marshal raw snapshot: %w", err)
		}
		rawPath = domain.RawBlobPath(documentID, contentHash)
		if err := s.blobs.Put(ctx, rawPath, snapshot, "application/json"); err != nil {
			return nil, fmt.Errorf("store raw snapshot: %w", err)
		}
	}

	if len(result.Images) > 0 {
		queue, err := s.state.GetQueue(ctx, documentID)
		if errors.Is(err, domain.ErrNotFound) {
			queue = domain.NewImageQueue()
		} else if err != nil {
			return nil, fmt.Errorf("load image queue: %w", err)
		}

		queue.Merge(result.Images)
		if err := s.state.SaveQueue(ctx, documentID, queue); err != nil {
			return nil, fmt.Errorf("save image queue: %w", err)
		}
		if queue.HasPending() {
			s.trigger.Schedule(documentID, s.triggerDelay)
		}
	}

	page := &domain.PreparedPage{
		DocumentID:   documentID,
		RenderedPath: renderedPath,
		RawPath:      rawPath,
		Title:        rootTitle(tree),
		PreparedAt:   time.Now().UTC(),
	}
	if err := s.state.SavePage(ctx, page); err != nil {
		return nil, fmt.Errorf("publish page record: %w", err)
	}

	s.logger.Info("page prepared",
		"document_id", documentID,
		"rendered_path", renderedPath,
		"images", len(result.Images),
	)
	return page, nil
}

// acquireDistLock claims the cross-instance lock with bounded retry.
func (s *pageService) acquireDistLock(ctx context.Context, documentID string) (func(), error) {
	name := "page:" + documentID
	for attempt := 0; attempt < 10; attempt++ {
		acquired, err := s.distLock.Acquire(ctx, name, distLockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire preparation lock: %w", err)
		}
		if acquired {
			return func() {
				if err := s.distLock.Release(context.WithoutCancel(ctx), name); err != nil {
					s.logger.Error("release preparation lock", "document_id", documentID, "error", err)
				}
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
	return nil, domain.ErrPrepareInProgress
}

func rootTitle(tree *domain.BlockTree) string {
	root := tree.Root()
	if root == nil {
		return ""
	}
	return root.TitleText()
}
