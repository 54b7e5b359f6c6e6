package driven

import (
	"context"

	"github.com/statichive/statichive-core/internal/core/domain"
)

// PageStateStore persists per-document coordinator state: the prepared
// page record and the image mirror queue. All access for one document
// happens under the coordinator's per-document serialization, so the
// store only needs whole-value get/save semantics.
type PageStateStore interface {
	// GetPage retrieves the prepared page record.
	// Returns domain.ErrNotFound when the document was never prepared.
	GetPage(ctx context.Context, documentID string) (*domain.PreparedPage, error)

	// SavePage persists the prepared page record
	SavePage(ctx context.Context, page *domain.PreparedPage) error

	// GetQueue retrieves the image mirror queue.
	// Returns domain.ErrNotFound when no queue exists.
	GetQueue(ctx context.Context, documentID string) (*domain.ImageQueue, error)

	// SaveQueue persists the image mirror queue as a whole,
	// incrementing its version
	SaveQueue(ctx context.Context, documentID string, queue *domain.ImageQueue) error
}
