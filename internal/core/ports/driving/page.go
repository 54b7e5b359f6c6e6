package driving

import (
	"context"

	"github.com/statichive/statichive-core/internal/core/domain"
)

// PageService is the preparation coordinator consumed by the HTTP edge.
type PageService interface {
	// PrepareOrFetch returns the prepared page record, running the
	// preparation pipeline when no record exists or refresh is set.
	// Concurrent calls for the same document coalesce into one
	// preparation.
	PrepareOrFetch(ctx context.Context, documentID string, refresh bool) (*domain.PreparedPage, error)

	// Rendered returns the stored rendered markup for a prepared page.
	// Returns domain.ErrNotFound when the document was never prepared.
	Rendered(ctx context.Context, documentID string) ([]byte, error)
}

// MirrorService exposes the image mirror queue to the edge and to the
// trigger scheduler.
type MirrorService interface {
	// DrainOne processes at most one pending queue entry for the
	// document, rescheduling the trigger when entries remain
	DrainOne(ctx context.Context, documentID string)

	// QueueStatus reports the mirror state of one filename
	QueueStatus(ctx context.Context, documentID, filename string) (domain.MirrorStatus, error)

	// GetImage returns mirrored image bytes and content type, waiting
	// a bounded number of rounds for a pending mirror to resolve.
	// Returns domain.ErrNotFound for unknown filenames and
	// domain.ErrMirrorPending when the wait is exhausted.
	GetImage(ctx context.Context, documentID, filename string) ([]byte, string, error)
}
