package driven

import (
	"context"

	"github.com/statichive/statichive-core/internal/core/domain"
)

// SourceClient fetches raw block trees from the external content source.
// The source is a black box; failures propagate to the caller.
type SourceClient interface {
	// FetchTree retrieves the full block tree for a document
	FetchTree(ctx context.Context, documentID string) (*domain.BlockTree, error)
}
