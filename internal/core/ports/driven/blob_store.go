package driven

import "context"

// BlobStore is the durable byte storage substrate. Paths are plain
// strings; writes to an existing path are idempotent overwrites.
// There are no transactions beyond single-key atomicity.
type BlobStore interface {
	// Get retrieves a blob and its content type.
	// Returns domain.ErrNotFound when the path is absent.
	Get(ctx context.Context, path string) (data []byte, contentType string, err error)

	// Put stores a blob under a path, replacing any previous value
	Put(ctx context.Context, path string, data []byte, contentType string) error
}
