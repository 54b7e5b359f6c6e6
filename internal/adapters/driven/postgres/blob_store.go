package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/statichive/statichive-core/internal/core/domain"
	"github.com/statichive/statichive-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.BlobStore = (*BlobStore)(nil)

// BlobStore implements driven.BlobStore on a single blobs table.
// Upsert-by-path gives the idempotent-overwrite semantics the
// coordinator relies on.
type BlobStore struct {
	db *DB
}

// NewBlobStore creates a new Postgres-backed BlobStore
func NewBlobStore(db *DB) *BlobStore {
	return &BlobStore{db: db}
}

// Get retrieves a blob by path
func (s *BlobStore) Get(ctx context.Context, path string) ([]byte, string, error) {
	var data []byte
	var contentType string
	err := s.db.QueryRowContext(ctx,
		`SELECT data, content_type FROM blobs WHERE path = $1`,
		path,
	).Scan(&data, &contentType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", domain.ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("get blob %s: %w", path, err)
	}
	return data, contentType, nil
}

// Put stores a blob, replacing any previous value at the path
func (s *BlobStore) Put(ctx context.Context, path string, data []byte, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO blobs (path, content_type, data, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (path) DO UPDATE
		SET content_type = EXCLUDED.content_type,
		    data = EXCLUDED.data,
		    updated_at = now()`,
		path, contentType, data,
	)
	if err != nil {
		return fmt.Errorf("put blob %s: %w", path, err)
	}
	return nil
}

// Ping checks if the database backend is healthy.
func (s *BlobStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
