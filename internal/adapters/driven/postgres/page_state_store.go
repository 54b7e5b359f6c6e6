package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/statichive/statichive-core/internal/core/domain"
	"github.com/statichive/statichive-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.PageStateStore = (*PageStateStore)(nil)

// PageStateStore implements driven.PageStateStore using PostgreSQL.
// It is the fallback backend when Redis is not configured. Queue saves
// carry the same versioning contract as the Redis store: an update only
// lands when the new version is strictly greater than the stored one.
type PageStateStore struct {
	db *DB
}

// NewPageStateStore creates a new PostgreSQL-backed PageStateStore
func NewPageStateStore(db *DB) *PageStateStore {
	return &PageStateStore{db: db}
}

// GetPage retrieves the prepared page record for a document
func (s *PageStateStore) GetPage(ctx context.Context, documentID string) (*domain.PreparedPage, error) {
	query := `
		SELECT document_id, rendered_path, raw_path, title, prepared_at
		FROM pages
		WHERE document_id = $1`

	var page domain.PreparedPage
	err := s.db.DB.QueryRowContext(ctx, query, documentID).Scan(
		&page.DocumentID,
		&page.RenderedPath,
		&page.RawPath,
		&page.Title,
		&page.PreparedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get page %s: %w", documentID, err)
	}
	return &page, nil
}

// SavePage persists the prepared page record
func (s *PageStateStore) SavePage(ctx context.Context, page *domain.PreparedPage) error {
	query := `
		INSERT INTO pages (document_id, rendered_path, raw_path, title, prepared_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (document_id) DO UPDATE SET
			rendered_path = EXCLUDED.rendered_path,
			raw_path = EXCLUDED.raw_path,
			title = EXCLUDED.title,
			prepared_at = EXCLUDED.prepared_at`

	_, err := s.db.DB.ExecContext(ctx, query,
		page.DocumentID, page.RenderedPath, page.RawPath, page.Title, page.PreparedAt)
	if err != nil {
		return fmt.Errorf("save page %s: %w", page.DocumentID, err)
	}
	return nil
}

// GetQueue retrieves the image mirror queue for a document
func (s *PageStateStore) GetQueue(ctx context.Context, documentID string) (*domain.ImageQueue, error) {
	query := `SELECT version, entries FROM image_queues WHERE document_id = $1`

	var queue domain.ImageQueue
	var entries []byte
	err := s.db.DB.QueryRowContext(ctx, query, documentID).Scan(&queue.Version, &entries)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get queue %s: %w", documentID, err)
	}

	if err := json.Unmarshal(entries, &queue.Entries); err != nil {
		return nil, fmt.Errorf("unmarshal queue %s: %w", documentID, err)
	}
	if queue.Entries == nil {
		queue.Entries = make(map[string]string)
	}
	return &queue, nil
}

// SaveQueue persists the queue as a whole with an incremented version.
// A stale writer, whose version is not newer than the stored one, gets
// an error instead of clobbering state.
func (s *PageStateStore) SaveQueue(ctx context.Context, documentID string, queue *domain.ImageQueue) error {
	next := queue.Version + 1
	entries, err := json.Marshal(queue.Entries)
	if err != nil {
		return fmt.Errorf("marshal queue %s: %w", documentID, err)
	}

	query := `
		INSERT INTO image_queues (document_id, version, entries)
		VALUES ($1, $2, $3)
		ON CONFLICT (document_id) DO UPDATE SET
			version = EXCLUDED.version,
			entries = EXCLUDED.entries
		WHERE image_queues.version < EXCLUDED.version`

	result, err := s.db.DB.ExecContext(ctx, query, documentID, next, entries)
	if err != nil {
		return fmt.Errorf("save queue %s: %w", documentID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("save queue %s: %w", documentID, err)
	}
	if rows == 0 {
		return fmt.Errorf("save queue %s: stale version %d", documentID, next)
	}

	queue.Version = next
	return nil
}

// Ping checks if the database backend is healthy.
func (s *PageStateStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
