package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/statichive/statichive-core/internal/core/domain"
	"github.com/statichive/statichive-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.PageStateStore = (*PageStateStore)(nil)

const (
	// Key prefixes for Redis
	pagePrefix  = "statichive:page:"
	queuePrefix = "statichive:queue:"
)

// PageStateStore implements driven.PageStateStore using Redis.
// Records are stored as JSON values; the coordinator's per-document
// serialization makes whole-value get/set sufficient. Queue saves bump
// the version and refuse to overwrite a newer queue, so a stale writer
// surfaces instead of silently clobbering state.
type PageStateStore struct {
	client *redis.Client
}

// NewPageStateStore creates a new Redis-backed PageStateStore
func NewPageStateStore(client *redis.Client) *PageStateStore {
	return &PageStateStore{client: client}
}

// GetPage retrieves the prepared page record for a document
func (s *PageStateStore) GetPage(ctx context.Context, documentID string) (*domain.PreparedPage, error) {
	data, err := s.client.Get(ctx, pagePrefix+documentID).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get page %s: %w", documentID, err)
	}

	var page domain.PreparedPage
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("unmarshal page %s: %w", documentID, err)
	}
	return &page, nil
}

// SavePage persists the prepared page record
func (s *PageStateStore) SavePage(ctx context.Context, page *domain.PreparedPage) error {
	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("marshal page %s: %w", page.DocumentID, err)
	}
	if err := s.client.Set(ctx, pagePrefix+page.DocumentID, data, 0).Err(); err != nil {
		return fmt.Errorf("save page %s: %w", page.DocumentID, err)
	}
	return nil
}

// GetQueue retrieves the image mirror queue for a document
func (s *PageStateStore) GetQueue(ctx context.Context, documentID string) (*domain.ImageQueue, error) {
	data, err := s.client.Get(ctx, queuePrefix+documentID).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get queue %s: %w", documentID, err)
	}

	var queue domain.ImageQueue
	if err := json.Unmarshal(data, &queue); err != nil {
		return nil, fmt.Errorf("unmarshal queue %s: %w", documentID, err)
	}
	if queue.Entries == nil {
		queue.Entries = make(map[string]string)
	}
	return &queue, nil
}

// saveQueueScript stores the queue only when the stored version is
// older, returning the stored version on conflict.
var saveQueueScript = redis.NewScript(`
	local current = redis.call("get", KEYS[1])
	if current then
		local decoded = cjson.decode(current)
		if decoded.version >= tonumber(ARGV[2]) then
			return decoded.version
		end
	end
	redis.call("set", KEYS[1], ARGV[1])
	return 0
`)

// SaveQueue persists the queue as a whole with an incremented version
func (s *PageStateStore) SaveQueue(ctx context.Context, documentID string, queue *domain.ImageQueue) error {
	next := queue.Version + 1
	payload := domain.ImageQueue{Version: next, Entries: queue.Entries}
	data, err := json.Marshal(&payload)
	if err != nil {
		return fmt.Errorf("marshal queue %s: %w", documentID, err)
	}

	result, err := saveQueueScript.Run(ctx, s.client, []string{queuePrefix + documentID}, data, next).Result()
	if err != nil {
		return fmt.Errorf("save queue %s: %w", documentID, err)
	}
	if stored, ok := result.(int64); ok && stored != 0 {
		return fmt.Errorf("save queue %s: stale version %d, stored %d", documentID, next, stored)
	}

	queue.Version = next
	return nil
}

// Ping checks if the Redis backend is healthy.
func (s *PageStateStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
