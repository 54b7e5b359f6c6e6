package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/statichive/statichive-core/internal/core/domain"
)

func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	return client, func() {
		client.Close()
		mr.Close()
	}
}

func TestPageStateStore_PageRoundTrip(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewPageStateStore(client)
	ctx := context.Background()

	page := &domain.PreparedPage{
		DocumentID:   "doc-1",
		RenderedPath: "page/doc-1/abc.html",
		Title:        "Test",
		PreparedAt:   time.Now().UTC().Truncate(time.Second),
	}
	if err := store.SavePage(ctx, page); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.GetPage(ctx, "doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.RenderedPath != page.RenderedPath {
		t.Errorf("expected %s, got %s", page.RenderedPath, got.RenderedPath)
	}
	if got.Title != page.Title {
		t.Errorf("expected %s, got %s", page.Title, got.Title)
	}
	if !got.PreparedAt.Equal(page.PreparedAt) {
		t.Errorf("expected %v, got %v", page.PreparedAt, got.PreparedAt)
	}
}

func TestPageStateStore_GetPage_NotFound(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewPageStateStore(client)
	if _, err := store.GetPage(context.Background(), "missing"); err != domain.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPageStateStore_QueueRoundTrip(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewPageStateStore(client)
	ctx := context.Background()

	queue := domain.NewImageQueue()
	queue.Merge(map[string]string{"aaa.png": "https://cdn.example/a.png"})
	if err := store.SaveQueue(ctx, "doc-1", queue); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if queue.Version != 1 {
		t.Errorf("expected version bump to 1, got %d", queue.Version)
	}

	got, err := store.GetQueue(ctx, "doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Entries["aaa.png"] != "https://cdn.example/a.png" {
		t.Errorf("unexpected entries %v", got.Entries)
	}

	got.MarkResolved("aaa.png")
	if err := store.SaveQueue(ctx, "doc-1", got); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Version != 2 {
		t.Errorf("expected version 2, got %d", got.Version)
	}
}

func TestPageStateStore_GetQueue_NotFound(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewPageStateStore(client)
	if _, err := store.GetQueue(context.Background(), "missing"); err != domain.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPageStateStore_SaveQueue_RejectsStaleWriter(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewPageStateStore(client)
	ctx := context.Background()

	queue := domain.NewImageQueue()
	queue.Merge(map[string]string{"aaa.png": "https://cdn.example/a.png"})
	if err := store.SaveQueue(ctx, "doc-1", queue); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A writer still holding the pre-save version must be rejected.
	stale := domain.NewImageQueue()
	stale.Merge(map[string]string{"bbb.png": "https://cdn.example/b.png"})
	if err := store.SaveQueue(ctx, "doc-1", stale); err == nil {
		t.Error("expected stale version error")
	}

	got, err := store.GetQueue(ctx, "doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := got.Entries["aaa.png"]; !ok {
		t.Errorf("original queue was clobbered: %v", got.Entries)
	}
}
