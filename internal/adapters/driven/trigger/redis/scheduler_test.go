package redis

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func setupTestRedis(t *testing.T) (*goredis.Client, func()) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	return client, func() {
		client.Close()
		mr.Close()
	}
}

func TestScheduler_FiresDueTrigger(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	s := NewScheduler(client, nil, 10*time.Millisecond)
	fired := make(chan string, 1)
	s.OnFire(func(ctx context.Context, documentID string) {
		fired <- documentID
	})

	s.Start(context.Background())
	defer s.Stop()

	s.Schedule("doc-1", 5*time.Millisecond)

	select {
	case id := <-fired:
		if id != "doc-1" {
			t.Errorf("unexpected document %s", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("trigger never fired")
	}
}

func TestScheduler_CancelPreventsFire(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	s := NewScheduler(client, nil, 10*time.Millisecond)
	var fires atomic.Int64
	s.OnFire(func(ctx context.Context, documentID string) {
		fires.Add(1)
	})

	s.Schedule("doc-1", 30*time.Millisecond)
	s.Cancel("doc-1")

	s.Start(context.Background())
	defer s.Stop()

	time.Sleep(150 * time.Millisecond)
	if fires.Load() != 0 {
		t.Errorf("cancelled trigger fired %d times", fires.Load())
	}
}

func TestScheduler_NotDueYet(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	s := NewScheduler(client, nil, 10*time.Millisecond)
	var fires atomic.Int64
	s.OnFire(func(ctx context.Context, documentID string) {
		fires.Add(1)
	})

	s.Start(context.Background())
	defer s.Stop()

	s.Schedule("doc-1", time.Hour)
	time.Sleep(100 * time.Millisecond)
	if fires.Load() != 0 {
		t.Errorf("future trigger fired %d times", fires.Load())
	}
}

func TestScheduler_RescheduleReplacesDueTime(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	s := NewScheduler(client, nil, 10*time.Millisecond)
	var fires atomic.Int64
	s.OnFire(func(ctx context.Context, documentID string) {
		fires.Add(1)
	})

	s.Schedule("doc-1", 5*time.Millisecond)
	s.Schedule("doc-1", 20*time.Millisecond)

	s.Start(context.Background())
	defer s.Stop()

	time.Sleep(200 * time.Millisecond)
	if fires.Load() != 1 {
		t.Errorf("expected exactly one fire, got %d", fires.Load())
	}
}
