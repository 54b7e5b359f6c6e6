package services

import (
	"context"
	"testing"
	"time"
)

func TestKeyLock_SerializesSameKey(t *testing.T) {
	locks := NewKeyLock()
	ctx := context.Background()

	release, err := locks.Acquire(ctx, "doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	acquired := make(chan struct{})
	go func() {
		release2, err := locks.Acquire(ctx, "doc-1")
		if err != nil {
			t.Errorf("unexpected error: %v", err)
			return
		}
		close(acquired)
		release2()
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire should block while first is held")
	case <-time.After(50 * time.Millisecond):
	}

	release()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second acquire never proceeded")
	}
}

func TestKeyLock_IndependentKeys(t *testing.T) {
	locks := NewKeyLock()
	ctx := context.Background()

	release1, err := locks.Acquire(ctx, "doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer release1()

	done := make(chan struct{})
	go func() {
		release2, err := locks.Acquire(ctx, "doc-2")
		if err != nil {
			t.Errorf("unexpected error: %v", err)
			return
		}
		release2()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("different keys should not contend")
	}
}

func TestKeyLock_AcquireHonorsContext(t *testing.T) {
	locks := NewKeyLock()

	release, err := locks.Acquire(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := locks.Acquire(ctx, "doc-1"); err == nil {
		t.Fatal("expected context deadline error")
	}
}

func TestKeyLock_ReleaseIdempotent(t *testing.T) {
	locks := NewKeyLock()

	release, err := locks.Acquire(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	release()
	release() // second call must be a no-op

	again, err := locks.Acquire(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	again()
}
