package services

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// KeyLock serializes work per document identifier within one process.
// Each key maps to a weighted semaphore of capacity one, so acquisition
// is context-aware: a caller blocked behind an in-flight preparation
// can still give up when its request context is cancelled. Entries are
// refcounted and dropped once uncontended.
type KeyLock struct {
	mu    sync.Mutex
	locks map[string]*keyLockEntry
}

type keyLockEntry struct {
	sem  *semaphore.Weighted
	refs int
}

// NewKeyLock creates an empty KeyLock. The page and mirror services
// for one deployment must share a single instance so preparations and
// queue drains for the same document never interleave.
func NewKeyLock() *KeyLock {
	return &KeyLock{locks: make(map[string]*keyLockEntry)}
}

// Acquire blocks until the key is free or ctx is done. On success it
// returns a release function; the caller must invoke it exactly once.
func (l *KeyLock) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &keyLockEntry{sem: semaphore.NewWeighted(1)}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	if err := entry.sem.Acquire(ctx, 1); err != nil {
		l.put(key, entry)
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			entry.sem.Release(1)
			l.put(key, entry)
		})
	}, nil
}

func (l *KeyLock) put(key string, entry *keyLockEntry) {
	l.mu.Lock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, key)
	}
	l.mu.Unlock()
}
