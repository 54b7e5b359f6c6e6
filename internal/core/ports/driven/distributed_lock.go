package driven

import (
	"context"
	"time"
)

// DistributedLock provides cross-instance mutual exclusion. The
// in-process key lock already serializes preparations within one
// instance; a DistributedLock extends the single-flight contract
// across a multi-instance deployment.
type DistributedLock interface {
	// Acquire attempts to acquire a named lock with the given TTL.
	// Returns true if acquired, false if held by another instance.
	Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error)

	// Release releases a named lock if held by this instance
	Release(ctx context.Context, name string) error

	// Ping checks backend health
	Ping(ctx context.Context) error
}
