// Package locker provides per-workflow mutual exclusion. Every mutation of a
// workflow (task completion, return, migration, delay resume) runs under the
// workflow's lock so concurrent requests serialize instead of clobbering each
// other.
package locker

import (
	"context"
	"sync"
	"time"
)

// ReleaseFunc releases a held lock.
type ReleaseFunc func(ctx context.Context) error

// Locker acquires named locks. Acquire blocks until the lock is held or the
// context is cancelled; the returned release function must be called exactly
// once.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (ReleaseFunc, error)
}

// MemoryLocker implements Locker with in-process mutexes. Suitable for a
// single API instance; multi-instance deployments use the Redis locker.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

// NewMemoryLocker creates a new in-process locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		locks: make(map[string]chan struct{}),
	}
}

// Acquire blocks until the named lock is free. The ttl is ignored; in-process
// locks are released when the holder calls the release function or exits.
func (l *MemoryLocker) Acquire(ctx context.Context, key string, _ time.Duration) (ReleaseFunc, error) {
	sem := l.semaphore(key)

	select {
	case sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	release := func(_ context.Context) error {
		<-sem

		return nil
	}

	return release, nil
}

func (l *MemoryLocker) semaphore(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	sem, ok := l.locks[key]
	if !ok {
		sem = make(chan struct{}, 1)
		l.locks[key] = sem
	}

	return sem
}
