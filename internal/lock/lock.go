package lock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrLockTimeout is returned when a lock cannot be acquired within the
// configured acquisition window.
var ErrLockTimeout = errors.New("lock acquisition timed out")

// Locker serializes processing per resource key. Acquire blocks until the
// lock is held or the acquisition window elapses; the returned release
// function is safe to call exactly once.
type Locker interface {
	Acquire(ctx context.Context, key string, purpose string) (release func(), err error)
}

// MemoryLocker is the single-process locker used in tests and when no redis
// address is configured.
type MemoryLocker struct {
	mu             sync.Mutex
	held           map[string]struct{}
	acquireTimeout time.Duration
}

func NewMemoryLocker(acquireTimeout time.Duration) *MemoryLocker {
	if acquireTimeout <= 0 {
		acquireTimeout = 1500 * time.Millisecond
	}
	return &MemoryLocker{
		held:           map[string]struct{}{},
		acquireTimeout: acquireTimeout,
	}
}

func (l *MemoryLocker) tryAcquire(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, taken := l.held[key]; taken {
		return false
	}
	l.held[key] = struct{}{}
	return true
}

func (l *MemoryLocker) release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
}

func (l *MemoryLocker) Acquire(ctx context.Context, key string, purpose string) (func(), error) {
	deadline := time.Now().Add(l.acquireTimeout)
	for {
		if l.tryAcquire(key) {
			var once sync.Once
			return func() { once.Do(func() { l.release(key) }) }, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrLockTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
}
