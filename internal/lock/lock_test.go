package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryLockerMutualExclusion(t *testing.T) {
	locker := NewMemoryLocker(2 * time.Second)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maximum int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Acquire(ctx, "order-1", "checkout")
			assert.NoError(t, err)
			defer release()

			mu.Lock()
			inside++
			if inside > maximum {
				maximum = inside
			}
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maximum)
}

func TestMemoryLockerTimesOutWhenHeld(t *testing.T) {
	locker := NewMemoryLocker(50 * time.Millisecond)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "order-1", "checkout")
	assert.NoError(t, err)
	defer release()

	_, err = locker.Acquire(ctx, "order-1", "confirm-reject")
	assert.ErrorIs(t, err, ErrLockTimeout)
}

func TestMemoryLockerKeysAreIndependent(t *testing.T) {
	locker := NewMemoryLocker(50 * time.Millisecond)
	ctx := context.Background()

	releaseA, err := locker.Acquire(ctx, "order-a", "checkout")
	assert.NoError(t, err)
	defer releaseA()

	releaseB, err := locker.Acquire(ctx, "order-b", "checkout")
	assert.NoError(t, err)
	releaseB()
}

func TestMemoryLockerReleaseIsIdempotent(t *testing.T) {
	locker := NewMemoryLocker(time.Second)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "order-1", "checkout")
	assert.NoError(t, err)
	release()
	release()

	again, err := locker.Acquire(ctx, "order-1", "checkout")
	assert.NoError(t, err)
	again()
}

func TestMemoryLockerHonorsContextCancellation(t *testing.T) {
	locker := NewMemoryLocker(5 * time.Second)

	release, err := locker.Acquire(context.Background(), "order-1", "checkout")
	assert.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err = locker.Acquire(ctx, "order-1", "checkout")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
