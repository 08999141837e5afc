package lock

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock key only if it still carries our token, so
// a lock that expired and was re-acquired elsewhere is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements the locker across processes with SET NX PX and a
// compare-and-delete release.
type RedisLocker struct {
	client         *redis.Client
	ttl            time.Duration
	acquireTimeout time.Duration
}

func NewRedisLocker(client *redis.Client, ttl, acquireTimeout time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if acquireTimeout <= 0 {
		acquireTimeout = 1500 * time.Millisecond
	}
	return &RedisLocker{client: client, ttl: ttl, acquireTimeout: acquireTimeout}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, purpose string) (func(), error) {
	token := uuid.NewString()
	lockKey := "lock:" + key
	deadline := time.Now().Add(l.acquireTimeout)

	for {
		acquired, err := l.client.SetNX(ctx, lockKey, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if acquired {
			return func() {
				releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				if err := releaseScript.Run(releaseCtx, l.client, []string{lockKey}, token).Err(); err != nil && err != redis.Nil {
					log.Printf("lock: releasing %s (%s) failed: %v", lockKey, purpose, err)
				}
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrLockTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}
