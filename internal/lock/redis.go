package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "oncall:lock:person:"

// releaseScript deletes the key only if we still own it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisLocker coordinates person locks across processes.
type RedisLocker struct {
	client redis.UniversalClient
	ttl    time.Duration
	retry  time.Duration
	logger *zap.Logger
}

// NewRedisLocker builds a locker; ttl bounds how long a crashed holder blocks others.
func NewRedisLocker(client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RedisLocker{client: client, ttl: ttl, retry: 25 * time.Millisecond, logger: logger}
}

// Lock spins on SET NX until acquired or ctx ends.
func (l *RedisLocker) Lock(ctx context.Context, personID string) (func(), error) {
	key := keyPrefix + personID
	token := uuid.NewString()

	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ErrNotAcquired
			}
			return nil, fmt.Errorf("acquire %s: %w", key, err)
		}
		if ok {
			return func() { l.release(key, token) }, nil
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, ErrNotAcquired
		}
	}
}

func (l *RedisLocker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
		l.logger.Warn("release person lock", zap.String("key", key), zap.Error(err))
	}
}
