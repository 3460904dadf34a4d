package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrLockHeld = errors.New("job lock is held by another instance")

var unlockScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	end
	return 0
`)

// RedisLocker is a gocron.Locker backed by SET NX with an expiry, so a crashed
// holder cannot block the job for longer than ttl.
type RedisLocker struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisLocker(client redis.UniversalClient, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (gocron.Lock, error) {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, jobLockKey(key), token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire job lock %s: %w", key, err)
	}

	if !ok {
		return nil, ErrLockHeld
	}

	return &redisLock{client: l.client, key: jobLockKey(key), token: token}, nil
}

type redisLock struct {
	client redis.UniversalClient
	key    string
	token  string
}

// Unlock removes the key only if this instance still owns it.
func (l *redisLock) Unlock(ctx context.Context) error {
	return unlockScript.Run(ctx, l.client, []string{l.key}, l.token).Err()
}

func jobLockKey(name string) string {
	return fmt.Sprintf("job_lock:%s", name)
}
