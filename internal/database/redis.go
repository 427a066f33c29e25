package database

import (
	"context"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// RedisLocker hands out short-lived redis mutexes keyed by name.
type RedisLocker struct {
	client *redis.Client
	locker *redislock.Client
	ttl    time.Duration
}

func NewRedisLocker(ctx context.Context, addr string, ttl time.Duration) (*RedisLocker, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: "",
		DB:       0,
		PoolSize: 20,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	return &RedisLocker{client: rdb, locker: redislock.New(rdb), ttl: ttl}, nil
}

// Acquire blocks until key is held or the retry budget runs out. The returned
// func releases the lock.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	lock, err := l.locker.Obtain(ctx, key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(50*time.Millisecond), 40),
	})
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}
	return func() {
		// an expired lock is already gone
		_ = lock.Release(context.Background())
	}, nil
}

func (l *RedisLocker) Close() error {
	return l.client.Close()
}
