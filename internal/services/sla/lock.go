package sla

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SweepLock serializes sweeps across processes. Acquire returns false when
// another holder owns the lock.
type SweepLock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// NoopLock always acquires. Used in single-process deployments and tests.
type NoopLock struct{}

func (NoopLock) Acquire(context.Context) (bool, error) { return true, nil }
func (NoopLock) Release(context.Context) error         { return nil }

const sweepLockKey = "sladesk:sweep:lock"

// RedisLock is a best-effort distributed sweep lock built on SET NX with a
// TTL. The TTL keeps a crashed holder from blocking sweeps forever; it is
// not a fencing token.
type RedisLock struct {
	client *redis.Client
	ttl    time.Duration
	token  string
}

// NewRedisLock creates a sweep lock with the given holder token and TTL.
func NewRedisLock(client *redis.Client, token string, ttl time.Duration) *RedisLock {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisLock{client: client, ttl: ttl, token: token}
}

// Acquire attempts to take the lock.
func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, sweepLockKey, l.token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire sweep lock: %w", err)
	}
	return ok, nil
}

// Release frees the lock if this holder still owns it.
func (l *RedisLock) Release(ctx context.Context) error {
	// Only delete our own token so an expired-and-reacquired lock survives.
	const script = `if redis.call("GET", KEYS[1]) == ARGV[1] then return redis.call("DEL", KEYS[1]) else return 0 end`
	if err := l.client.Eval(ctx, script, []string{sweepLockKey}, l.token).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("failed to release sweep lock: %w", err)
	}
	return nil
}
