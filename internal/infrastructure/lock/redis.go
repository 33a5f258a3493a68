// Package lock provides a Redis-backed implementation of stock.Locker.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"stockledger/internal/core/apperror"
	"stockledger/internal/domain/registers/stock"
	"stockledger/pkg/logger"
)

var _ stock.Locker = (*RedisLocker)(nil)

// Config tunes lock acquisition.
type Config struct {
	// TTL bounds how long a crashed holder can block a key.
	TTL time.Duration

	// RetryInterval and RetryCount control waiting for a held key.
	RetryInterval time.Duration
	RetryCount    int
}

// DefaultConfig returns defaults suitable for short stock mutations.
func DefaultConfig() Config {
	return Config{
		TTL:           10 * time.Second,
		RetryInterval: 50 * time.Millisecond,
		RetryCount:    40,
	}
}

type releaseFunc func(ctx context.Context) error

type obtainFunc func(ctx context.Context, key string) (releaseFunc, error)

// RedisLocker holds one redislock lock per key.
type RedisLocker struct {
	obtain obtainFunc
}

// NewRedisLocker creates a locker on client.
func NewRedisLocker(client *redis.Client, cfg Config) *RedisLocker {
	locker := redislock.New(client)
	opts := &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(cfg.RetryInterval), cfg.RetryCount),
	}

	return newLocker(func(ctx context.Context, key string) (releaseFunc, error) {
		l, err := locker.Obtain(ctx, key, cfg.TTL, opts)
		if err != nil {
			return nil, err
		}
		return l.Release, nil
	})
}

func newLocker(obtain obtainFunc) *RedisLocker {
	return &RedisLocker{obtain: obtain}
}

// Acquire obtains keys in order. On failure every lock taken so far is released.
// The returned release function frees the locks in reverse order.
func (r *RedisLocker) Acquire(ctx context.Context, keys ...string) (func(), error) {
	held := make([]releaseFunc, 0, len(keys))

	releaseAll := func() {
		for i := len(held) - 1; i >= 0; i-- {
			// Background context: release must run even after ctx is cancelled.
			if err := held[i](context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				logger.Warn(ctx, "release stock lock failed", "error", err)
			}
		}
	}

	for _, key := range keys {
		release, err := r.obtain(ctx, key)
		if err != nil {
			releaseAll()
			if errors.Is(err, redislock.ErrNotObtained) {
				return nil, apperror.NewConcurrentModification("stock_lock", key)
			}
			return nil, fmt.Errorf("obtain lock %s: %w", key, err)
		}
		held = append(held, release)
	}

	return releaseAll, nil
}
