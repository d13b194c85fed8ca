// Package runlock keeps two copies of a batch job from running at the same
// time when they share a Redis instance.
package runlock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// ErrAlreadyRunning is returned when another process holds the lock.
var ErrAlreadyRunning = errors.New("job is already running")

// Locker serializes named jobs.
type Locker interface {
	Run(ctx context.Context, name string, fn func(ctx context.Context) error) error
}

// RedisLocker holds a redislock lock for the duration of a job.
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
}

func NewRedisLocker(rdb redis.UniversalClient, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: redislock.New(rdb), ttl: ttl}
}

// Connect parses a redis:// URL and verifies the server answers.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// Run obtains "lock:<name>", runs fn and releases the lock. The lock expires
// after the TTL if the process dies mid-run.
func (l *RedisLocker) Run(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	lock, err := l.client.Obtain(ctx, "lock:"+name, l.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return fmt.Errorf("%s: %w", name, ErrAlreadyRunning)
	}
	if err != nil {
		return fmt.Errorf("obtain lock %s: %w", name, err)
	}
	defer lock.Release(context.WithoutCancel(ctx))

	return fn(ctx)
}

// NoopLocker runs jobs without coordination. Used when REDIS_URL is unset.
type NoopLocker struct{}

func (NoopLocker) Run(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
