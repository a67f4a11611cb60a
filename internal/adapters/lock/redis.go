package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	portssvc "github.com/SscSPs/ledger_sync/internal/core/ports/services"
)

// RedisLocker holds the tenant lock as a Redis key with a TTL, for deployments
// running several replicas without a shared session to Postgres.
type RedisLocker struct {
	locker *redislock.Client
	ttl    time.Duration
}

// NewRedisLocker creates a locker on top of client. A held lock is extended
// every ttl/3 while the run is alive, and expires after ttl once the holder dies.
func NewRedisLocker(client redis.UniversalClient, ttl time.Duration) *RedisLocker {
	return &RedisLocker{locker: redislock.New(client), ttl: ttl}
}

var _ portssvc.TenantLocker = (*RedisLocker)(nil)

// Obtain implements portssvc.TenantLocker.
func (l *RedisLocker) Obtain(ctx context.Context, tenantID string) (func(context.Context) error, error) {
	lk, err := l.locker.Obtain(ctx, "lock:"+lockKey(tenantID), l.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, portssvc.ErrLockNotObtained
	}
	if err != nil {
		return nil, fmt.Errorf("obtain redis lock: %w", err)
	}

	keepCtx, stopKeep := context.WithCancel(context.WithoutCancel(ctx))
	kept := make(chan struct{})
	go l.keepAlive(keepCtx, lk, kept)

	return func(ctx context.Context) error {
		stopKeep()
		<-kept
		err := lk.Release(context.WithoutCancel(ctx))
		if errors.Is(err, redislock.ErrLockNotHeld) {
			return fmt.Errorf("redis lock for tenant %s expired before release", tenantID)
		}
		return err
	}, nil
}

// keepAlive refreshes the lock until ctx is cancelled or the lock is lost.
func (l *RedisLocker) keepAlive(ctx context.Context, lk *redislock.Lock, done chan<- struct{}) {
	defer close(done)
	interval := l.ttl / 3
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := lk.Refresh(ctx, l.ttl, nil); err != nil {
				if errors.Is(err, redislock.ErrNotObtained) {
					slog.Default().Warn("Redis tenant lock lost while held", slog.String("key", lk.Key()))
				}
				if ctx.Err() != nil || errors.Is(err, redislock.ErrNotObtained) {
					return
				}
			}
		}
	}
}
