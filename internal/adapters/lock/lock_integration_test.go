//go:build integration

package lock_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/SscSPs/ledger_sync/internal/adapters/lock"
	portssvc "github.com/SscSPs/ledger_sync/internal/core/ports/services"
)

func startContainer(t *testing.T, req testcontainers.ContainerRequest, port string) string {
	t.Helper()
	ctx := context.Background()
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	mapped, err := c.MappedPort(ctx, port)
	require.NoError(t, err)
	return fmt.Sprintf("%s:%s", host, mapped.Port())
}

func TestPostgresLocker(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping in short mode")
	}
	addr := startContainer(t, testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env:          map[string]string{"POSTGRES_PASSWORD": "secret", "POSTGRES_DB": "ledger"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(90 * time.Second),
	}, "5432/tcp")

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, fmt.Sprintf("postgres://postgres:secret@%s/ledger?sslmode=disable", addr))
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	l := lock.NewPostgresLocker(pool)
	release, err := l.Obtain(ctx, "tenant-1")
	require.NoError(t, err)

	_, err = l.Obtain(ctx, "tenant-1")
	assert.ErrorIs(t, err, portssvc.ErrLockNotObtained)

	require.NoError(t, release(ctx))
	again, err := l.Obtain(ctx, "tenant-1")
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}

func TestRedisLocker(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping in short mode")
	}
	addr := startContainer(t, testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(60 * time.Second),
	}, "6379/tcp")

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	l := lock.NewRedisLocker(client, time.Minute)
	release, err := l.Obtain(ctx, "tenant-1")
	require.NoError(t, err)

	_, err = l.Obtain(ctx, "tenant-1")
	assert.ErrorIs(t, err, portssvc.ErrLockNotObtained)

	require.NoError(t, release(ctx))
	again, err := l.Obtain(ctx, "tenant-1")
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}

func TestRedisLockerOutlivesTTLWhileHeld(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping in short mode")
	}
	addr := startContainer(t, testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(60 * time.Second),
	}, "6379/tcp")

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	l := lock.NewRedisLocker(client, 300*time.Millisecond)
	release, err := l.Obtain(ctx, "tenant-1")
	require.NoError(t, err)

	// a run lasting several TTLs still excludes a second run
	time.Sleep(time.Second)
	_, err = l.Obtain(ctx, "tenant-1")
	assert.ErrorIs(t, err, portssvc.ErrLockNotObtained)

	require.NoError(t, release(ctx))
	again, err := l.Obtain(ctx, "tenant-1")
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}
