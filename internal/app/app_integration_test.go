//go:build integration

package app

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/helpdesk-kb/kbresolver/internal/cache"
	"github.com/helpdesk-kb/kbresolver/internal/config"
	"github.com/helpdesk-kb/kbresolver/internal/corpus"
	"github.com/helpdesk-kb/kbresolver/internal/resolver"
	"github.com/helpdesk-kb/kbresolver/internal/storage"
)

func isDockerAvailable() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	provider, err := testcontainers.NewDockerProvider()
	if err != nil {
		return false
	}
	defer provider.Close()

	_, err = provider.Client().Ping(ctx)
	return err == nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	if !isDockerAvailable() {
		t.Skip("Docker not available")
	}
}

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("kb_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Failed to terminate postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func startRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := redis.Run(ctx,
		"redis:7.4-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Failed to terminate redis container: %v", err)
		}
	})

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	return strings.TrimPrefix(uri, "redis://")
}

func TestApp_PostgresStoreWithRedisCache(t *testing.T) {
	requireDocker(t)
	ctx := context.Background()

	dsn := startPostgres(t)
	redisAddr := startRedis(t)

	// Seed the store the way kb-cli import does.
	db, err := storage.Open(ctx, storage.DriverPostgres, dsn)
	require.NoError(t, err)
	require.NoError(t, storage.EnsureSchema(ctx, db))
	repo := storage.NewCorpusRepository(db, nil)
	require.NoError(t, repo.ReplaceFAQ(ctx, []corpus.FAQEntry{
		{Question: "How do I reset my password?", Answer: "Go to settings > reset."},
	}))
	require.NoError(t, repo.ReplaceMisc(ctx, []corpus.MiscEntry{{Question: "hello", Answer: "Hi there!"}}))
	require.NoError(t, repo.UpsertDocument(ctx, corpus.Document{
		Filename: "manual.pdf", Title: "manual", Text: "Hold the power button to reset the unit.", Pages: 1,
		ExtractedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}))
	require.NoError(t, db.Close())

	cfg := config.DefaultConfig()
	cfg.Storage = config.StorageConfig{Driver: storage.DriverPostgres, DSN: dsn}
	cfg.Cache.Driver = "redis"
	cfg.Cache.Redis.Addr = redisAddr
	cfg.Cache.Redis.Prefix = "kbtest:"

	a, err := New(ctx, cfg, nil, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	require.NoError(t, a.Warm(ctx, time.Minute))

	status := a.Engine.Status()
	assert.Equal(t, 1, status.DataSources.FAQ)
	assert.Equal(t, 1, status.DataSources.Misc)
	assert.Equal(t, 1, status.DataSources.PDFs)

	got := a.Engine.Resolve(ctx, "How do I reset my password?")
	assert.Equal(t, resolver.SourceFAQ, got.SourceType)

	// The answer was written through to Redis.
	cached, err := a.Cache.Get(ctx, cache.QueryKey("How do I reset my password?"))
	require.NoError(t, err)
	assert.Contains(t, string(cached), "Go to settings > reset.")

	again := a.Engine.Resolve(ctx, "  how do i reset my password?  ")
	assert.Equal(t, got, again)
}

func TestNewCache_RedisUnreachable(t *testing.T) {
	requireDocker(t)

	_, err := NewCache(context.Background(), config.CacheConfig{
		Driver: "redis",
		Redis:  config.RedisConfig{Addr: "127.0.0.1:1"},
	})
	assert.Error(t, err)
}
