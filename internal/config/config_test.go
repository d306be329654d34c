package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SERVER_PORT", "PORT", "SERVER_HOST", "DATA_DIR", "DOCUMENTS_DIR", "DATABASE_URL",
		"REDIS_URL", "OPENROUTER_API_KEY", "OPENROUTER_MODEL", "LOG_LEVEL", "LOG_FORMAT",
		"RESOLVER_RANDOM_SEED",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 1000, cfg.Server.MaxMessageLength)
	assert.Equal(t, "file", cfg.Storage.Driver)
	assert.Equal(t, "memory", cfg.Cache.Driver)
	assert.Equal(t, DefaultResolverConfig(), cfg.Resolver)
	assert.Equal(t, 300, cfg.Data.WordsPerChunk)
}

func TestLoad_YAMLRelativePaths(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 8080
data:
  dir: corpora
  documents_dir: /srv/docs
cache:
  ttl: 30s
resolver:
  faq_threshold: 0.45
  strategy_fallthrough: true
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, filepath.Join(dir, "corpora"), cfg.Data.Dir)
	assert.Equal(t, "/srv/docs", cfg.Data.DocumentsDir)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 0.45, cfg.Resolver.FAQThreshold)
	assert.True(t, cfg.Resolver.StrategyFallthrough)
	// Unset keys keep their defaults.
	assert.Equal(t, 0.3, cfg.Resolver.MiscThreshold)
}

func TestLoad_EnvOverrides(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		check func(t *testing.T, cfg *Config)
	}{
		{
			name: "port fallback",
			env:  map[string]string{"PORT": "9000"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9000, cfg.Server.Port)
			},
		},
		{
			name: "server port wins over port",
			env:  map[string]string{"PORT": "9000", "SERVER_PORT": "9100"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9100, cfg.Server.Port)
			},
		},
		{
			name: "sqlite database url",
			env:  map[string]string{"DATABASE_URL": "sqlite:/tmp/kb.db"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, StorageConfig{Driver: "sqlite", DSN: "/tmp/kb.db"}, cfg.Storage)
			},
		},
		{
			name: "postgres database url",
			env:  map[string]string{"DATABASE_URL": "postgres://u:p@db/kb?sslmode=disable"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "postgres", cfg.Storage.Driver)
				assert.Equal(t, "postgres://u:p@db/kb?sslmode=disable", cfg.Storage.DSN)
			},
		},
		{
			name: "redis url",
			env:  map[string]string{"REDIS_URL": "redis://cache:6379"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "redis", cfg.Cache.Driver)
				assert.Equal(t, "cache:6379", cfg.Cache.Redis.Addr)
			},
		},
		{
			name: "llm and seed",
			env:  map[string]string{"OPENROUTER_API_KEY": "sk", "OPENROUTER_MODEL": "m", "RESOLVER_RANDOM_SEED": "7"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "sk", cfg.LLM.APIKey)
				assert.Equal(t, "m", cfg.LLM.Model)
				assert.Equal(t, int64(7), cfg.Resolver.RandomSeed)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load("")
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid defaults", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "invalid server port"},
		{"zero message length", func(c *Config) { c.Server.MaxMessageLength = 0 }, "max_message_length"},
		{"sqlite without dsn", func(c *Config) { c.Storage.Driver = "sqlite" }, "requires a dsn"},
		{"unknown storage", func(c *Config) { c.Storage.Driver = "mongo" }, "invalid storage driver"},
		{"unknown cache", func(c *Config) { c.Cache.Driver = "memcached" }, "invalid cache driver"},
		{"threshold above one", func(c *Config) { c.Resolver.FAQThreshold = 1.5 }, "faq_threshold"},
		{"no near misses", func(c *Config) { c.Resolver.MaxNearMisses = 0 }, "max_near_misses"},
		{"zero chunk size", func(c *Config) { c.Data.WordsPerChunk = 0 }, "words_per_chunk"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config file")
}
