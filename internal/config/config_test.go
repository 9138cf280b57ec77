package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/loggraph/pkg/cache"
	"github.com/matzehuels/loggraph/pkg/printcell"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"), nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, printcell.DefaultOptions(), cfg.Layout)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[layout]
lane_width = 20.0
long_edge_size = 0

[conceal]
enabled = true
min_size = 3

[cache]
backend = "redis"
redis_addr = "cache:6379"
redis_db = 2
ttl = "90m"

[source]
block_size = 250

[server]
addr = ":9000"
repo_root = "/srv/git"
`)
	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, 20.0, cfg.Layout.LaneWidth)
	assert.Equal(t, printcell.DefaultRowHeight, cfg.Layout.RowHeight)
	assert.Equal(t, 0, cfg.Layout.LongEdgeSize)
	assert.True(t, cfg.Conceal.Enabled)
	assert.Equal(t, 3, cfg.Conceal.MinSize)
	assert.Equal(t, cache.BackendRedis, cfg.Cache.Backend)
	assert.Equal(t, "cache:6379", cfg.Cache.RedisAddr)
	assert.Equal(t, 2, cfg.Cache.RedisDB)
	assert.Equal(t, 90*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, cache.DefaultMongoDatabase, cfg.Cache.MongoDatabase)
	assert.Equal(t, 250, cfg.Source.BlockSize)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "/srv/git", cfg.Server.RepoRoot)
	assert.Equal(t, DefaultMaxRecords, cfg.Server.MaxRecords)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"syntax", "[cache\nbackend = 1"},
		{"backend", "[cache]\nbackend = \"memcached\""},
		{"min size", "[conceal]\nmin_size = 0"},
		{"block size", "[source]\nblock_size = -1"},
		{"ttl", "[cache]\nttl = \"-1h\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body), nil)
			assert.Error(t, err)
		})
	}
}

func TestPathHonoursXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	path, err := Path()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "loggraph", "config.toml"), path)
}

func TestCacheOptions(t *testing.T) {
	cfg := Default()
	opts := cfg.CacheOptions("/tmp/fallback", nil)
	assert.Equal(t, cache.BackendFile, opts.Backend)
	assert.Equal(t, "/tmp/fallback", opts.Dir)

	cfg.Cache.Dir = "/var/cache/loggraph"
	assert.Equal(t, "/var/cache/loggraph", cfg.CacheOptions("/tmp/fallback", nil).Dir)
}

func TestSessionOptions(t *testing.T) {
	cfg := Default()
	cfg.Conceal = Conceal{Enabled: true, MinSize: 4}
	opts := cfg.SessionOptions(nil)
	assert.True(t, opts.Conceal)
	assert.Equal(t, 4, opts.MinFragment)
	assert.Equal(t, cfg.Layout, opts.Layout)
}

func TestValidateAcceptsEveryBackend(t *testing.T) {
	for _, b := range cache.Backends {
		cfg := Default()
		cfg.Cache.Backend = b
		assert.NoError(t, cfg.Validate(), "backend %q", b)
	}
}
