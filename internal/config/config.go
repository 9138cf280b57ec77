// Package config loads the loggraph configuration file.
//
// The file lives at $XDG_CONFIG_HOME/loggraph/config.toml, falling back to
// ~/.config/loggraph/config.toml. A missing file is not an error: every
// field has a default, and command-line flags override both.
//
//	[layout]
//	lane_width = 16.0
//	long_edge_size = 30
//
//	[conceal]
//	enabled = true
//	min_size = 2
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	ttl = "12h"
//
//	[server]
//	addr = ":8080"
//	repo_root = "/srv/git"
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/loggraph/pkg/cache"
	"github.com/matzehuels/loggraph/pkg/graph/fragment"
	"github.com/matzehuels/loggraph/pkg/printcell"
	"github.com/matzehuels/loggraph/pkg/session"
)

const (
	appName  = "loggraph"
	fileName = "config.toml"

	// DefaultAddr is the listen address of the HTTP API.
	DefaultAddr = "127.0.0.1:8080"

	// DefaultBlockSize is the number of commits loaded per block.
	DefaultBlockSize = 1000

	// DefaultMaxRecords bounds the records accepted in one API request.
	DefaultMaxRecords = 100_000
)

// Config is the decoded configuration file.
type Config struct {
	Layout  printcell.Options `toml:"layout"`
	Conceal Conceal           `toml:"conceal"`
	Cache   Cache             `toml:"cache"`
	Source  Source            `toml:"source"`
	Server  Server            `toml:"server"`
}

// Conceal configures fragment concealment.
type Conceal struct {
	Enabled bool `toml:"enabled"`
	MinSize int  `toml:"min_size"`
}

// Cache configures the record-block cache.
type Cache struct {
	Backend string        `toml:"backend"`
	Dir     string        `toml:"dir"`
	TTL     time.Duration `toml:"ttl"`

	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`

	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
}

// Source configures how records are read from repositories.
type Source struct {
	BlockSize int `toml:"block_size"`
}

// Server configures the HTTP API.
type Server struct {
	Addr string `toml:"addr"`

	// RepoRoot is the directory repositories may be opened from. Empty
	// disables opening repositories through the API.
	RepoRoot string `toml:"repo_root"`

	MaxRecords int `toml:"max_records"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Layout: printcell.DefaultOptions(),
		Conceal: Conceal{
			MinSize: fragment.DefaultMinSize,
		},
		Cache: Cache{
			Backend:         cache.BackendFile,
			TTL:             cache.DefaultTTL,
			MongoDatabase:   cache.DefaultMongoDatabase,
			MongoCollection: cache.DefaultMongoCollection,
		},
		Source: Source{BlockSize: DefaultBlockSize},
		Server: Server{
			Addr:       DefaultAddr,
			MaxRecords: DefaultMaxRecords,
		},
	}
}

// Dir returns the configuration directory.
func Dir() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// Path returns the location of the configuration file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// Load reads the file at path on top of the defaults. A missing file
// yields the defaults. Unknown keys are logged and ignored.
func Load(path string, logger *log.Logger) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, cfg)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if logger != nil {
		for _, key := range md.Undecoded() {
			logger.Warn("unknown config key", "key", key.String(), "file", path)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDefault reads the file at Path.
func LoadDefault(logger *log.Logger) (*Config, error) {
	path, err := Path()
	if err != nil {
		return Default(), nil
	}
	return Load(path, logger)
}

// Validate checks field ranges and names.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case "", cache.BackendNone, cache.BackendFile, cache.BackendSQLite, cache.BackendRedis, cache.BackendMongo:
	default:
		return fmt.Errorf("%w: %q", cache.ErrUnknownBackend, c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache ttl must not be negative: %s", c.Cache.TTL)
	}
	if c.Conceal.MinSize < 1 {
		return fmt.Errorf("conceal min_size must be at least 1: %d", c.Conceal.MinSize)
	}
	if c.Source.BlockSize < 1 {
		return fmt.Errorf("source block_size must be at least 1: %d", c.Source.BlockSize)
	}
	if c.Layout.LaneWidth < 0 || c.Layout.RowHeight < 0 {
		return fmt.Errorf("layout dimensions must not be negative")
	}
	return nil
}

// CacheOptions returns the options for cache.Open. dir is used when the
// file backend has no directory configured.
func (c *Config) CacheOptions(dir string, logger *log.Logger) cache.Options {
	if c.Cache.Dir != "" {
		dir = c.Cache.Dir
	}
	return cache.Options{
		Backend:         c.Cache.Backend,
		Dir:             dir,
		RedisAddr:       c.Cache.RedisAddr,
		RedisPassword:   c.Cache.RedisPassword,
		RedisDB:         c.Cache.RedisDB,
		MongoURI:        c.Cache.MongoURI,
		MongoDatabase:   c.Cache.MongoDatabase,
		MongoCollection: c.Cache.MongoCollection,
		Logger:          logger,
	}
}

// SessionOptions returns the options for a new session.
func (c *Config) SessionOptions(logger *log.Logger) session.Options {
	return session.Options{
		Layout:      c.Layout,
		Conceal:     c.Conceal.Enabled,
		MinFragment: c.Conceal.MinSize,
		Logger:      logger,
	}
}
