package cache

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
)

// Backend names accepted by Open.
const (
	BackendNone  = "none"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Backends lists every backend name accepted by Open.
var Backends = []string{BackendNone, BackendFile, BackendSQLite, BackendRedis, BackendMongo}

// Options selects and configures a cache backend.
type Options struct {
	Backend string

	Dir string // file, sqlite

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MongoURI        string
	MongoDatabase   string
	MongoCollection string

	Prefix string
	Logger *log.Logger
}

// Open constructs the backend named by opts.Backend. An empty name selects
// the file cache when Dir is set and the null cache otherwise.
func Open(ctx context.Context, opts Options) (Cache, error) {
	backend := opts.Backend
	if backend == "" {
		backend = BackendNone
		if opts.Dir != "" {
			backend = BackendFile
		}
	}

	switch backend {
	case BackendNone:
		return NewNullCache(), nil
	case BackendFile:
		if opts.Dir == "" {
			return nil, fmt.Errorf("file cache: no directory configured")
		}
		c, err := NewFileCache(opts.Dir)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendSQLite:
		if opts.Dir == "" {
			return nil, fmt.Errorf("sqlite cache: no directory configured")
		}
		c, err := NewSQLiteCache(opts.Dir)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendRedis:
		c, err := NewRedisCache(ctx, RedisOptions{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
			Prefix:   opts.Prefix,
			Logger:   opts.Logger,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendMongo:
		c, err := NewMongoCache(ctx, MongoOptions{
			URI:        opts.MongoURI,
			Database:   opts.MongoDatabase,
			Collection: opts.MongoCollection,
			Logger:     opts.Logger,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}
