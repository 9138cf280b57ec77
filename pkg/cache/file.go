package cache

import (
	"context"
	"encoding/binary"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// entryExt is the extension of entry files. Clear only removes files with
// this extension, so a misconfigured directory is not wiped.
const entryExt = ".entry"

// FileCache keeps one file per entry below a directory, sharded by the first
// two digest characters of the key. It is the CLI default and needs no
// running service.
//
// An entry file starts with the expiry as big-endian Unix nanoseconds, zero
// for entries that never expire, followed by the payload.
type FileCache struct {
	dir string
}

// NewFileCache opens a cache rooted at dir, creating it when missing.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *FileCache) Dir() string { return c.dir }

// Get implements Cache. Truncated and expired entries are removed and
// reported as misses.
func (c *FileCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)
	raw, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}
	if len(raw) < 8 {
		_ = os.Remove(path)
		return nil, false, nil
	}
	if exp := int64(binary.BigEndian.Uint64(raw)); exp != 0 && time.Now().UnixNano() > exp {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return raw[8:], true, nil
}

// Set implements Cache. The entry is written beside its final name and
// renamed into place, so readers see either the old or the new entry.
func (c *FileCache) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	raw := make([]byte, 8, 8+len(data))
	if ttl > 0 {
		binary.BigEndian.PutUint64(raw, uint64(time.Now().Add(ttl).UnixNano()))
	}
	raw = append(raw, data...)

	path := c.path(key)
	shard := filepath.Dir(path)
	if err := os.MkdirAll(shard, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(shard, ".tmp-*")
	if err != nil {
		return err
	}
	_, werr := tmp.Write(raw)
	cerr := tmp.Close()
	if werr == nil {
		werr = cerr
	}
	if werr != nil {
		_ = os.Remove(tmp.Name())
		return werr
	}
	return os.Rename(tmp.Name(), path)
}

// Delete implements Cache.
func (c *FileCache) Delete(_ context.Context, key string) error {
	if err := os.Remove(c.path(key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Clear removes every entry file and the emptied shard directories, and
// returns the number of entries removed. The cache directory itself stays.
func (c *FileCache) Clear() (int, error) {
	removed := 0
	var shards []string
	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		switch {
		case err != nil:
			return nil
		case d.IsDir():
			if path != c.dir {
				shards = append(shards, path)
			}
		case filepath.Ext(path) == entryExt:
			if os.Remove(path) == nil {
				removed++
			}
		}
		return nil
	})
	for _, s := range shards {
		_ = os.Remove(s)
	}
	return removed, err
}

// Close implements Cache.
func (c *FileCache) Close() error { return nil }

func (c *FileCache) path(key string) string {
	d := Digest(key)
	return filepath.Join(c.dir, d[:2], d[2:]+entryExt)
}

var _ Cache = (*FileCache)(nil)
