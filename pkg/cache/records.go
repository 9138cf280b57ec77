package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/matzehuels/loggraph/pkg/graph"
	"github.com/matzehuels/loggraph/pkg/observability"
)

// DefaultTTL is the lifetime of cached record blocks.
const DefaultTTL = 24 * time.Hour

// Entries are JSON compressed with zstd. Record windows of large logs are
// mostly repeated hex digits and shrink several times over.
var (
	encoder, _ = zstd.NewWriter(nil)
	decoder, _ = zstd.NewReader(nil)
)

// RecordCache stores blocks of commit records and reference lists on top of
// a byte-oriented [Cache].
//
// A nil *RecordCache is valid and always misses, so callers may pass nil to
// disable caching.
type RecordCache struct {
	cache Cache
	keyer Keyer
	ttl   time.Duration
}

// NewRecordCache wraps c. A nil keyer selects [DefaultKeyer]; a ttl of zero
// selects [DefaultTTL].
func NewRecordCache(c Cache, keyer Keyer, ttl time.Duration) *RecordCache {
	if c == nil {
		c = NewNullCache()
	}
	if keyer == nil {
		keyer = NewDefaultKeyer()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RecordCache{cache: c, keyer: keyer, ttl: ttl}
}

// Records returns a cached window of records.
func (rc *RecordCache) Records(ctx context.Context, source string, skip, limit int) ([]graph.CommitRecord, bool, error) {
	if rc == nil {
		return nil, false, nil
	}
	var recs []graph.CommitRecord
	ok, err := rc.get(ctx, "records", rc.keyer.RecordsKey(source, skip, limit), &recs)
	return recs, ok, err
}

// PutRecords stores a window of records.
func (rc *RecordCache) PutRecords(ctx context.Context, source string, skip, limit int, recs []graph.CommitRecord) error {
	if rc == nil {
		return nil
	}
	return rc.put(ctx, "records", rc.keyer.RecordsKey(source, skip, limit), recs)
}

// Refs returns the cached branch reference hashes of a source.
func (rc *RecordCache) Refs(ctx context.Context, source string) ([]graph.Hash, bool, error) {
	if rc == nil {
		return nil, false, nil
	}
	var refs []graph.Hash
	ok, err := rc.get(ctx, "refs", rc.keyer.RefsKey(source), &refs)
	return refs, ok, err
}

// PutRefs stores the branch reference hashes of a source.
func (rc *RecordCache) PutRefs(ctx context.Context, source string, refs []graph.Hash) error {
	if rc == nil {
		return nil
	}
	return rc.put(ctx, "refs", rc.keyer.RefsKey(source), refs)
}

// Close closes the underlying cache.
func (rc *RecordCache) Close() error {
	if rc == nil {
		return nil
	}
	return rc.cache.Close()
}

func (rc *RecordCache) get(ctx context.Context, kind, key string, v any) (bool, error) {
	data, ok, err := rc.cache.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if !ok {
		observability.Cache().OnCacheMiss(ctx, kind)
		return false, nil
	}
	raw, err := decoder.DecodeAll(data, nil)
	if err == nil {
		err = json.Unmarshal(raw, v)
	}
	if err != nil {
		// Undecodable entries are dropped and treated as misses.
		_ = rc.cache.Delete(ctx, key)
		observability.Cache().OnCacheMiss(ctx, kind)
		return false, nil
	}
	observability.Cache().OnCacheHit(ctx, kind)
	return true, nil
}

func (rc *RecordCache) put(ctx context.Context, kind, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	data := encoder.EncodeAll(raw, nil)
	if err := rc.cache.Set(ctx, key, data, rc.ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, kind, len(data))
	return nil
}
