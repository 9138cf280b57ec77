package session

import (
	"context"
	"fmt"

	"github.com/matzehuels/loggraph/pkg/cache"
	"github.com/matzehuels/loggraph/pkg/graph"
)

// RecordSource produces the commit log in windows.
type RecordSource interface {
	// Name identifies the source and its current state in cache keys.
	Name() string

	// Records returns the window [skip, skip+limit) of the log. A limit of
	// zero or less returns everything after skip.
	Records(ctx context.Context, skip, limit int) ([]graph.CommitRecord, error)
}

// LoadMore reads the next window of at most limit records from src and
// appends it. The window starts after the commits already loaded, so src
// must be the only producer for the session. Windows are read through rc,
// which may be nil.
//
// It returns the update request and the number of records appended; zero
// records means the log is exhausted.
func (s *Session) LoadMore(ctx context.Context, src RecordSource, rc *cache.RecordCache, limit int) (graph.UpdateRequest, int, error) {
	skip := s.CommitCount()
	name := src.Name()

	recs, ok, err := rc.Records(ctx, name, skip, limit)
	if err != nil {
		s.logger.Warn("record cache read failed", "err", err)
		ok = false
	}
	if !ok {
		recs, err = src.Records(ctx, skip, limit)
		if err != nil {
			return graph.UpdateRequest{}, 0, classify(fmt.Errorf("read records: %w", err))
		}
		if len(recs) > 0 {
			if err := rc.PutRecords(ctx, name, skip, limit, recs); err != nil {
				s.logger.Warn("record cache write failed", "err", err)
			}
		}
	} else {
		s.logger.Debug("record window from cache", "skip", skip, "records", len(recs))
	}

	if len(recs) == 0 {
		return graph.UpdateRequest{}, 0, nil
	}
	req, err := s.Append(ctx, recs)
	if err != nil {
		return graph.UpdateRequest{}, 0, err
	}
	return req, len(recs), nil
}

// LoadAll reads src in windows of blockSize until it is exhausted.
func (s *Session) LoadAll(ctx context.Context, src RecordSource, rc *cache.RecordCache, blockSize int) (int, error) {
	total := 0
	for {
		_, n, err := s.LoadMore(ctx, src, rc, blockSize)
		if err != nil {
			return total, err
		}
		if n == 0 || blockSize <= 0 {
			return total + n, nil
		}
		total += n
	}
}
