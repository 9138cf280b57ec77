package build

import (
	"errors"
	"fmt"

	"github.com/matzehuels/loggraph/pkg/graph"
)

var (
	// ErrEmptyHash is returned when a record or one of its parents has an
	// empty hash.
	ErrEmptyHash = errors.New("hash must not be empty")

	// ErrDuplicateCommit is returned when a hash is already a commit in the
	// graph or appears twice in the batch.
	ErrDuplicateCommit = errors.New("duplicate commit")

	// ErrSelfParent is returned when a record lists itself as a parent.
	ErrSelfParent = errors.New("commit lists itself as parent")

	// ErrParentBeforeChild is returned when a parent has already been
	// processed as a commit. Records must list children before parents.
	ErrParentBeforeChild = errors.New("parent appears before child")

	// ErrLogIndexOrder is returned when log indices do not strictly increase.
	ErrLogIndexOrder = errors.New("log index must strictly increase")
)

// RecordError reports which record of a batch was rejected.
type RecordError struct {
	Index int        // Position in the batch
	Hash  graph.Hash // Hash of the rejected record
	Err   error      // One of the sentinel errors above
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %d (%s): %v", e.Index, e.Hash, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// Validate checks a batch of records against an existing graph without
// modifying it. g may be nil for a fresh build.
func Validate(g *graph.Graph, records []graph.CommitRecord) error {
	resolved := func(h graph.Hash) bool {
		if g == nil {
			return false
		}
		_, ok := g.CommitNode(h)
		return ok
	}
	last, hasLast := 0, false
	if g != nil {
		last, hasLast = g.LastLogIndex()
	}

	seen := make(map[graph.Hash]bool, len(records))
	for i, rec := range records {
		fail := func(err error, format string, args ...any) error {
			return &RecordError{Index: i, Hash: rec.Hash, Err: fmt.Errorf("%w: "+format, append([]any{err}, args...)...)}
		}
		if rec.Hash == "" {
			return &RecordError{Index: i, Err: ErrEmptyHash}
		}
		if seen[rec.Hash] || resolved(rec.Hash) {
			return &RecordError{Index: i, Hash: rec.Hash, Err: ErrDuplicateCommit}
		}
		if hasLast && rec.LogIndex <= last {
			return fail(ErrLogIndexOrder, "%d after %d", rec.LogIndex, last)
		}
		for _, p := range rec.Parents {
			switch {
			case p == "":
				return &RecordError{Index: i, Hash: rec.Hash, Err: ErrEmptyHash}
			case p == rec.Hash:
				return &RecordError{Index: i, Hash: rec.Hash, Err: ErrSelfParent}
			case seen[p] || resolved(p):
				return fail(ErrParentBeforeChild, "parent %s", p)
			}
		}
		seen[rec.Hash] = true
		last, hasLast = rec.LogIndex, true
	}
	return nil
}
