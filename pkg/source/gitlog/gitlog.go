package gitlog

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/emirpasic/gods/trees/binaryheap"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/matzehuels/loggraph/pkg/cache"
	"github.com/matzehuels/loggraph/pkg/graph"
	"github.com/matzehuels/loggraph/pkg/graph/fragment"
)

// ErrNotRepository is returned by Open when path holds no git repository.
var ErrNotRepository = errors.New("not a git repository")

// Ref is a named reference resolved to a commit.
type Ref struct {
	Name string     `json:"name"`
	Hash graph.Hash `json:"hash"`
}

// Source produces commit records from a repository. It is safe for
// concurrent use.
type Source struct {
	repo *git.Repository
	name string

	mu    sync.Mutex
	state string // digest of the references the order was computed for
	order []graph.CommitRecord
}

// Open opens the repository containing path.
func Open(path string) (*Source, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("%w: %s", ErrNotRepository, path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return FromRepository(repo, path), nil
}

// FromRepository wraps an already opened repository. The name identifies the
// repository in cache keys and messages.
func FromRepository(repo *git.Repository, name string) *Source {
	return &Source{repo: repo, name: name}
}

// Repository returns the underlying repository.
func (s *Source) Repository() *git.Repository { return s.repo }

// Name returns the repository name followed by a digest of its references.
// The name changes whenever a reference moves, so cached record windows of
// an older state are never reused.
func (s *Source) Name() string {
	refs, err := s.References()
	if err != nil {
		return s.name
	}
	return s.name + "@" + stateDigest(refs)[:16]
}

// References returns every branch, remote-tracking branch and tag resolved
// to its commit, plus HEAD when it points to a commit. The result is sorted
// by name.
func (s *Source) References() ([]Ref, error) {
	iter, err := s.repo.References()
	if err != nil {
		return nil, fmt.Errorf("list references: %w", err)
	}
	defer iter.Close()

	var refs []Ref
	err = iter.ForEach(func(r *plumbing.Reference) error {
		if r.Type() != plumbing.HashReference {
			return nil
		}
		n := r.Name()
		if !n.IsBranch() && !n.IsRemote() && !n.IsTag() {
			return nil
		}
		h, ok := s.peel(r.Hash())
		if !ok {
			return nil
		}
		refs = append(refs, Ref{Name: n.Short(), Hash: h})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list references: %w", err)
	}

	if head, err := s.repo.Head(); err == nil {
		if h, ok := s.peel(head.Hash()); ok {
			refs = append(refs, Ref{Name: "HEAD", Hash: h})
		}
	}

	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs, nil
}

// Refs returns the set of commits pointed to by a reference.
func (s *Source) Refs(ctx context.Context) (fragment.RefSet, error) {
	refs, err := s.References()
	if err != nil {
		return nil, err
	}
	set := make(fragment.RefSet, len(refs))
	for _, r := range refs {
		set[r.Hash] = true
	}
	return set, nil
}

// Labels maps each referenced commit to the short names pointing at it.
func (s *Source) Labels() (map[graph.Hash][]string, error) {
	refs, err := s.References()
	if err != nil {
		return nil, err
	}
	out := make(map[graph.Hash][]string)
	for _, r := range refs {
		out[r.Hash] = append(out[r.Hash], r.Name)
	}
	return out, nil
}

// Records returns the window [skip, skip+limit) of the log. A limit of zero
// or less returns everything after skip. LogIndex of each record is its
// position in the full log.
func (s *Source) Records(ctx context.Context, skip, limit int) ([]graph.CommitRecord, error) {
	if skip < 0 {
		return nil, fmt.Errorf("negative skip %d", skip)
	}
	order, err := s.log(ctx)
	if err != nil {
		return nil, err
	}
	if skip >= len(order) {
		return nil, nil
	}
	end := len(order)
	if limit > 0 && skip+limit < end {
		end = skip + limit
	}
	out := make([]graph.CommitRecord, end-skip)
	copy(out, order[skip:end])
	return out, nil
}

// Len returns the number of commits in the log.
func (s *Source) Len(ctx context.Context) (int, error) {
	order, err := s.log(ctx)
	return len(order), err
}

// log returns the full ordered log, recomputing it when references moved.
func (s *Source) log(ctx context.Context) ([]graph.CommitRecord, error) {
	refs, err := s.References()
	if err != nil {
		return nil, err
	}
	state := stateDigest(refs)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.order != nil && s.state == state {
		return s.order, nil
	}

	order, err := s.walk(ctx, refs)
	if err != nil {
		return nil, err
	}
	s.order, s.state = order, state
	return order, nil
}

type commitInfo struct {
	hash    plumbing.Hash
	parents []plumbing.Hash
	when    time.Time
}

// walk collects every reachable commit and orders it topologically.
func (s *Source) walk(ctx context.Context, refs []Ref) ([]graph.CommitRecord, error) {
	commits := make(map[plumbing.Hash]*commitInfo)
	var stack []plumbing.Hash
	for _, r := range refs {
		stack = append(stack, plumbing.NewHash(string(r.Hash)))
	}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := commits[h]; ok {
			continue
		}
		c, err := s.repo.CommitObject(h)
		if err != nil {
			return nil, fmt.Errorf("read commit %s: %w", h, err)
		}
		commits[h] = &commitInfo{hash: h, parents: c.ParentHashes, when: c.Committer.When}
		for _, p := range c.ParentHashes {
			if _, ok := commits[p]; !ok {
				stack = append(stack, p)
			}
		}
	}

	// children counts how many loaded commits still have to be emitted
	// before a commit becomes available.
	children := make(map[plumbing.Hash]int, len(commits))
	for _, c := range commits {
		for _, p := range c.parents {
			children[p]++
		}
	}

	ready := binaryheap.NewWith(byDateOrder)
	for h, c := range commits {
		if children[h] == 0 {
			ready.Push(c)
		}
	}

	order := make([]graph.CommitRecord, 0, len(commits))
	for !ready.Empty() {
		v, _ := ready.Pop()
		c := v.(*commitInfo)
		rec := graph.CommitRecord{Hash: graph.Hash(c.hash.String()), LogIndex: len(order)}
		for _, p := range c.parents {
			rec.Parents = append(rec.Parents, graph.Hash(p.String()))
			children[p]--
			if children[p] == 0 {
				ready.Push(commits[p])
			}
		}
		order = append(order, rec)
	}
	if len(order) != len(commits) {
		return nil, fmt.Errorf("commit graph has a cycle")
	}
	return order, nil
}

// byDateOrder puts newer commits first and breaks ties by hash.
func byDateOrder(a, b interface{}) int {
	ca, cb := a.(*commitInfo), b.(*commitInfo)
	switch {
	case ca.when.After(cb.when):
		return -1
	case cb.when.After(ca.when):
		return 1
	}
	return strings.Compare(ca.hash.String(), cb.hash.String())
}

// peel resolves annotated tags to the commit they point at.
func (s *Source) peel(h plumbing.Hash) (graph.Hash, bool) {
	for range 8 {
		obj, err := s.repo.Object(plumbing.AnyObject, h)
		if err != nil {
			return "", false
		}
		switch o := obj.(type) {
		case *object.Commit:
			return graph.Hash(o.Hash.String()), true
		case *object.Tag:
			h = o.Target
		default:
			return "", false
		}
	}
	return "", false
}

func stateDigest(refs []Ref) string {
	var b strings.Builder
	for _, r := range refs {
		b.WriteString(r.Name)
		b.WriteByte('=')
		b.WriteString(string(r.Hash))
		b.WriteByte('\n')
	}
	return cache.Digest(b.String())
}
