package session

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/loggraph/pkg/graph"
	"github.com/matzehuels/loggraph/pkg/graph/build"
	"github.com/matzehuels/loggraph/pkg/graph/fragment"
	gio "github.com/matzehuels/loggraph/pkg/io"
	"github.com/matzehuels/loggraph/pkg/observability"
	"github.com/matzehuels/loggraph/pkg/printcell"
)

// Options configures a Session.
type Options struct {
	// Layout is the print cell geometry.
	Layout printcell.Options

	// Conceal hides every fragment after each append.
	Conceal bool

	// MinFragment is the minimum number of interior commits of a fragment.
	MinFragment int

	// Refs keeps referenced commits visible. May be nil.
	Refs fragment.RefsModel

	Logger *log.Logger
}

// Info summarizes a session.
type Info struct {
	ID          uuid.UUID `json:"id"`
	Rows        int       `json:"rows"`
	VisibleRows int       `json:"visible_rows"`
	Commits     int       `json:"commits"`
	Fragments   int       `json:"fragments"`
	Hidden      int       `json:"hidden"`
	Created     time.Time `json:"created"`
	Updated     time.Time `json:"updated"`
}

// Session owns one commit graph and its derived views.
type Session struct {
	ID uuid.UUID

	mu      sync.RWMutex
	g       *graph.Graph
	frags   *fragment.Manager
	model   *printcell.Model
	opts    Options
	logger  *log.Logger
	created time.Time
	updated time.Time

	subMu   sync.Mutex
	subs    map[int]chan graph.UpdateRequest
	nextSub int
}

// New creates a session over an empty graph.
func New(opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.MinFragment <= 0 {
		opts.MinFragment = fragment.DefaultMinSize
	}
	if opts.Layout == (printcell.Options{}) {
		opts.Layout = printcell.DefaultOptions()
	}

	g := graph.New()
	frags := fragment.New(g, fragment.DefaultPolicy(opts.Refs), fragment.WithMinSize(opts.MinFragment))
	now := time.Now()
	s := &Session{
		ID:      uuid.New(),
		g:       g,
		frags:   frags,
		model:   printcell.New(g, frags, opts.Layout),
		opts:    opts,
		created: now,
		updated: now,
		subs:    make(map[int]chan graph.UpdateRequest),
	}
	s.logger = opts.Logger.With("session", s.ID.String()[:8])
	return s
}

// Open creates a session and appends records to it.
func Open(ctx context.Context, records []graph.CommitRecord, opts Options) (*Session, error) {
	s := New(opts)
	if _, err := s.Append(ctx, records); err != nil {
		return nil, err
	}
	return s, nil
}

// Append adds records below the loaded graph. The batch is validated as a
// whole; on error nothing changes.
func (s *Session) Append(ctx context.Context, records []graph.CommitRecord) (graph.UpdateRequest, error) {
	if err := ctx.Err(); err != nil {
		return graph.UpdateRequest{}, classify(err)
	}

	s.mu.Lock()
	start := time.Now()
	req, err := build.Append(s.g, records)
	observability.Build().OnAppend(ctx, len(records), req.From, req.To, time.Since(start), err)
	if err != nil {
		s.mu.Unlock()
		s.logger.Debug("append rejected", "records", len(records), "err", err)
		return graph.UpdateRequest{}, classify(err)
	}
	if req.Empty() {
		s.mu.Unlock()
		return req, nil
	}

	var changed graph.UpdateRequest
	if s.opts.Conceal {
		changed = s.frags.Conceal()
	} else {
		changed = s.frags.Refresh()
	}
	req = req.Union(changed)
	s.recalculate(ctx, req)
	s.publish(req)
	s.mu.Unlock()

	s.logger.Info("appended commits", "records", len(records), "rows", req.To, "duration", time.Since(start))
	return req, nil
}

// Conceal reclassifies fragments and hides all of them.
func (s *Session) Conceal(ctx context.Context) graph.UpdateRequest {
	return s.mutate(ctx, s.frags.Conceal)
}

// CollapseAll hides every known fragment.
func (s *Session) CollapseAll(ctx context.Context) graph.UpdateRequest {
	return s.mutate(ctx, s.frags.CollapseAll)
}

// ExpandAll shows every fragment.
func (s *Session) ExpandAll(ctx context.Context) graph.UpdateRequest {
	return s.mutate(ctx, s.frags.ExpandAll)
}

// Expand shows the hidden fragments related to a node: the fragment the node
// belongs to or the fragments it bounds.
func (s *Session) Expand(ctx context.Context, id graph.NodeID) (graph.UpdateRequest, error) {
	if err := s.checkNode(id); err != nil {
		return graph.UpdateRequest{}, err
	}
	return s.mutate(ctx, func() graph.UpdateRequest { return s.frags.Expand(id) }), nil
}

// Collapse hides the fragment a node belongs to.
func (s *Session) Collapse(ctx context.Context, id graph.NodeID) (graph.UpdateRequest, error) {
	if err := s.checkNode(id); err != nil {
		return graph.UpdateRequest{}, err
	}
	return s.mutate(ctx, func() graph.UpdateRequest { return s.frags.Collapse(id) }), nil
}

// SetRefs replaces the references that keep commits visible and
// reclassifies fragments.
func (s *Session) SetRefs(ctx context.Context, refs fragment.RefsModel) graph.UpdateRequest {
	return s.mutate(ctx, func() graph.UpdateRequest {
		s.opts.Refs = refs
		s.frags.SetPredicate(fragment.DefaultPolicy(refs))
		return s.frags.Refresh()
	})
}

func (s *Session) mutate(ctx context.Context, fn func() graph.UpdateRequest) graph.UpdateRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	req := fn()
	if !req.Empty() {
		s.recalculate(ctx, req)
		observability.Layout().OnConceal(ctx, len(s.frags.HiddenFragments()))
		s.publish(req)
	}
	return req
}

// recalculate must be called with the write lock held.
func (s *Session) recalculate(ctx context.Context, req graph.UpdateRequest) {
	start := time.Now()
	rec := s.model.Update(req)
	s.updated = time.Now()
	observability.Layout().OnRecalculate(ctx, rec.From, rec.To, rec.Rows, time.Since(start))
	s.logger.Debug("recalculated print cells", "from", rec.From, "to", rec.To, "rows", rec.Rows)
}

func (s *Session) checkNode(id graph.NodeID) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.g.Node(id) == nil {
		return classify(graph.ErrUnknownNode)
	}
	return nil
}

// PrintCell returns the cell of a visible row.
func (s *Session) PrintCell(row int) (*printcell.GraphPrintCell, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, err := s.model.PrintCell(row)
	if err != nil {
		return nil, classify(err)
	}
	return c, nil
}

// PrintCells returns the cells of visible rows [from, to), clamped to the
// loaded range.
func (s *Session) PrintCells(from, to int) ([]*printcell.GraphPrintCell, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	from = max(from, 0)
	to = min(to, s.model.RowCount())
	var out []*printcell.GraphPrintCell
	for r := from; r < to; r++ {
		c, err := s.model.PrintCell(r)
		if err != nil {
			return nil, classify(err)
		}
		out = append(out, c)
	}
	return out, nil
}

// ArrowToNode resolves the target of an arrow to a node and its visible row.
func (s *Session) ArrowToNode(sp printcell.SpecialPrintElement) (graph.NodeID, int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model.ArrowToNode(sp)
}

// Node returns a copy of a node.
func (s *Session) Node(id graph.NodeID) (graph.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := s.g.Node(id)
	if n == nil {
		return graph.Node{}, classify(graph.ErrUnknownNode)
	}
	return *n, nil
}

// RowCount returns the number of visible rows.
func (s *Session) RowCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model.RowCount()
}

// CommitCount returns the number of loaded commits.
func (s *Session) CommitCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.g.CommitCount()
}

// Dump returns the textual dump of the graph.
func (s *Session) Dump() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return gio.Dump(s.g)
}

// Snapshot exports the graph.
func (s *Session) Snapshot() gio.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return gio.Export(s.g)
}

// View runs fn with read access to the graph, the fragment manager and the
// print cell model. fn must not retain them after returning.
func (s *Session) View(fn func(g *graph.Graph, frags *fragment.Manager, model *printcell.Model)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.g, s.frags, s.model)
}

// Info returns a summary of the session.
func (s *Session) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Info{
		ID:          s.ID,
		Rows:        s.g.RowCount(),
		VisibleRows: s.model.RowCount(),
		Commits:     s.g.CommitCount(),
		Fragments:   len(s.frags.Fragments()),
		Hidden:      len(s.frags.HiddenFragments()),
		Created:     s.created,
		Updated:     s.updated,
	}
}

// Subscribe registers for update requests. Each subscriber gets its own
// buffered channel; a request that does not fit in the buffer is dropped for
// that subscriber. The returned function unsubscribes and closes the channel.
func (s *Session) Subscribe(buffer int) (<-chan graph.UpdateRequest, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan graph.UpdateRequest, buffer)

	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
}

// publish must be called with the write lock held so that subscribers see
// updates in mutation order. Sends never block.
func (s *Session) publish(req graph.UpdateRequest) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for id, ch := range s.subs {
		select {
		case ch <- req:
		default:
			s.logger.Debug("dropped update for slow subscriber", "subscriber", id)
		}
	}
}
