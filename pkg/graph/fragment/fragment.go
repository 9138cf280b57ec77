package fragment

import (
	"slices"

	"github.com/matzehuels/loggraph/pkg/graph"
)

// DefaultMinSize is the smallest number of interior commits a fragment needs.
const DefaultMinSize = 1

// RefsModel answers whether a commit is pointed to by a branch or tag.
type RefsModel interface {
	IsBranchRef(h graph.Hash) bool
}

// RefSet is a RefsModel backed by a set of hashes.
type RefSet map[graph.Hash]bool

// IsBranchRef reports whether h is in the set.
func (s RefSet) IsBranchRef(h graph.Hash) bool { return s[h] }

// Predicate reports whether a commit node must stay visible.
type Predicate func(g *graph.Graph, id graph.NodeID) bool

// DefaultPolicy keeps commits visible when they have no children, no parents
// or are referenced by refs. refs may be nil.
func DefaultPolicy(refs RefsModel) Predicate {
	return func(g *graph.Graph, id graph.NodeID) bool {
		n := g.Node(id)
		if len(n.Up) == 0 || len(n.Down) == 0 {
			return true
		}
		return refs != nil && refs.IsBranchRef(n.Hash)
	}
}

// Fragment is a concealable chain of commits.
type Fragment struct {
	Up       graph.NodeID   // visible child of the first interior commit
	Down     graph.NodeID   // visible parent of the last interior commit
	Interior []graph.NodeID // interior commits, top to bottom
	Edge     graph.Edge     // HIDE_FRAGMENT edge from Up to Down
}

// Key returns the identity of the fragment, its topmost interior node.
func (f Fragment) Key() graph.NodeID { return f.Interior[0] }

// Contains reports whether id is an interior commit of f.
func (f Fragment) Contains(id graph.NodeID) bool { return slices.Contains(f.Interior, id) }

// Option configures a Manager.
type Option func(*Manager)

// WithMinSize sets the minimum number of interior commits. Values below one
// are ignored.
func WithMinSize(n int) Option {
	return func(m *Manager) {
		if n >= 1 {
			m.minSize = n
		}
	}
}

// Manager tracks the fragments of a graph and which of them are hidden.
//
// A Manager is not safe for concurrent use; it shares the locking of the
// graph it observes.
type Manager struct {
	g        *graph.Graph
	visible  Predicate
	minSize  int
	frags    []Fragment
	interior map[graph.NodeID]int // interior commit -> fragment index
	hidden   map[graph.NodeID]bool
	nodes    map[graph.NodeID]bool // derived hidden node set
}

// New classifies the fragments of g. No fragment starts hidden.
// If visible is nil, DefaultPolicy(nil) is used.
func New(g *graph.Graph, visible Predicate, opts ...Option) *Manager {
	if visible == nil {
		visible = DefaultPolicy(nil)
	}
	m := &Manager{
		g:       g,
		visible: visible,
		minSize: DefaultMinSize,
		hidden:  make(map[graph.NodeID]bool),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.classify()
	m.rebuild()
	return m
}

// SetPredicate replaces the visibility predicate. Call Refresh or Conceal
// afterwards to reclassify.
func (m *Manager) SetPredicate(p Predicate) {
	if p != nil {
		m.visible = p
	}
}

// Fragments returns all fragments in row order of their top node.
func (m *Manager) Fragments() []Fragment { return m.frags }

// HiddenFragments returns the hidden fragments in row order of their top node.
func (m *Manager) HiddenFragments() []Fragment {
	var out []Fragment
	for _, f := range m.frags {
		if m.hidden[f.Key()] {
			out = append(out, f)
		}
	}
	return out
}

// FragmentOf returns the fragment that has id as an interior commit.
func (m *Manager) FragmentOf(id graph.NodeID) (Fragment, bool) {
	i, ok := m.interior[id]
	if !ok {
		return Fragment{}, false
	}
	return m.frags[i], true
}

// IsHidden reports whether the fragment with the given key is hidden.
func (m *Manager) IsHidden(key graph.NodeID) bool { return m.hidden[key] }

// IsNodeHidden reports whether a node is hidden by some fragment.
func (m *Manager) IsNodeHidden(id graph.NodeID) bool { return m.nodes[id] }

// IsRowHidden reports whether the commit of a row is hidden.
func (m *Manager) IsRowHidden(row int) bool {
	head := m.g.RowHead(row)
	return head != graph.NoNode && m.nodes[head]
}

// Refresh reclassifies after the graph changed. Fragments keep their hidden
// state when their top node survives.
func (m *Manager) Refresh() graph.UpdateRequest {
	before := m.HiddenFragments()
	m.classify()
	m.rebuild()
	return m.changed(before)
}

// Conceal reclassifies and hides every fragment.
func (m *Manager) Conceal() graph.UpdateRequest {
	before := m.HiddenFragments()
	m.classify()
	for _, f := range m.frags {
		m.hidden[f.Key()] = true
	}
	m.rebuild()
	return m.changed(before)
}

// CollapseAll hides every known fragment without reclassifying.
func (m *Manager) CollapseAll() graph.UpdateRequest {
	before := m.HiddenFragments()
	for _, f := range m.frags {
		m.hidden[f.Key()] = true
	}
	m.rebuild()
	return m.changed(before)
}

// ExpandAll shows every fragment.
func (m *Manager) ExpandAll() graph.UpdateRequest {
	before := m.HiddenFragments()
	clear(m.hidden)
	m.rebuild()
	return m.changed(before)
}

// Collapse hides the fragment that has id as an interior commit.
func (m *Manager) Collapse(id graph.NodeID) graph.UpdateRequest {
	f, ok := m.FragmentOf(id)
	if !ok || m.hidden[f.Key()] {
		return graph.UpdateRequest{}
	}
	before := m.HiddenFragments()
	m.hidden[f.Key()] = true
	m.rebuild()
	return m.changed(before)
}

// Expand shows the hidden fragments related to id: the fragment id belongs
// to, or the fragments id bounds as an upper or lower endpoint.
func (m *Manager) Expand(id graph.NodeID) graph.UpdateRequest {
	before := m.HiddenFragments()
	for _, f := range before {
		if f.Up == id || f.Down == id || f.Contains(id) {
			delete(m.hidden, f.Key())
		}
	}
	if len(m.hidden) == len(before) {
		return graph.UpdateRequest{}
	}
	m.rebuild()
	return m.changed(before)
}

func (m *Manager) isInterior(id graph.NodeID) bool {
	n := m.g.Node(id)
	return n.Type == graph.CommitNode && len(n.Up) == 1 && len(n.Down) == 1 && !m.visible(m.g, id)
}

// classify finds the maximal interior chains. Rows are scanned top down, so
// the first unvisited interior commit of a chain is always its top.
func (m *Manager) classify() {
	g := m.g
	m.frags = nil
	m.interior = make(map[graph.NodeID]int)
	seen := make(map[graph.NodeID]bool)

	for row := range g.RowCount() {
		top := g.RowHead(row)
		if top == graph.NoNode || seen[top] || !m.isInterior(top) {
			continue
		}
		chain := []graph.NodeID{top}
		seen[top] = true
		for {
			last := g.Node(chain[len(chain)-1])
			next := g.LineTarget(last.Down[0])
			if next == graph.NoNode || seen[next] || !m.isInterior(next) {
				break
			}
			seen[next] = true
			chain = append(chain, next)
		}
		if len(chain) < m.minSize {
			continue
		}

		entry := g.Edge(g.Node(top).Up[0])
		bottom := g.Node(chain[len(chain)-1])
		f := Fragment{
			Up:       entry.Origin,
			Down:     g.LineTarget(bottom.Down[0]),
			Interior: chain,
		}
		f.Edge = graph.Edge{
			ID:     graph.NoEdge,
			Up:     f.Up,
			Down:   f.Down,
			Type:   graph.HideFragment,
			Branch: entry.Branch,
			Origin: f.Up,
		}
		idx := len(m.frags)
		m.frags = append(m.frags, f)
		for _, id := range chain {
			m.interior[id] = idx
		}
	}

	keys := make(map[graph.NodeID]bool, len(m.frags))
	for _, f := range m.frags {
		keys[f.Key()] = true
	}
	for k := range m.hidden {
		if !keys[k] {
			delete(m.hidden, k)
		}
	}
}

// rebuild derives the hidden node set from the hidden fragments.
func (m *Manager) rebuild() {
	g := m.g
	m.nodes = make(map[graph.NodeID]bool)
	for _, f := range m.frags {
		if !m.hidden[f.Key()] {
			continue
		}
		hashes := make(map[graph.Hash]bool, len(f.Interior)+1)
		for _, id := range f.Interior {
			m.nodes[id] = true
			hashes[g.Node(id).Hash] = true
		}
		down := g.Node(f.Down)
		if len(down.Up) == 1 {
			hashes[down.Hash] = true
		}
		for row := g.Node(f.Up).Row + 1; row < down.Row; row++ {
			for _, id := range g.Row(row) {
				n := g.Node(id)
				if n.Type == graph.EdgeNode && hashes[n.Hash] {
					m.nodes[id] = true
				}
			}
		}
	}
}

// changed returns the rows spanned by fragments whose hidden state differs
// from before.
func (m *Manager) changed(before []Fragment) graph.UpdateRequest {
	type sig struct {
		key, up, down graph.NodeID
		n             int
	}
	signature := func(f Fragment) sig { return sig{f.Key(), f.Up, f.Down, len(f.Interior)} }
	span := func(f Fragment) graph.UpdateRequest {
		return graph.UpdateRequest{From: m.nodeRow(f.Up), To: m.nodeRow(f.Down) + 1}
	}

	after := m.HiddenFragments()
	was := make(map[sig]bool, len(before))
	for _, f := range before {
		was[signature(f)] = true
	}
	is := make(map[sig]bool, len(after))
	for _, f := range after {
		is[signature(f)] = true
	}

	var req graph.UpdateRequest
	for _, f := range before {
		if !is[signature(f)] {
			req = req.Union(span(f))
		}
	}
	for _, f := range after {
		if !was[signature(f)] {
			req = req.Union(span(f))
		}
	}
	if !req.Empty() {
		req.To = min(req.To, m.g.RowCount())
	}
	return req
}

// nodeRow returns the row of a node, clamped to the graph for nodes that no
// longer exist after an append retracted them.
func (m *Manager) nodeRow(id graph.NodeID) int {
	if n := m.g.Node(id); n != nil {
		return n.Row
	}
	return m.g.Boundary().Row
}
