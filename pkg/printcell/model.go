package printcell

import (
	"fmt"
	"slices"
	"sort"

	"github.com/matzehuels/loggraph/pkg/graph"
	"github.com/matzehuels/loggraph/pkg/graph/fragment"
)

// Visibility tells the model which nodes are concealed.
// *fragment.Manager implements it.
type Visibility interface {
	IsNodeHidden(id graph.NodeID) bool
	HiddenFragments() []fragment.Fragment
}

// slot is one lane occupant of a visible row: a node, or a hidden fragment
// passing through.
type slot struct {
	key  string
	node graph.NodeID // graph.NoNode for fragment pass-through
	frag graph.NodeID // fragment key, graph.NoNode for nodes
	lane int
}

type rowState struct {
	phys  int
	slots []slot
}

func sameState(a, b rowState) bool {
	if a.phys != b.phys || len(a.slots) != len(b.slots) {
		return false
	}
	for i := range a.slots {
		if a.slots[i] != b.slots[i] {
			return false
		}
	}
	return true
}

type segment struct {
	from, to int // slot indices in the upper and lower row
	edge     graph.Edge
}

var noEdge = graph.Edge{ID: graph.NoEdge, Up: graph.NoNode, Down: graph.NoNode, Origin: graph.NoNode}

// Model maps visible rows to print cells.
//
// A Model reads the graph and visibility it was created with; callers must
// call Update after either of them changes. It is not safe for concurrent use.
type Model struct {
	g    *graph.Graph
	vis  Visibility
	opts Options

	states   []rowState
	visIndex []int // physical row -> visible row, -1 when hidden

	frags  []fragment.Fragment
	byKey  map[graph.NodeID]int
	byUp   map[graph.NodeID][]int
	byDown map[graph.NodeID][]int
	byTop  []int // fragment indices ordered by the row of Up

	last Recalc
}

// New creates a model and lays out every row. vis may be nil.
func New(g *graph.Graph, vis Visibility, opts Options) *Model {
	m := &Model{g: g, vis: vis, opts: opts.withDefaults()}
	m.Update(graph.UpdateRequest{From: 0, To: g.RowCount()})
	return m
}

// Options returns the geometry used for cells.
func (m *Model) Options() Options { return m.opts }

// RowCount returns the number of visible rows.
func (m *Model) RowCount() int { return len(m.states) }

// PhysicalRow returns the graph row shown at a visible row.
func (m *Model) PhysicalRow(visible int) (int, bool) {
	if visible < 0 || visible >= len(m.states) {
		return 0, false
	}
	return m.states[visible].phys, true
}

// VisibleRow returns the visible row showing a graph row.
func (m *Model) VisibleRow(phys int) (int, bool) {
	if phys < 0 || phys >= len(m.visIndex) || m.visIndex[phys] < 0 {
		return 0, false
	}
	return m.visIndex[phys], true
}

// LastRecalc returns statistics about the most recent Update.
func (m *Model) LastRecalc() Recalc { return m.last }

// Update recomputes lanes for the physical rows in req and any following
// rows whose lanes depend on them.
func (m *Model) Update(req graph.UpdateRequest) Recalc {
	m.loadFragments()

	n := m.g.RowCount()
	from := min(max(req.From, 0), n)
	to := min(max(req.To, from), n)

	keep := sort.Search(len(m.states), func(i int) bool { return m.states[i].phys >= from })
	old := m.states[keep:]
	states := m.states[:keep:keep]

	var prev *rowState
	if keep > 0 {
		prev = &states[keep-1]
	}

	rec := Recalc{From: from, To: from}
	spans := &spanCursor{m: m}
	oi := 0
	for r := from; r < n; r++ {
		if m.rowHidden(r) {
			continue
		}
		st := m.layout(r, prev, spans.at(r))
		rec.Rows++
		rec.To = r + 1
		if r >= to {
			for oi < len(old) && old[oi].phys < r {
				oi++
			}
			if oi < len(old) && sameState(old[oi], st) {
				states = append(states, old[oi:]...)
				break
			}
		}
		states = append(states, st)
		prev = &states[len(states)-1]
	}

	m.states = states
	m.visIndex = make([]int, n)
	for i := range m.visIndex {
		m.visIndex[i] = -1
	}
	for i, st := range m.states {
		m.visIndex[st.phys] = i
	}
	m.last = rec
	return rec
}

func (m *Model) loadFragments() {
	m.frags = nil
	if m.vis != nil {
		m.frags = m.vis.HiddenFragments()
	}
	m.byKey = make(map[graph.NodeID]int, len(m.frags))
	m.byUp = make(map[graph.NodeID][]int)
	m.byDown = make(map[graph.NodeID][]int)
	for i, f := range m.frags {
		m.byKey[f.Key()] = i
		m.byUp[f.Up] = append(m.byUp[f.Up], i)
		m.byDown[f.Down] = append(m.byDown[f.Down], i)
	}
	m.byTop = make([]int, len(m.frags))
	for i := range m.byTop {
		m.byTop[i] = i
	}
	slices.SortStableFunc(m.byTop, func(a, b int) int {
		return m.g.Node(m.frags[a].Up).Row - m.g.Node(m.frags[b].Up).Row
	})
}

// spanCursor yields the fragments strictly spanning each row. Rows must be
// visited in increasing order.
type spanCursor struct {
	m      *Model
	next   int
	active []int // fragment indices, ascending
}

func (c *spanCursor) at(r int) []int {
	m := c.m
	for c.next < len(m.byTop) {
		i := m.byTop[c.next]
		if m.g.Node(m.frags[i].Up).Row >= r {
			break
		}
		pos, _ := slices.BinarySearch(c.active, i)
		c.active = slices.Insert(c.active, pos, i)
		c.next++
	}
	c.active = slices.DeleteFunc(c.active, func(i int) bool {
		return m.g.Node(m.frags[i].Down).Row <= r
	})
	return c.active
}

func (m *Model) hidden(id graph.NodeID) bool {
	return m.vis != nil && m.vis.IsNodeHidden(id)
}

func (m *Model) rowHidden(row int) bool {
	head := m.g.RowHead(row)
	return head != graph.NoNode && m.hidden(head)
}

func nodeKey(h graph.Hash) string    { return "n:" + string(h) }
func fragKey(k graph.NodeID) string { return fmt.Sprintf("f:%d", k) }

// layout assigns lanes to the occupants of row r given the previous visible
// row. spanning lists the hidden fragments whose run covers r.
func (m *Model) layout(r int, prev *rowState, spanning []int) rowState {
	st := rowState{phys: r}
	for _, id := range m.g.Row(r) {
		if m.hidden(id) {
			continue
		}
		st.slots = append(st.slots, slot{key: nodeKey(m.g.Node(id).Hash), node: id, frag: graph.NoNode, lane: -1})
	}
	for _, i := range spanning {
		k := m.frags[i].Key()
		st.slots = append(st.slots, slot{key: fragKey(k), node: graph.NoNode, frag: k, lane: -1})
	}

	used := make(map[int]bool, len(st.slots))
	if prev != nil {
		lanes := make(map[string]int, len(prev.slots))
		for _, s := range prev.slots {
			lanes[s.key] = s.lane
		}
		for i := range st.slots {
			if l, ok := lanes[st.slots[i].key]; ok {
				st.slots[i].lane = l
				used[l] = true
			}
		}
	}
	free := 0
	for i := range st.slots {
		if st.slots[i].lane >= 0 {
			continue
		}
		for used[free] {
			free++
		}
		st.slots[i].lane = free
		used[free] = true
	}
	return st
}

// entering returns the hidden fragment whose first interior commit is
// reached by the line leaving u through e.
func (m *Model) entering(u graph.NodeID, e graph.EdgeID) (fragment.Fragment, bool) {
	idx, ok := m.byUp[u]
	if !ok {
		return fragment.Fragment{}, false
	}
	target := m.g.LineTarget(e)
	for _, i := range idx {
		if m.frags[i].Interior[0] == target {
			return m.frags[i], true
		}
	}
	return fragment.Fragment{}, false
}

// follow walks a line from segment e down to the given row.
func (m *Model) follow(e graph.EdgeID, row int) graph.NodeID {
	for {
		down := m.g.Edge(e).Down
		n := m.g.Node(down)
		if n == nil {
			return graph.NoNode
		}
		if n.Row >= row {
			return down
		}
		next, ok := m.g.Next(e)
		if !ok {
			return graph.NoNode
		}
		e = next
	}
}

// segments connects the slots of two consecutive visible rows.
func (m *Model) segments(up, down *rowState) []segment {
	byNode := make(map[graph.NodeID]int, len(down.slots))
	byFrag := make(map[graph.NodeID]int)
	for i, s := range down.slots {
		if s.node != graph.NoNode {
			byNode[s.node] = i
		} else {
			byFrag[s.frag] = i
		}
	}
	fragTarget := func(f fragment.Fragment) (int, bool) {
		if down.phys < m.g.Node(f.Down).Row {
			i, ok := byFrag[f.Key()]
			return i, ok
		}
		i, ok := byNode[f.Down]
		return i, ok
	}

	var segs []segment
	seen := make(map[[2]int]bool)
	add := func(from, to int, e graph.Edge) {
		k := [2]int{from, to}
		if seen[k] {
			return
		}
		seen[k] = true
		segs = append(segs, segment{from: from, to: to, edge: e})
	}

	for i, s := range up.slots {
		if s.node == graph.NoNode {
			f := m.frags[m.byKey[s.frag]]
			if j, ok := fragTarget(f); ok {
				add(i, j, f.Edge)
			}
			continue
		}
		for _, eid := range m.g.Node(s.node).Down {
			if f, ok := m.entering(s.node, eid); ok {
				if j, ok := fragTarget(f); ok {
					add(i, j, f.Edge)
				}
				continue
			}
			if j, ok := byNode[m.follow(eid, down.phys)]; ok {
				add(i, j, m.g.Edge(eid))
			}
		}
	}
	return segs
}

// PrintCell returns the cell of a visible row.
func (m *Model) PrintCell(row int) (*GraphPrintCell, error) {
	if row < 0 || row >= len(m.states) {
		return nil, fmt.Errorf("%w: %d (rows: %d)", ErrRowOutOfRange, row, len(m.states))
	}
	st := &m.states[row]
	c := &GraphPrintCell{Row: row, PhysicalRow: st.phys, opts: m.opts}

	for _, s := range st.slots {
		c.Width = max(c.Width, s.lane+1)
		if s.node == graph.NoNode {
			continue
		}
		n := m.g.Node(s.node)
		c.Elements = append(c.Elements, PrintElement{
			Kind:     NodeElement,
			Lane:     s.lane,
			Node:     s.node,
			NodeType: n.Type,
			Hash:     n.Hash,
			Edge:     noEdge,
		})
	}
	if row > 0 {
		above := &m.states[row-1]
		for _, seg := range m.segments(above, st) {
			lane, other := st.slots[seg.to].lane, above.slots[seg.from].lane
			c.Elements = append(c.Elements, edgeElement(seg.edge, lane, other, Up))
			c.Width = max(c.Width, other+1)
		}
	}
	if row+1 < len(m.states) {
		below := &m.states[row+1]
		for _, seg := range m.segments(st, below) {
			lane, other := st.slots[seg.from].lane, below.slots[seg.to].lane
			c.Elements = append(c.Elements, edgeElement(seg.edge, lane, other, Down))
			c.Width = max(c.Width, other+1)
		}
	}
	c.Specials = m.specials(row, st)
	return c, nil
}

func edgeElement(e graph.Edge, lane, other int, dir Direction) PrintElement {
	return PrintElement{
		Kind:      EdgeElement,
		Lane:      lane,
		Node:      graph.NoNode,
		Edge:      e,
		OtherLane: other,
		Direction: dir,
	}
}

func (m *Model) specials(row int, st *rowState) []SpecialPrintElement {
	var out []SpecialPrintElement
	for _, s := range st.slots {
		if s.node == graph.NoNode {
			continue
		}
		n := m.g.Node(s.node)
		if n.Type == graph.EdgeNode {
			continue
		}
		if n.Type == graph.EndCommitNode && len(n.Up) > 0 {
			out = append(out, SpecialPrintElement{Type: DownArrow, Lane: s.lane, Edge: m.g.Edge(n.Up[0]), Target: s.node})
		}
		for _, i := range m.byUp[s.node] {
			f := m.frags[i]
			out = append(out, SpecialPrintElement{Type: DownArrow, Lane: s.lane, Edge: f.Edge, Target: f.Down})
		}
		for _, i := range m.byDown[s.node] {
			f := m.frags[i]
			out = append(out, SpecialPrintElement{Type: UpArrow, Lane: s.lane, Edge: f.Edge, Target: f.Up})
		}
		if m.opts.LongEdgeSize <= 0 {
			continue
		}
		for _, eid := range n.Down {
			if _, ok := m.entering(s.node, eid); ok {
				continue
			}
			t := m.g.LineTarget(eid)
			if vt, ok := m.visibleNode(t); ok && vt-row > m.opts.LongEdgeSize {
				out = append(out, SpecialPrintElement{Type: DownArrow, Lane: s.lane, Edge: m.g.Edge(eid), Target: t})
			}
		}
		for _, eid := range n.Up {
			e := m.g.Edge(eid)
			if vo, ok := m.visibleNode(e.Origin); ok && row-vo > m.opts.LongEdgeSize {
				out = append(out, SpecialPrintElement{Type: UpArrow, Lane: s.lane, Edge: e, Target: e.Origin})
			}
		}
	}
	return out
}

// visibleNode returns the visible row of a node that is not hidden.
func (m *Model) visibleNode(id graph.NodeID) (int, bool) {
	n := m.g.Node(id)
	if n == nil || m.hidden(id) {
		return 0, false
	}
	return m.VisibleRow(n.Row)
}

// ArrowToNode returns the node an arrow points at and its visible row.
func (m *Model) ArrowToNode(sp SpecialPrintElement) (graph.NodeID, int, bool) {
	row, ok := m.visibleNode(sp.Target)
	if !ok {
		return graph.NoNode, 0, false
	}
	return sp.Target, row, true
}
