package graph

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrRowOutOfRange is returned when a row index does not exist.
	ErrRowOutOfRange = errors.New("row index out of range")

	// ErrUnknownNode is returned when a node ID does not exist.
	ErrUnknownNode = errors.New("unknown node")

	// ErrNonConsecutiveRows is returned by [Graph.Validate] when an edge
	// connects nodes that are not in adjacent rows (Up.Row+1 != Down.Row).
	ErrNonConsecutiveRows = errors.New("edges must connect consecutive rows")

	// ErrRowHead is returned by [Graph.Validate] when a row does not hold
	// exactly one commit or end node.
	ErrRowHead = errors.New("row must hold exactly one commit or end node")

	// ErrBrokenLine is returned by [Graph.Validate] when a placeholder does
	// not continue every line it receives.
	ErrBrokenLine = errors.New("placeholder does not continue its lines")

	// ErrDuplicateHash is returned by [Graph.Validate] when a hash resolves
	// to more than one commit or end node.
	ErrDuplicateHash = errors.New("hash resolved more than once")
)

// Graph is a row-layered commit graph.
//
// The zero value is not usable - use New or pkg/graph/build.
type Graph struct {
	nodes    []Node
	edges    []Edge
	branches []Branch
	rows     [][]NodeID
	commits  map[Hash]NodeID

	boundary Boundary
	lastLog  int
	hasLog   bool
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{commits: make(map[Hash]NodeID)}
}

// RowCount returns the number of rows.
func (g *Graph) RowCount() int { return len(g.rows) }

// NodeCount returns the number of nodes in the arena.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges in the arena.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// BranchCount returns the number of branches in the arena.
func (g *Graph) BranchCount() int { return len(g.branches) }

// Row returns the node IDs of a row in row order. The slice must not be modified.
func (g *Graph) Row(row int) []NodeID {
	if row < 0 || row >= len(g.rows) {
		return nil
	}
	return g.rows[row]
}

// RowChecked is like Row but reports ErrRowOutOfRange for invalid rows.
func (g *Graph) RowChecked(row int) ([]NodeID, error) {
	if row < 0 || row >= len(g.rows) {
		return nil, fmt.Errorf("%w: %d (rows: %d)", ErrRowOutOfRange, row, len(g.rows))
	}
	return g.rows[row], nil
}

// Node returns the node with the given ID, or nil if it does not exist.
// The pointer refers to arena storage and is invalidated by the next mutation.
func (g *Graph) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(g.nodes) {
		return nil
	}
	return &g.nodes[id]
}

// Edge returns the edge with the given ID, or the zero edge if it does not exist.
func (g *Graph) Edge(id EdgeID) Edge {
	if id < 0 || int(id) >= len(g.edges) {
		return Edge{ID: NoEdge, Up: NoNode, Down: NoNode, Origin: NoNode}
	}
	return g.edges[id]
}

// Branch returns the branch with the given ID.
func (g *Graph) Branch(id BranchID) Branch {
	if id < 0 || int(id) >= len(g.branches) {
		return Branch{ID: id}
	}
	return g.branches[id]
}

// CommitNode returns the COMMIT node for a hash.
func (g *Graph) CommitNode(h Hash) (NodeID, bool) {
	id, ok := g.commits[h]
	return id, ok
}

// RowHead returns the commit or end node of a row, or NoNode.
func (g *Graph) RowHead(row int) NodeID {
	for _, id := range g.Row(row) {
		if g.nodes[id].Type != EdgeNode {
			return id
		}
	}
	return NoNode
}

// LastLogIndex returns the log index of the most recently added commit.
func (g *Graph) LastLogIndex() (int, bool) { return g.lastLog, g.hasLog }

// CommitCount returns the number of COMMIT nodes.
func (g *Graph) CommitCount() int { return len(g.commits) }

// Next returns the segment continuing a line below the lower end of e.
// It reports false when e ends at a commit or end node.
func (g *Graph) Next(e EdgeID) (EdgeID, bool) {
	down := g.Node(g.Edge(e).Down)
	if down == nil || down.Type != EdgeNode {
		return NoEdge, false
	}
	i := slices.Index(down.Up, e)
	if i < 0 || i >= len(down.Down) {
		return NoEdge, false
	}
	return down.Down[i], true
}

// LineEnd follows a line from segment e through placeholders and returns the
// last segment together with the commit or end node it reaches. If the line
// is not yet terminated (only possible while building) the final placeholder
// is returned.
func (g *Graph) LineEnd(e EdgeID) (EdgeID, NodeID) {
	for {
		next, ok := g.Next(e)
		if !ok {
			return e, g.Edge(e).Down
		}
		e = next
	}
}

// LineTarget returns the commit or end node at the bottom of the line that
// starts with segment e.
func (g *Graph) LineTarget(e EdgeID) NodeID {
	_, n := g.LineEnd(e)
	return n
}

// Boundary returns the mark taken before the tail was finalized.
func (g *Graph) Boundary() Boundary { return g.boundary }

// =============================================================================
// Mutation (used by pkg/graph/build)
// =============================================================================

// AddNode appends a node to the given row. The row must be an existing row
// or the next one; appending to RowCount() creates it.
func (g *Graph) AddNode(h Hash, row int, t NodeType, branch BranchID) NodeID {
	if row < 0 || row > len(g.rows) {
		panic(fmt.Sprintf("graph: AddNode row %d out of range (rows: %d)", row, len(g.rows)))
	}
	if row == len(g.rows) {
		g.rows = append(g.rows, nil)
	}
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, Node{ID: id, Hash: h, Row: row, Type: t, Branch: branch})
	g.rows[row] = append(g.rows[row], id)
	return id
}

// AddEdge connects up to down and records the edge on both endpoints.
func (g *Graph) AddEdge(up, down NodeID, t EdgeType, branch BranchID, origin NodeID) EdgeID {
	id := EdgeID(len(g.edges))
	g.edges = append(g.edges, Edge{ID: id, Up: up, Down: down, Type: t, Branch: branch, Origin: origin})
	g.nodes[up].Down = append(g.nodes[up].Down, id)
	g.nodes[down].Up = append(g.nodes[down].Up, id)
	return id
}

// AddBranch allocates a branch.
func (g *Graph) AddBranch(up, down Hash) BranchID {
	id := BranchID(len(g.branches))
	g.branches = append(g.branches, Branch{ID: id, Up: up, Down: down})
	return id
}

// Promote turns a node into a COMMIT node carrying c.
func (g *Graph) Promote(id NodeID, c *Commit) {
	n := &g.nodes[id]
	n.Type = CommitNode
	n.Commit = c
	g.commits[n.Hash] = id
	g.lastLog, g.hasLog = c.LogIndex, true
}

// SetType changes the type of a node. It does not touch the commit index and
// must not be used to create or remove COMMIT nodes.
func (g *Graph) SetType(id NodeID, t NodeType) {
	g.nodes[id].Type = t
}

// MarkBoundary records the current state as the start of the finalized tail.
func (g *Graph) MarkBoundary(row int) {
	g.boundary = Boundary{
		Row:      row,
		RowLen:   len(g.Row(row)),
		Nodes:    len(g.nodes),
		Edges:    len(g.edges),
		Branches: len(g.branches),
	}
}

// RetractBoundary discards the finalized tail and restores the graph to the
// state recorded by MarkBoundary. Nodes in the boundary row revert to
// placeholders without outgoing edges. The returned mark describes the
// restored frontier row.
func (g *Graph) RetractBoundary() Boundary {
	b := g.boundary
	g.nodes = g.nodes[:b.Nodes]
	g.edges = g.edges[:b.Edges]
	g.branches = g.branches[:b.Branches]
	if b.RowLen == 0 {
		g.rows = g.rows[:min(b.Row, len(g.rows))]
		return b
	}
	g.rows = g.rows[:b.Row+1]
	g.rows[b.Row] = g.rows[b.Row][:b.RowLen]
	for _, id := range g.rows[b.Row] {
		n := &g.nodes[id]
		n.Type = EdgeNode
		n.Down = nil
	}
	return b
}
