package build

import (
	"slices"

	"github.com/matzehuels/loggraph/pkg/graph"
)

// Build creates a graph from records listed children-first.
// It returns an error without a graph if any record is invalid.
func Build(records []graph.CommitRecord) (*graph.Graph, error) {
	g := graph.New()
	if _, err := Append(g, records); err != nil {
		return nil, err
	}
	return g, nil
}

// Append adds records to an existing graph and returns the row range that
// must be recomputed by derived views.
//
// The range starts at the first row of the previous finalized tail, because
// END_COMMIT_NODEs there may turn into commits or placeholders, and ends at
// the new row count. Appending no records is a no-op that returns an empty
// range. If the batch is invalid, the graph is left unchanged.
func Append(g *graph.Graph, records []graph.CommitRecord) (graph.UpdateRequest, error) {
	if len(records) == 0 {
		return graph.UpdateRequest{From: g.RowCount(), To: g.RowCount()}, nil
	}
	if err := Validate(g, records); err != nil {
		return graph.UpdateRequest{}, err
	}

	b := resume(g)
	from := b.row
	for _, rec := range records {
		b.add(rec)
	}
	b.finish()
	return graph.UpdateRequest{From: from, To: g.RowCount()}, nil
}

type builder struct {
	g       *graph.Graph
	pending map[graph.Hash]graph.NodeID // parent hash -> frontier placeholder
	row     int                         // row of the next record
}

// resume restores the pre-finalization frontier of g.
func resume(g *graph.Graph) *builder {
	mark := g.RetractBoundary()
	b := &builder{
		g:       g,
		pending: make(map[graph.Hash]graph.NodeID),
		row:     mark.Row,
	}
	for _, id := range g.Row(mark.Row) {
		b.pending[g.Node(id).Hash] = id
	}
	return b
}

func (b *builder) add(rec graph.CommitRecord) {
	r := b.row
	commit := &graph.Commit{Parents: slices.Clone(rec.Parents), LogIndex: rec.LogIndex}

	id, ok := b.pending[rec.Hash]
	if ok {
		delete(b.pending, rec.Hash)
	} else {
		id = b.g.AddNode(rec.Hash, r, graph.EdgeNode, b.g.AddBranch(rec.Hash, ""))
	}
	b.g.Promote(id, commit)

	branch := b.g.Node(id).Branch
	for i, p := range rec.Parents {
		br := branch
		if i > 0 {
			br = b.g.AddBranch(rec.Hash, p)
		}
		target := b.frontier(p, r+1, br)
		b.g.AddEdge(id, target, graph.Usual, br, id)
	}

	// Lines not touched by this record still move down one row.
	for _, nid := range b.g.Row(r) {
		if b.isPending(nid) {
			b.advance(nid, r+1)
		}
	}
	b.row = r + 1
}

// frontier returns the placeholder for parent p in the given row, creating
// or advancing it as needed.
func (b *builder) frontier(p graph.Hash, row int, br graph.BranchID) graph.NodeID {
	if id, ok := b.pending[p]; ok {
		if b.g.Node(id).Row < row {
			id = b.advance(id, row)
		}
		return id
	}
	id := b.g.AddNode(p, row, graph.EdgeNode, br)
	b.pending[p] = id
	return id
}

// advance carries every line through id down to row, one placeholder per row.
func (b *builder) advance(id graph.NodeID, row int) graph.NodeID {
	for {
		n := b.g.Node(id)
		if n.Row >= row {
			break
		}
		hash, branch, next := n.Hash, n.Branch, n.Row+1
		ups := slices.Clone(n.Up)
		nid := b.g.AddNode(hash, next, graph.EdgeNode, branch)
		for _, eid := range ups {
			e := b.g.Edge(eid)
			b.g.AddEdge(id, nid, graph.Usual, e.Branch, e.Origin)
		}
		b.pending[hash] = nid
		id = nid
	}
	return id
}

// isPending reports whether id is the frontier placeholder of its hash.
func (b *builder) isPending(id graph.NodeID) bool {
	n := b.g.Node(id)
	if n.Type != graph.EdgeNode {
		return false
	}
	p, ok := b.pending[n.Hash]
	return ok && p == id
}

// finish turns the remaining placeholders into END_COMMIT_NODEs, one per row.
func (b *builder) finish() {
	b.g.MarkBoundary(b.row)
	for len(b.pending) > 0 {
		r := b.row
		end := graph.NoNode
		for _, nid := range b.g.Row(r) {
			if !b.isPending(nid) {
				continue
			}
			if end == graph.NoNode {
				end = nid
				delete(b.pending, b.g.Node(nid).Hash)
				b.g.SetType(nid, graph.EndCommitNode)
				continue
			}
			b.advance(nid, r+1)
		}
		b.row = r + 1
	}
}
