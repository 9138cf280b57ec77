package graph

import "fmt"

// Validate checks the structural invariants of a finalized graph:
//
//   - every edge connects consecutive rows
//   - every row holds exactly one commit or end node
//   - every hash is resolved by at most one commit or end node
//   - every placeholder continues each line it receives
//
// It is intended for tests and debugging; the builder maintains these
// invariants on its own.
func (g *Graph) Validate() error {
	for _, e := range g.edges {
		up, down := g.Node(e.Up), g.Node(e.Down)
		if up == nil || down == nil {
			return fmt.Errorf("%w: edge %d", ErrUnknownNode, e.ID)
		}
		if up.Row+1 != down.Row {
			return fmt.Errorf("%w: %s (row %d) -> %s (row %d)", ErrNonConsecutiveRows, up.Hash, up.Row, down.Hash, down.Row)
		}
	}

	resolved := make(map[Hash]NodeID, len(g.nodes))
	for row, ids := range g.rows {
		heads := 0
		for _, id := range ids {
			n := &g.nodes[id]
			if n.Row != row {
				return fmt.Errorf("%w: node %s indexed in row %d but stored with row %d", ErrRowOutOfRange, n.Hash, row, n.Row)
			}
			switch n.Type {
			case CommitNode, EndCommitNode:
				heads++
				if prev, ok := resolved[n.Hash]; ok {
					return fmt.Errorf("%w: %s (nodes %d and %d)", ErrDuplicateHash, n.Hash, prev, id)
				}
				resolved[n.Hash] = id
			case EdgeNode:
				if len(n.Up) != len(n.Down) {
					return fmt.Errorf("%w: %s in row %d has %d incoming and %d outgoing", ErrBrokenLine, n.Hash, row, len(n.Up), len(n.Down))
				}
			}
		}
		if heads != 1 {
			return fmt.Errorf("%w: row %d has %d", ErrRowHead, row, heads)
		}
	}
	return nil
}
