package graph

import (
	"fmt"
	"strings"
)

// Hash identifies a commit. Hashes are opaque strings; the graph never parses them.
type Hash string

// NodeID indexes the node arena of a [Graph].
type NodeID int

// EdgeID indexes the edge arena of a [Graph].
type EdgeID int

// BranchID indexes the branch arena of a [Graph].
type BranchID int

const (
	// NoNode is the zero-value sentinel for an absent node.
	NoNode NodeID = -1
	// NoEdge identifies edges that are not stored in the arena, such as the
	// HIDE_FRAGMENT edges synthesized by pkg/graph/fragment.
	NoEdge EdgeID = -1
)

// NodeType classifies a node.
type NodeType int

const (
	// CommitNode represents a loaded commit.
	CommitNode NodeType = iota
	// EdgeNode is a placeholder that carries lines through a row.
	EdgeNode
	// EndCommitNode represents a parent that is referenced but not loaded.
	EndCommitNode
)

// String returns the dump representation of the node type.
func (t NodeType) String() string {
	switch t {
	case CommitNode:
		return "COMMIT_NODE"
	case EdgeNode:
		return "EDGE_NODE"
	case EndCommitNode:
		return "END_COMMIT_NODE"
	default:
		return "UNKNOWN_NODE"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t NodeType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *NodeType) UnmarshalText(b []byte) error {
	switch string(b) {
	case "COMMIT_NODE":
		*t = CommitNode
	case "EDGE_NODE":
		*t = EdgeNode
	case "END_COMMIT_NODE":
		*t = EndCommitNode
	default:
		return fmt.Errorf("unknown node type %q", b)
	}
	return nil
}

// EdgeType classifies an edge.
type EdgeType int

const (
	// Usual edges are produced by the builder.
	Usual EdgeType = iota
	// HideFragment edges replace a concealed run of commits.
	HideFragment
)

// String returns the dump representation of the edge type.
func (t EdgeType) String() string {
	switch t {
	case Usual:
		return "USUAL"
	case HideFragment:
		return "HIDE_FRAGMENT"
	default:
		return "UNKNOWN_EDGE"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t EdgeType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *EdgeType) UnmarshalText(b []byte) error {
	switch string(b) {
	case "USUAL":
		*t = Usual
	case "HIDE_FRAGMENT":
		*t = HideFragment
	default:
		return fmt.Errorf("unknown edge type %q", b)
	}
	return nil
}

// Commit holds the record data of a node that was promoted to a commit.
type Commit struct {
	Parents  []Hash // Parent hashes in record order
	LogIndex int    // Position in the log
}

// Node is a vertex of the graph.
//
// Up lists the edges arriving from the row above and Down the edges leaving
// toward the row below. For an [EdgeNode] the two lists are parallel:
// Down[i] continues the line that arrived through Up[i].
type Node struct {
	ID     NodeID
	Hash   Hash
	Row    int
	Type   NodeType
	Branch BranchID
	Commit *Commit // non-nil only for CommitNode
	Up     []EdgeID
	Down   []EdgeID
}

// IsCommit reports whether the node is a loaded commit.
func (n *Node) IsCommit() bool { return n.Type == CommitNode }

// IsEnd reports whether the node is an unloaded parent.
func (n *Node) IsEnd() bool { return n.Type == EndCommitNode }

// IsPlaceholder reports whether the node is an edge placeholder.
func (n *Node) IsPlaceholder() bool { return n.Type == EdgeNode }

// Edge connects two nodes in consecutive rows.
//
// Origin is the commit node where the logical line starts. Every segment of
// a line carried through placeholders shares the same Origin and Branch.
type Edge struct {
	ID     EdgeID   `json:"id"`
	Up     NodeID   `json:"up"`
	Down   NodeID   `json:"down"`
	Type   EdgeType `json:"type"`
	Branch BranchID `json:"branch"`
	Origin NodeID   `json:"origin"`
}

// Branch names a chain of first-parent edges.
//
// Branches created for a fresh commit carry only Up. Branches created for a
// non-first parent also record the parent hash in Down.
type Branch struct {
	ID   BranchID
	Up   Hash
	Down Hash
}

// Label returns the dump representation of the branch.
func (b Branch) Label() string {
	if b.Down == "" {
		return string(b.Up)
	}
	return string(b.Up) + ">" + string(b.Down)
}

// CommitRecord is one entry of the input log.
type CommitRecord struct {
	Hash     Hash   `json:"hash" bson:"hash"`
	Parents  []Hash `json:"parents,omitempty" bson:"parents,omitempty"`
	LogIndex int    `json:"log_index" bson:"log_index"`
}

// String formats the record in the text log format "hash|-p1 p2".
func (r CommitRecord) String() string {
	var b strings.Builder
	b.WriteString(string(r.Hash))
	b.WriteString("|-")
	for i, p := range r.Parents {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(string(p))
	}
	return b.String()
}

// UpdateRequest describes the half-open row range [From, To) whose content
// changed. Consumers recompute any derived state for those rows.
type UpdateRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Empty reports whether the request covers no rows.
func (r UpdateRequest) Empty() bool { return r.To <= r.From }

// Union returns the smallest request covering both r and o.
// Empty requests are ignored.
func (r UpdateRequest) Union(o UpdateRequest) UpdateRequest {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	return UpdateRequest{From: min(r.From, o.From), To: max(r.To, o.To)}
}

// Boundary marks the start of the finalized tail of a graph.
//
// Row is the first row produced by finalization. The remaining fields record
// the arena sizes and the length of Row's node list at the moment the mark
// was taken, which is everything needed to restore the pre-finalization state.
type Boundary struct {
	Row      int
	RowLen   int
	Nodes    int
	Edges    int
	Branches int
}
