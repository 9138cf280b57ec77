package graph

import (
	"encoding/json"
	"errors"
	"testing"
)

// line builds c0 -> placeholder -> placeholder -> p, the shape the builder
// produces for a parent three rows below its child.
func line(t *testing.T) (*Graph, []EdgeID) {
	t.Helper()
	g := New()
	br := g.AddBranch("c0", "")
	c0 := g.AddNode("c0", 0, EdgeNode, br)
	g.Promote(c0, &Commit{Parents: []Hash{"p"}})
	var ids []EdgeID
	prev := c0
	for row := 1; row <= 3; row++ {
		n := g.AddNode("p", row, EdgeNode, br)
		ids = append(ids, g.AddEdge(prev, n, Usual, br, c0))
		prev = n
	}
	// fill rows 1 and 2 with their own commits so every row has a head
	for row := 1; row <= 2; row++ {
		h := Hash([]string{"", "c1", "c2"}[row])
		id := g.AddNode(h, row, EdgeNode, g.AddBranch(h, ""))
		g.Promote(id, &Commit{LogIndex: row})
	}
	g.SetType(prev, EndCommitNode)
	return g, ids
}

func TestLineTraversal(t *testing.T) {
	g, ids := line(t)

	next, ok := g.Next(ids[0])
	if !ok || next != ids[1] {
		t.Errorf("Next(%d) = %d, %v, want %d, true", ids[0], next, ok, ids[1])
	}
	if _, ok := g.Next(ids[2]); ok {
		t.Errorf("Next(last) reported a continuation")
	}

	last, target := g.LineEnd(ids[0])
	if last != ids[2] {
		t.Errorf("LineEnd last = %d, want %d", last, ids[2])
	}
	if n := g.Node(target); n.Hash != "p" || !n.IsEnd() {
		t.Errorf("LineEnd target = %s (%s), want p END_COMMIT_NODE", n.Hash, n.Type)
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestRowHead(t *testing.T) {
	g, _ := line(t)
	tests := []struct {
		row  int
		want Hash
	}{
		{0, "c0"},
		{1, "c1"},
		{2, "c2"},
		{3, "p"},
	}
	for _, tt := range tests {
		if got := g.Node(g.RowHead(tt.row)).Hash; got != tt.want {
			t.Errorf("RowHead(%d) = %s, want %s", tt.row, got, tt.want)
		}
	}
	if got := g.RowHead(9); got != NoNode {
		t.Errorf("RowHead(9) = %d, want NoNode", got)
	}
	if _, err := g.RowChecked(9); !errors.Is(err, ErrRowOutOfRange) {
		t.Errorf("RowChecked(9) error = %v, want ErrRowOutOfRange", err)
	}
}

func TestValidateErrors(t *testing.T) {
	t.Run("non consecutive", func(t *testing.T) {
		g := New()
		br := g.AddBranch("a", "")
		a := g.AddNode("a", 0, EdgeNode, br)
		g.Promote(a, &Commit{})
		b := g.AddNode("b", 1, EdgeNode, br)
		g.Promote(b, &Commit{})
		c := g.AddNode("c", 2, EdgeNode, br)
		g.Promote(c, &Commit{})
		g.AddEdge(a, c, Usual, br, a)
		if err := g.Validate(); !errors.Is(err, ErrNonConsecutiveRows) {
			t.Errorf("Validate() = %v, want ErrNonConsecutiveRows", err)
		}
	})
	t.Run("two heads", func(t *testing.T) {
		g := New()
		br := g.AddBranch("a", "")
		g.Promote(g.AddNode("a", 0, EdgeNode, br), &Commit{})
		g.Promote(g.AddNode("b", 0, EdgeNode, br), &Commit{})
		if err := g.Validate(); !errors.Is(err, ErrRowHead) {
			t.Errorf("Validate() = %v, want ErrRowHead", err)
		}
	})
	t.Run("broken line", func(t *testing.T) {
		g := New()
		br := g.AddBranch("a", "")
		a := g.AddNode("a", 0, EdgeNode, br)
		g.Promote(a, &Commit{})
		ph := g.AddNode("p", 1, EdgeNode, br)
		g.Promote(g.AddNode("b", 1, EdgeNode, br), &Commit{})
		g.AddEdge(a, ph, Usual, br, a)
		if err := g.Validate(); !errors.Is(err, ErrBrokenLine) {
			t.Errorf("Validate() = %v, want ErrBrokenLine", err)
		}
	})
}

func TestRetractBoundary(t *testing.T) {
	g := New()
	br := g.AddBranch("a", "")
	a := g.AddNode("a", 0, EdgeNode, br)
	g.Promote(a, &Commit{Parents: []Hash{"p", "q"}})
	p := g.AddNode("p", 1, EdgeNode, br)
	g.AddEdge(a, p, Usual, br, a)
	qb := g.AddBranch("a", "q")
	q := g.AddNode("q", 1, EdgeNode, qb)
	g.AddEdge(a, q, Usual, qb, a)

	g.MarkBoundary(1)
	mark := g.Boundary()

	// finalize: p ends in row 1, q moves to row 2
	g.SetType(p, EndCommitNode)
	q2 := g.AddNode("q", 2, EdgeNode, qb)
	g.AddEdge(q, q2, Usual, qb, a)
	g.SetType(q2, EndCommitNode)

	got := g.RetractBoundary()
	if got != mark {
		t.Errorf("RetractBoundary() = %+v, want %+v", got, mark)
	}
	if g.RowCount() != 2 || g.NodeCount() != 3 || g.EdgeCount() != 2 {
		t.Errorf("after retract rows=%d nodes=%d edges=%d, want 2 3 2", g.RowCount(), g.NodeCount(), g.EdgeCount())
	}
	for _, id := range g.Row(1) {
		n := g.Node(id)
		if n.Type != EdgeNode || len(n.Down) != 0 {
			t.Errorf("node %s: type %s with %d outgoing, want EDGE_NODE with none", n.Hash, n.Type, len(n.Down))
		}
	}
}

func TestUpdateRequestUnion(t *testing.T) {
	tests := []struct {
		name string
		a, b UpdateRequest
		want UpdateRequest
	}{
		{"disjoint", UpdateRequest{1, 3}, UpdateRequest{5, 7}, UpdateRequest{1, 7}},
		{"left empty", UpdateRequest{4, 4}, UpdateRequest{2, 3}, UpdateRequest{2, 3}},
		{"right empty", UpdateRequest{2, 3}, UpdateRequest{}, UpdateRequest{2, 3}},
		{"nested", UpdateRequest{0, 9}, UpdateRequest{2, 3}, UpdateRequest{0, 9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Union(tt.b); got != tt.want {
				t.Errorf("Union() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestBranchLabel(t *testing.T) {
	if got := (Branch{Up: "a"}).Label(); got != "a" {
		t.Errorf("Label() = %q, want %q", got, "a")
	}
	if got := (Branch{Up: "a", Down: "b"}).Label(); got != "a>b" {
		t.Errorf("Label() = %q, want %q", got, "a>b")
	}
}

func TestCommitRecordString(t *testing.T) {
	tests := []struct {
		rec  CommitRecord
		want string
	}{
		{CommitRecord{Hash: "a0"}, "a0|-"},
		{CommitRecord{Hash: "a0", Parents: []Hash{"a1", "a2"}}, "a0|-a1 a2"},
	}
	for _, tt := range tests {
		if got := tt.rec.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestTypeTextRoundTrip(t *testing.T) {
	for _, want := range []NodeType{CommitNode, EdgeNode, EndCommitNode} {
		b, err := json.Marshal(want)
		if err != nil {
			t.Fatal(err)
		}
		var got NodeType
		if err := json.Unmarshal(b, &got); err != nil {
			t.Fatalf("Unmarshal(%s): %v", b, err)
		}
		if got != want {
			t.Errorf("NodeType %s decoded as %s", want, got)
		}
	}
	for _, want := range []EdgeType{Usual, HideFragment} {
		b, err := json.Marshal(want)
		if err != nil {
			t.Fatal(err)
		}
		var got EdgeType
		if err := json.Unmarshal(b, &got); err != nil {
			t.Fatalf("Unmarshal(%s): %v", b, err)
		}
		if got != want {
			t.Errorf("EdgeType %s decoded as %s", want, got)
		}
	}

	var nt NodeType
	if err := nt.UnmarshalText([]byte("UNKNOWN_NODE")); err == nil {
		t.Error("UnmarshalText accepted UNKNOWN_NODE")
	}
	var et EdgeType
	if err := et.UnmarshalText([]byte("usual")); err == nil {
		t.Error("UnmarshalText accepted lower-case usual")
	}
}
