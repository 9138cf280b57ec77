package fragment

import (
	"slices"
	"testing"

	"github.com/matzehuels/loggraph/pkg/graph"
	"github.com/matzehuels/loggraph/pkg/graph/build"
	gio "github.com/matzehuels/loggraph/pkg/io"
)

func buildLog(t *testing.T, lines ...string) *graph.Graph {
	t.Helper()
	recs, err := gio.ParseRecords(lines, 0)
	if err != nil {
		t.Fatalf("ParseRecords: %v", err)
	}
	g, err := build.Build(recs)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g
}

func commit(t *testing.T, g *graph.Graph, h graph.Hash) graph.NodeID {
	t.Helper()
	id, ok := g.CommitNode(h)
	if !ok {
		t.Fatalf("%s is not a commit", h)
	}
	return id
}

func hashes(g *graph.Graph, ids []graph.NodeID) []graph.Hash {
	out := make([]graph.Hash, len(ids))
	for i, id := range ids {
		out[i] = g.Node(id).Hash
	}
	return out
}

func hiddenSet(g *graph.Graph, m *Manager) []graph.NodeID {
	var out []graph.NodeID
	for i := range g.NodeCount() {
		if m.IsNodeHidden(graph.NodeID(i)) {
			out = append(out, graph.NodeID(i))
		}
	}
	return out
}

func TestClassifyLinearChain(t *testing.T) {
	g := buildLog(t, "a|-b", "b|-c", "c|-d", "d|-")
	m := New(g, DefaultPolicy(nil))

	frags := m.Fragments()
	if len(frags) != 1 {
		t.Fatalf("len(Fragments()) = %d, want 1", len(frags))
	}
	f := frags[0]
	if got := hashes(g, f.Interior); !slices.Equal(got, []graph.Hash{"b", "c"}) {
		t.Errorf("Interior = %v, want [b c]", got)
	}
	if g.Node(f.Up).Hash != "a" || g.Node(f.Down).Hash != "d" {
		t.Errorf("endpoints = %s..%s, want a..d", g.Node(f.Up).Hash, g.Node(f.Down).Hash)
	}
	if f.Edge.Type != graph.HideFragment || f.Edge.Up != f.Up || f.Edge.Down != f.Down {
		t.Errorf("Edge = %+v, want HIDE_FRAGMENT a->d", f.Edge)
	}
	if len(m.HiddenFragments()) != 0 {
		t.Errorf("fragments hidden before Conceal")
	}
}

func TestConcealAndExpand(t *testing.T) {
	g := buildLog(t, "a|-b", "b|-c", "c|-d", "d|-")
	m := New(g, nil)

	req := m.Conceal()
	if req != (graph.UpdateRequest{From: 0, To: 4}) {
		t.Errorf("Conceal() = %+v, want {0 4}", req)
	}
	for row, want := range []bool{false, true, true, false} {
		if got := m.IsRowHidden(row); got != want {
			t.Errorf("IsRowHidden(%d) = %v, want %v", row, got, want)
		}
	}

	if req := m.Expand(commit(t, g, "c")); req != (graph.UpdateRequest{From: 0, To: 4}) {
		t.Errorf("Expand(c) = %+v, want {0 4}", req)
	}
	if len(hiddenSet(g, m)) != 0 {
		t.Errorf("nodes still hidden after Expand")
	}
	if req := m.Expand(commit(t, g, "c")); !req.Empty() {
		t.Errorf("second Expand(c) = %+v, want empty", req)
	}
}

func TestExpandByEndpoint(t *testing.T) {
	tests := []struct {
		name string
		node graph.Hash
	}{
		{"upper", "a"},
		{"lower", "d"},
		{"interior", "b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := buildLog(t, "a|-b", "b|-c", "c|-d", "d|-")
			m := New(g, nil)
			m.Conceal()
			if req := m.Expand(commit(t, g, tt.node)); req.Empty() {
				t.Fatalf("Expand(%s) changed nothing", tt.node)
			}
			if len(m.HiddenFragments()) != 0 {
				t.Errorf("HiddenFragments() not empty")
			}
		})
	}
}

func TestInterleavedFragment(t *testing.T) {
	g := buildLog(t, "m|-a x", "a|-b", "x|-y", "b|-z", "y|-", "z|-")
	m := New(g, DefaultPolicy(RefSet{"x": true}))

	frags := m.Fragments()
	if len(frags) != 1 {
		t.Fatalf("len(Fragments()) = %d, want 1", len(frags))
	}
	if got := hashes(g, frags[0].Interior); !slices.Equal(got, []graph.Hash{"a", "b"}) {
		t.Fatalf("Interior = %v, want [a b]", got)
	}
	m.Conceal()

	var hidden []string
	for _, id := range hiddenSet(g, m) {
		n := g.Node(id)
		hidden = append(hidden, string(n.Hash)+"@"+string(rune('0'+n.Row)))
	}
	// a and b, the b placeholder in row 2 and the z placeholder in row 4
	want := []string{"a@1", "b@2", "b@3", "z@4"}
	slices.Sort(hidden)
	if !slices.Equal(hidden, want) {
		t.Errorf("hidden = %v, want %v", hidden, want)
	}
	for row, want := range []bool{false, true, false, true, false, false} {
		if got := m.IsRowHidden(row); got != want {
			t.Errorf("IsRowHidden(%d) = %v, want %v", row, got, want)
		}
	}
}

func TestConcealIsReversible(t *testing.T) {
	g := buildLog(t, "m|-a x", "a|-b", "x|-y", "b|-z", "y|-w", "w|-q", "z|-q", "q|-")
	m := New(g, nil)
	before := hiddenSet(g, m)

	m.Conceal()
	if len(hiddenSet(g, m)) == 0 {
		t.Fatal("Conceal hid nothing")
	}
	m.ExpandAll()
	if got := hiddenSet(g, m); !slices.Equal(got, before) {
		t.Errorf("hidden after ExpandAll = %v, want %v", got, before)
	}

	m.CollapseAll()
	for _, f := range m.Fragments() {
		m.Expand(f.Key())
	}
	if got := hiddenSet(g, m); !slices.Equal(got, before) {
		t.Errorf("hidden after expanding each = %v, want %v", got, before)
	}

	for _, f := range m.Fragments() {
		m.Collapse(f.Interior[len(f.Interior)-1])
		if !m.IsHidden(f.Key()) {
			t.Errorf("Collapse did not hide fragment %d", f.Key())
		}
	}
}

func TestMinSize(t *testing.T) {
	g := buildLog(t, "a|-b", "b|-c", "c|-d", "d|-")
	if n := len(New(g, nil, WithMinSize(3)).Fragments()); n != 0 {
		t.Errorf("len(Fragments()) = %d with min size 3, want 0", n)
	}
	if n := len(New(g, nil, WithMinSize(2)).Fragments()); n != 1 {
		t.Errorf("len(Fragments()) = %d with min size 2, want 1", n)
	}
}

func TestRefreshKeepsHiddenAcrossAppend(t *testing.T) {
	g := buildLog(t, "a|-b", "b|-c", "c|-d")
	m := New(g, nil)
	m.Conceal()
	f := m.HiddenFragments()[0]
	if g.Node(f.Down).Hash != "d" || !g.Node(f.Down).IsEnd() {
		t.Fatalf("Down = %s, want END d", g.Node(f.Down).Hash)
	}

	more, _ := gio.ParseRecords([]string{"d|-e", "e|-"}, 3)
	if _, err := build.Append(g, more); err != nil {
		t.Fatalf("Append: %v", err)
	}
	req := m.Refresh()
	if req.Empty() {
		t.Errorf("Refresh() reported no change")
	}

	hidden := m.HiddenFragments()
	if len(hidden) != 1 {
		t.Fatalf("len(HiddenFragments()) = %d, want 1", len(hidden))
	}
	if got := hashes(g, hidden[0].Interior); !slices.Equal(got, []graph.Hash{"b", "c", "d"}) {
		t.Errorf("Interior = %v, want [b c d]", got)
	}
	if g.Node(hidden[0].Down).Hash != "e" {
		t.Errorf("Down = %s, want e", g.Node(hidden[0].Down).Hash)
	}
}
