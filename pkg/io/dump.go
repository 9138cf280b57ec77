package io

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/matzehuels/loggraph/pkg/graph"
)

// Dump returns the dump of g as a single string with a trailing newline per node.
func Dump(g *graph.Graph) string {
	var b strings.Builder
	_ = WriteDump(&b, g)
	return b.String()
}

// DumpLines returns the dump of g, one element per node.
func DumpLines(g *graph.Graph) []string {
	var lines []string
	for row := range g.RowCount() {
		for _, id := range g.Row(row) {
			lines = append(lines, FormatNode(g, id))
		}
	}
	return lines
}

// WriteDump writes the dump of g to w.
func WriteDump(w io.Writer, g *graph.Graph) error {
	bw := bufio.NewWriter(w)
	for row := range g.RowCount() {
		for _, id := range g.Row(row) {
			if _, err := bw.WriteString(FormatNode(g, id)); err != nil {
				return err
			}
			if err := bw.WriteByte('\n'); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// FormatNode formats a single dump line.
func FormatNode(g *graph.Graph, id graph.NodeID) string {
	n := g.Node(id)
	if n == nil {
		return ""
	}
	var b strings.Builder
	if n.Type == graph.EdgeNode {
		b.WriteString("  ")
	}
	b.WriteString(string(n.Hash))
	b.WriteString(Separator)
	if n.Commit != nil {
		for i, p := range n.Commit.Parents {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(string(p))
		}
	}
	b.WriteString(Separator)
	first := true
	for _, list := range [][]graph.EdgeID{n.Up, n.Down} {
		for _, eid := range list {
			if !first {
				b.WriteByte(',')
			}
			first = false
			b.WriteString(FormatEdge(g, g.Edge(eid)))
		}
	}
	b.WriteString(Separator)
	b.WriteString(n.Type.String())
	b.WriteString(Separator)
	b.WriteString(g.Branch(n.Branch).Label())
	b.WriteString(Separator)
	b.WriteString(strconv.Itoa(n.Row))
	return b.String()
}

// FormatEdge formats an edge as origin:target:TYPE:branch.
func FormatEdge(g *graph.Graph, e graph.Edge) string {
	var origin, target graph.Hash
	if n := g.Node(e.Origin); n != nil {
		origin = n.Hash
	}
	if n := g.Node(e.Down); n != nil {
		target = n.Hash
	}
	return string(origin) + ":" + string(target) + ":" + e.Type.String() + ":" + g.Branch(e.Branch).Label()
}
