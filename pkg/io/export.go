package io

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/loggraph/pkg/graph"
)

// Snapshot is the node-link wire format of a graph. The HTTP API serves it
// as JSON and the dump command can also write it as YAML.
type Snapshot struct {
	Rows     int           `json:"rows" bson:"rows" yaml:"rows"`
	Boundary int           `json:"boundary" bson:"boundary" yaml:"boundary"`
	Nodes    []SnapshotNode `json:"nodes" bson:"nodes" yaml:"nodes"`
	Edges    []SnapshotEdge `json:"edges" bson:"edges" yaml:"edges"`
}

// SnapshotNode is a node in a [Snapshot].
type SnapshotNode struct {
	ID       int          `json:"id" bson:"id" yaml:"id"`
	Hash     string       `json:"hash" bson:"hash" yaml:"hash"`
	Row      int          `json:"row" bson:"row" yaml:"row"`
	Type     string       `json:"type" bson:"type" yaml:"type"`
	Branch   string       `json:"branch" bson:"branch" yaml:"branch"`
	Parents  []graph.Hash `json:"parents,omitempty" bson:"parents,omitempty" yaml:"parents,omitempty"`
	LogIndex *int         `json:"log_index,omitempty" bson:"log_index,omitempty" yaml:"log_index,omitempty"`
}

// SnapshotEdge is an edge in a [Snapshot].
type SnapshotEdge struct {
	ID     int    `json:"id" bson:"id" yaml:"id"`
	Up     int    `json:"up" bson:"up" yaml:"up"`
	Down   int    `json:"down" bson:"down" yaml:"down"`
	Type   string `json:"type" bson:"type" yaml:"type"`
	Branch string `json:"branch" bson:"branch" yaml:"branch"`
	Origin string `json:"origin" bson:"origin" yaml:"origin"`
}

// Export converts g into a Snapshot. Nodes are listed in row order.
func Export(g *graph.Graph) Snapshot {
	s := Snapshot{
		Rows:     g.RowCount(),
		Boundary: g.Boundary().Row,
		Nodes:    make([]SnapshotNode, 0, g.NodeCount()),
		Edges:    make([]SnapshotEdge, 0, g.EdgeCount()),
	}
	for row := range g.RowCount() {
		for _, id := range g.Row(row) {
			n := g.Node(id)
			sn := SnapshotNode{
				ID:     int(n.ID),
				Hash:   string(n.Hash),
				Row:    n.Row,
				Type:   n.Type.String(),
				Branch: g.Branch(n.Branch).Label(),
			}
			if n.Commit != nil {
				idx := n.Commit.LogIndex
				sn.Parents = n.Commit.Parents
				sn.LogIndex = &idx
			}
			s.Nodes = append(s.Nodes, sn)
		}
	}
	for i := range g.EdgeCount() {
		e := g.Edge(graph.EdgeID(i))
		var origin string
		if n := g.Node(e.Origin); n != nil {
			origin = string(n.Hash)
		}
		s.Edges = append(s.Edges, SnapshotEdge{
			ID:     int(e.ID),
			Up:     int(e.Up),
			Down:   int(e.Down),
			Type:   e.Type.String(),
			Branch: g.Branch(e.Branch).Label(),
			Origin: origin,
		})
	}
	return s
}

// WriteJSON writes the snapshot of g as indented JSON.
func WriteJSON(w io.Writer, g *graph.Graph) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Export(g))
}

// WriteYAML writes the snapshot of g as a YAML document.
func WriteYAML(w io.Writer, g *graph.Graph) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(Export(g)); err != nil {
		return err
	}
	return enc.Close()
}
