package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/loggraph/pkg/graph"
	"github.com/matzehuels/loggraph/pkg/graph/fragment"
	"github.com/matzehuels/loggraph/pkg/render"
)

// Visibility reports concealed state. *fragment.Manager implements it.
type Visibility interface {
	IsNodeHidden(id graph.NodeID) bool
	HiddenFragments() []fragment.Fragment
}

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds row, log index and branch to node labels.
	Detailed bool

	// ShortHash abbreviates hashes in labels; zero keeps them whole.
	ShortHash int

	// Hidden conceals fragments. May be nil.
	Hidden Visibility

	// Labels adds reference names to commits.
	Labels map[graph.Hash][]string
}

const dotHeader = `digraph G {
  rankdir=TB;
  bgcolor="transparent";
  ranksep=0.3;
  nodesep=0.3;
  node [shape=box, style="rounded,filled", fillcolor=white, fontname="monospace", fontsize=14, margin="0.15,0.05"];
  edge [arrowsize=0.7];
`

// ToDOT writes the visible part of g as a Graphviz digraph: one box per
// commit or end node in row order, one edge per parent line coloured by
// branch, and a dashed edge labelled with its size across every hidden
// fragment.
func ToDOT(g *graph.Graph, opts Options) string {
	visible := func(id graph.NodeID) bool {
		return id != graph.NoNode && (opts.Hidden == nil || !opts.Hidden.IsNodeHidden(id))
	}

	var b strings.Builder
	b.WriteString(dotHeader)

	heads := make([]*graph.Node, 0, g.RowCount())
	for row := range g.RowCount() {
		if id := g.RowHead(row); visible(id) {
			n := g.Node(id)
			heads = append(heads, n)
			fmt.Fprintf(&b, "  %q [%s];\n", string(n.Hash), strings.Join(nodeAttrs(g, n, opts), ", "))
		}
	}

	for _, n := range heads {
		for _, e := range n.Down {
			if target := g.LineTarget(e); visible(target) {
				fmt.Fprintf(&b, "  %q -> %q [color=%q];\n",
					string(n.Hash), string(g.Node(target).Hash), render.BranchColor(g.Edge(e).Branch))
			}
		}
	}

	if opts.Hidden != nil {
		for _, f := range opts.Hidden.HiddenFragments() {
			fmt.Fprintf(&b, "  %q -> %q [style=dashed, color=\"#808080\", label=%q, fontsize=10];\n",
				string(g.Node(f.Up).Hash), string(g.Node(f.Down).Hash), fmt.Sprintf("%d hidden", len(f.Interior)))
		}
	}

	b.WriteString("}\n")
	return b.String()
}

// nodeLabel is the short hash, the sorted reference names and, in detailed
// mode, the row, log index and branch of n. End nodes carry the hash of a
// commit that was never read, so hashes identify drawn nodes uniquely.
func nodeLabel(g *graph.Graph, n *graph.Node, opts Options) string {
	lines := []string{render.ShortHash(n.Hash, opts.ShortHash)}
	if refs := opts.Labels[n.Hash]; len(refs) > 0 {
		refs = slices.Sorted(slices.Values(refs))
		lines = append(lines, "("+strings.Join(refs, ", ")+")")
	}
	if opts.Detailed {
		lines = append(lines, "row: "+strconv.Itoa(n.Row))
		if n.Commit != nil {
			lines = append(lines, "index: "+strconv.Itoa(n.Commit.LogIndex))
		}
		lines = append(lines, "branch: "+g.Branch(n.Branch).Label())
	}
	return strings.Join(lines, "\n")
}

func nodeAttrs(g *graph.Graph, n *graph.Node, opts Options) []string {
	attrs := []string{
		fmt.Sprintf("label=%q", nodeLabel(g, n, opts)),
		fmt.Sprintf("color=%q", render.BranchColor(n.Branch)),
	}
	if n.IsEnd() {
		attrs = append(attrs, `style="rounded,filled,dashed"`, "fillcolor=lightgrey", "fontcolor=black")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	out, err := renderDOT(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return renderDOT(ctx, dot, graphviz.PNG)
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

func renderDOT(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the root element with one whose size matches
// the view box, so the SVG scales cleanly when embedded.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
