package text

import (
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/loggraph/pkg/graph"
	"github.com/matzehuels/loggraph/pkg/printcell"
	"github.com/matzehuels/loggraph/pkg/render"
)

// DefaultShortHash is the hash length used when Options.ShortHash is zero.
const DefaultShortHash = 7

// Glyphs.
const (
	glyphCommit   = '*'
	glyphEnd      = 'o'
	glyphLine     = '|'
	glyphHidden   = ':'
	glyphForward  = '\\'
	glyphBackward = '/'
	glyphRun      = '_'
)

// Options configures text rendering.
type Options struct {
	// Color paints lanes in their branch colors.
	Color bool

	// ShortHash abbreviates hashes; negative keeps them whole.
	ShortHash int

	// Labels adds reference names to commits.
	Labels map[graph.Hash][]string
}

func (o Options) hashLen() int {
	if o.ShortHash == 0 {
		return DefaultShortHash
	}
	return o.ShortHash
}

type glyph struct {
	r      rune
	branch graph.BranchID
}

// Row is the drawing of one cell: its node line and the connector line
// leading to the next cell. Connector is empty when the cell has no
// outgoing segments.
type Row struct {
	Node      string
	Connector string
}

// Render draws cells, which must be consecutive visible rows of a model
// built over g.
func Render(g *graph.Graph, cells []*printcell.GraphPrintCell, opts Options) string {
	return strings.Join(Lines(g, cells, opts), "\n")
}

// Lines draws cells and returns one string per output line.
func Lines(g *graph.Graph, cells []*printcell.GraphPrintCell, opts Options) []string {
	var out []string
	for _, r := range Rows(g, cells, opts) {
		out = append(out, r.Node)
		if r.Connector != "" {
			out = append(out, r.Connector)
		}
	}
	return out
}

// Rows draws each cell separately. All rows share the width of the
// widest cell.
func Rows(g *graph.Graph, cells []*printcell.GraphPrintCell, opts Options) []Row {
	width := 0
	for _, c := range cells {
		width = max(width, c.Width)
	}
	cols := max(2*width-1, 1)

	rows := make([]Row, len(cells))
	for i, c := range cells {
		rows[i].Node = paint(nodeLine(g, c, cols), opts) + annotation(g, c, opts)
		if conn := connectorLine(c, cols); !blank(conn) {
			rows[i].Connector = strings.TrimRight(paint(conn, opts), " ")
		}
	}
	return rows
}

func nodeLine(g *graph.Graph, c *printcell.GraphPrintCell, cols int) []glyph {
	line := emptyLine(cols)
	for _, e := range c.Elements {
		if e.Kind != printcell.EdgeElement {
			continue
		}
		r := glyphLine
		if e.Edge.Type == graph.HideFragment {
			r = glyphHidden
		}
		line[2*e.Lane] = glyph{r: r, branch: e.Edge.Branch}
	}
	for _, e := range c.Elements {
		if e.Kind != printcell.NodeElement {
			continue
		}
		n := g.Node(e.Node)
		switch e.NodeType {
		case graph.CommitNode:
			line[2*e.Lane] = glyph{r: glyphCommit, branch: n.Branch}
		case graph.EndCommitNode:
			line[2*e.Lane] = glyph{r: glyphEnd, branch: n.Branch}
		default:
			if line[2*e.Lane].r == ' ' {
				line[2*e.Lane] = glyph{r: glyphLine, branch: n.Branch}
			}
		}
	}
	return line
}

func connectorLine(c *printcell.GraphPrintCell, cols int) []glyph {
	line := emptyLine(cols)
	set := func(col int, g glyph, force bool) {
		if col < 0 || col >= len(line) {
			return
		}
		if force || line[col].r == ' ' {
			line[col] = g
		}
	}
	for _, e := range c.Elements {
		if e.Kind != printcell.EdgeElement || e.Direction != printcell.Down {
			continue
		}
		from, to := e.Lane, e.OtherLane
		switch {
		case to == from:
			r := glyphLine
			if e.Edge.Type == graph.HideFragment {
				r = glyphHidden
			}
			set(2*from, glyph{r: r, branch: e.Edge.Branch}, true)
		case to > from:
			for col := 2*from + 1; col < 2*to-1; col++ {
				set(col, glyph{r: glyphRun, branch: e.Edge.Branch}, false)
			}
			set(2*to-1, glyph{r: glyphForward, branch: e.Edge.Branch}, true)
		default:
			set(2*to+1, glyph{r: glyphBackward, branch: e.Edge.Branch}, true)
			for col := 2*to + 2; col < 2*from; col++ {
				set(col, glyph{r: glyphRun, branch: e.Edge.Branch}, false)
			}
		}
	}
	return line
}

func annotation(g *graph.Graph, c *printcell.GraphPrintCell, opts Options) string {
	head, ok := c.Head()
	if !ok {
		return ""
	}
	var b strings.Builder
	b.WriteByte(' ')
	b.WriteString(render.ShortHash(head.Hash, opts.hashLen()))
	if names := opts.Labels[head.Hash]; len(names) > 0 {
		sorted := slices.Clone(names)
		slices.Sort(sorted)
		b.WriteString(" (" + strings.Join(sorted, ", ") + ")")
	}
	for _, sp := range c.Specials {
		// An unloaded parent's arrow points at the node itself.
		if sp.Target == head.Node {
			continue
		}
		n := g.Node(sp.Target)
		if n == nil {
			continue
		}
		arrow := "↓"
		if sp.Type == printcell.UpArrow {
			arrow = "↑"
		}
		b.WriteString(" " + arrow + render.ShortHash(n.Hash, opts.hashLen()))
	}
	if opts.Color && head.NodeType == graph.EndCommitNode {
		return styleDim.Render(b.String())
	}
	return b.String()
}

var styleDim = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

func paint(line []glyph, opts Options) string {
	var b strings.Builder
	for _, g := range line {
		if !opts.Color || g.r == ' ' {
			b.WriteRune(g.r)
			continue
		}
		b.WriteString(branchStyle(g.branch).Render(string(g.r)))
	}
	return b.String()
}

func branchStyle(id graph.BranchID) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(render.BranchColor(id)))
}

func emptyLine(cols int) []glyph {
	line := make([]glyph, cols)
	for i := range line {
		line[i] = glyph{r: ' ', branch: -1}
	}
	return line
}

func blank(line []glyph) bool {
	for _, g := range line {
		if g.r != ' ' {
			return false
		}
	}
	return true
}
