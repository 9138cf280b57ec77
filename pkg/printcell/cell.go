package printcell

import (
	"math"

	"github.com/matzehuels/loggraph/pkg/graph"
)

// Options returns the geometry the cell was laid out with.
func (c *GraphPrintCell) Options() Options { return c.opts }

// LaneX returns the horizontal centre of a lane.
func (c *GraphPrintCell) LaneX(lane int) float64 {
	return (float64(lane) + 0.5) * c.opts.LaneWidth
}

// Segment returns the endpoints of an edge element in cell coordinates.
func (c *GraphPrintCell) Segment(e PrintElement) (x1, y1, x2, y2 float64) {
	mid := (c.LaneX(e.Lane) + c.LaneX(e.OtherLane)) / 2
	cy := c.opts.RowHeight / 2
	if e.Direction == Down {
		return c.LaneX(e.Lane), cy, mid, c.opts.RowHeight
	}
	return mid, 0, c.LaneX(e.Lane), cy
}

// ArrowCenter returns the centre of a special element in cell coordinates.
func (c *GraphPrintCell) ArrowCenter(sp SpecialPrintElement) (x, y float64) {
	if sp.Type == UpArrow {
		return c.LaneX(sp.Lane), c.opts.ArrowSize
	}
	return c.LaneX(sp.Lane), c.opts.RowHeight - c.opts.ArrowSize
}

// MouseOver returns the element under the point (x, y), given in cell
// coordinates. Commit and end nodes take precedence over edges; among edges
// the closest one within LineThickness wins.
func (c *GraphPrintCell) MouseOver(x, y float64) (PrintElement, bool) {
	cy := c.opts.RowHeight / 2
	for _, e := range c.Elements {
		if e.Kind != NodeElement || e.NodeType == graph.EdgeNode {
			continue
		}
		if math.Hypot(x-c.LaneX(e.Lane), y-cy) <= c.opts.NodeRadius+c.opts.LineThickness/2 {
			return e, true
		}
	}

	best, bestDist := -1, c.opts.LineThickness
	for i, e := range c.Elements {
		if e.Kind != EdgeElement {
			continue
		}
		x1, y1, x2, y2 := c.Segment(e)
		if d := distToSegment(x, y, x1, y1, x2, y2); d <= bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return PrintElement{}, false
	}
	return c.Elements[best], true
}

// MouseOverArrow returns the special element under the point (x, y).
func (c *GraphPrintCell) MouseOverArrow(x, y float64) (SpecialPrintElement, bool) {
	for _, sp := range c.Specials {
		ax, ay := c.ArrowCenter(sp)
		if math.Abs(x-ax) <= c.opts.ArrowSize && math.Abs(y-ay) <= c.opts.ArrowSize {
			return sp, true
		}
	}
	return SpecialPrintElement{}, false
}

// ElementsAt returns the elements placed in a lane.
func (c *GraphPrintCell) ElementsAt(lane int) []PrintElement {
	var out []PrintElement
	for _, e := range c.Elements {
		if e.Lane == lane {
			out = append(out, e)
		}
	}
	return out
}

// Head returns the commit or end node element of the cell.
func (c *GraphPrintCell) Head() (PrintElement, bool) {
	for _, e := range c.Elements {
		if e.Kind == NodeElement && e.NodeType != graph.EdgeNode {
			return e, true
		}
	}
	return PrintElement{}, false
}

func distToSegment(px, py, x1, y1, x2, y2 float64) float64 {
	dx, dy := x2-x1, y2-y1
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return math.Hypot(px-x1, py-y1)
	}
	t := ((px-x1)*dx + (py-y1)*dy) / l2
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(px-(x1+t*dx), py-(y1+t*dy))
}
