package printcell

import (
	"errors"
	"fmt"

	"github.com/matzehuels/loggraph/pkg/graph"
)

// ErrRowOutOfRange is returned for visible row indices outside the model.
var ErrRowOutOfRange = errors.New("visible row out of range")

// Default geometry and thresholds.
const (
	DefaultLaneWidth     = 16.0
	DefaultRowHeight     = 22.0
	DefaultNodeRadius    = 4.0
	DefaultLineThickness = 3.0
	DefaultArrowSize     = 5.0
	DefaultLongEdgeSize  = 30
)

// Options configures cell geometry.
type Options struct {
	LaneWidth     float64 `json:"lane_width" toml:"lane_width"`
	RowHeight     float64 `json:"row_height" toml:"row_height"`
	NodeRadius    float64 `json:"node_radius" toml:"node_radius"`
	LineThickness float64 `json:"line_thickness" toml:"line_thickness"`
	ArrowSize     float64 `json:"arrow_size" toml:"arrow_size"`

	// LongEdgeSize is the visible span above which a line gets arrows at
	// both ends. Zero or less disables long-edge arrows.
	LongEdgeSize int `json:"long_edge_size" toml:"long_edge_size"`
}

// DefaultOptions returns the default geometry.
func DefaultOptions() Options {
	return Options{
		LaneWidth:     DefaultLaneWidth,
		RowHeight:     DefaultRowHeight,
		NodeRadius:    DefaultNodeRadius,
		LineThickness: DefaultLineThickness,
		ArrowSize:     DefaultArrowSize,
		LongEdgeSize:  DefaultLongEdgeSize,
	}
}

// withDefaults fills zero geometry fields. LongEdgeSize is left as given.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.LaneWidth <= 0 {
		o.LaneWidth = d.LaneWidth
	}
	if o.RowHeight <= 0 {
		o.RowHeight = d.RowHeight
	}
	if o.NodeRadius <= 0 {
		o.NodeRadius = d.NodeRadius
	}
	if o.LineThickness <= 0 {
		o.LineThickness = d.LineThickness
	}
	if o.ArrowSize <= 0 {
		o.ArrowSize = d.ArrowSize
	}
	return o
}

// ElementKind distinguishes node and edge elements.
type ElementKind int

const (
	NodeElement ElementKind = iota
	EdgeElement
)

func (k ElementKind) String() string {
	if k == EdgeElement {
		return "edge"
	}
	return "node"
}

// MarshalText implements encoding.TextMarshaler.
func (k ElementKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ElementKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "node":
		*k = NodeElement
	case "edge":
		*k = EdgeElement
	default:
		return fmt.Errorf("unknown element kind %q", b)
	}
	return nil
}

// Direction tells which half of a cell an edge segment occupies.
type Direction int

const (
	// Down segments leave the node toward the next row.
	Down Direction = iota
	// Up segments arrive from the previous row.
	Up
)

func (d Direction) String() string {
	if d == Up {
		return "up"
	}
	return "down"
}

// MarshalText implements encoding.TextMarshaler.
func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Direction) UnmarshalText(b []byte) error {
	switch string(b) {
	case "down":
		*d = Down
	case "up":
		*d = Up
	default:
		return fmt.Errorf("unknown direction %q", b)
	}
	return nil
}

// ArrowType is the kind of a special element.
type ArrowType int

const (
	DownArrow ArrowType = iota
	UpArrow
)

func (a ArrowType) String() string {
	if a == UpArrow {
		return "up_arrow"
	}
	return "down_arrow"
}

// MarshalText implements encoding.TextMarshaler.
func (a ArrowType) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *ArrowType) UnmarshalText(b []byte) error {
	switch string(b) {
	case "down_arrow":
		*a = DownArrow
	case "up_arrow":
		*a = UpArrow
	default:
		return fmt.Errorf("unknown arrow type %q", b)
	}
	return nil
}

// PrintElement is a node or edge segment placed in a lane.
type PrintElement struct {
	Kind ElementKind `json:"kind"`
	Lane int         `json:"lane"`

	// Node fields.
	Node     graph.NodeID   `json:"node"`
	NodeType graph.NodeType `json:"node_type"`
	Hash     graph.Hash     `json:"hash,omitempty"`

	// Edge fields. OtherLane is the lane of the segment's far end in the
	// adjacent visible row.
	Edge      graph.Edge `json:"edge"`
	OtherLane int        `json:"other_lane"`
	Direction Direction  `json:"direction"`
}

// SpecialPrintElement is an arrow marker drawn at a cell edge.
type SpecialPrintElement struct {
	Type   ArrowType    `json:"type"`
	Lane   int          `json:"lane"`
	Edge   graph.Edge   `json:"edge"`
	Target graph.NodeID `json:"target"` // node the arrow jumps to
}

// GraphPrintCell is the drawable content of one visible row.
type GraphPrintCell struct {
	Row         int                   `json:"row"`
	PhysicalRow int                   `json:"physical_row"`
	Width       int                   `json:"width"` // lanes used by the cell
	Elements    []PrintElement        `json:"elements"`
	Specials    []SpecialPrintElement `json:"specials,omitempty"`

	opts Options
}

// Recalc describes the most recent lane recomputation.
type Recalc struct {
	From int `json:"from"` // first physical row recomputed
	To   int `json:"to"`   // physical row after the last recomputed one
	Rows int `json:"rows"` // visible rows recomputed
}
