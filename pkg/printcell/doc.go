// Package printcell lays out visible graph rows as lanes for drawing.
//
// A [Model] maps every visible row of a [graph.Graph] to a [GraphPrintCell]:
// the nodes of the row placed in integer lanes, the edge segments entering
// from the row above and leaving toward the row below, and the special
// arrow markers drawn at the cell edges. Rows hidden by pkg/graph/fragment
// are skipped entirely; lines crossing them are followed through.
//
// # Lanes
//
// Lanes are assigned row by row from the previous visible row:
//
//   - a node whose hash (or a hidden fragment) continues from the previous
//     row keeps its lane
//   - lanes of terminated lines are freed
//   - new entries take the lowest free lane, in row order
//
// A hidden fragment occupies a lane in every visible row strictly between
// its endpoints and is drawn as a pass-through of its HIDE_FRAGMENT edge.
//
// # Special Elements
//
//   - END_COMMIT_NODE: a down arrow marking a line that leaves the window
//   - hidden fragment: a down arrow at the upper endpoint, an up arrow at
//     the lower endpoint, each jumping to the other end
//   - long edge: arrows at both ends of a line spanning more than
//     [Options].LongEdgeSize visible rows
//
// # Incremental Updates
//
// [Model.Update] recomputes lanes starting one row above the changed range
// and continues past its end until the new lane state matches the old one,
// at which point the remaining rows are reused unchanged.
//
// # Geometry
//
// Cells are LaneWidth × RowHeight units. A node sits at the centre of its
// lane. An edge segment leaving downward runs from the node centre to the
// midpoint between its two lanes at the bottom of the cell; the matching
// upward segment in the next cell continues from that midpoint.
package printcell
