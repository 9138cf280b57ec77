// Package build constructs row-layered commit graphs from commit logs.
//
// [Build] turns an ordered list of [graph.CommitRecord] values into a
// [graph.Graph]. The input must list every child before its parents, the
// order produced by "git log --topo-order". Each record becomes one row:
//
//	a0|-a2        row 0: a0 (COMMIT)
//	a1|-a2        row 1: a2 (EDGE) a1 (COMMIT)
//	a2|-          row 2: a2 (COMMIT)
//
// # Lines and Placeholders
//
// A parent that has not been reached yet is tracked by a placeholder node in
// the row below the current record. Each record advances every outstanding
// placeholder by one row, so a line from a child to a distant parent is
// carried by one EDGE_NODE per row it crosses. Lines converging on the same
// parent share placeholders; a placeholder's outgoing edges follow the order
// of its incoming edges.
//
// # Branches
//
// The first-parent edge of a commit inherits the commit's branch. Every
// other parent edge starts a new branch labelled "child>parent". A commit
// that was not anyone's pending parent starts a branch labelled with its
// own hash.
//
// # Finalization
//
// Parents still pending after the last record become END_COMMIT_NODEs, one
// per row, in row order. The graph remembers where that tail begins.
//
// # Appending
//
// [Append] discards the finalized tail, continues from the saved frontier
// and finalizes again. For any split of a record list, building the prefix
// and appending the suffix yields the same graph as building the whole list.
// Validation runs before any mutation, so a rejected batch leaves the graph
// untouched.
package build
