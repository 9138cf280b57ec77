// Package graph provides the row-layered commit graph model.
//
// A [Graph] is built from an ordered list of commit records where every
// child appears before its parents. Each record occupies its own row, and
// edges only ever connect nodes in consecutive rows: a line that skips rows
// is carried through one [EdgeNode] placeholder per intermediate row.
//
// # Node Types
//
//   - [CommitNode]: a commit that is present in the loaded window
//   - [EdgeNode]: a placeholder carrying one or more lines through a row
//   - [EndCommitNode]: a parent that was referenced but never loaded
//
// END_COMMIT_NODE rows sit at the bottom of the graph. They are regenerated
// whenever more records are appended, which is why the graph remembers a
// [Boundary] mark describing where its finalized tail begins.
//
// # Storage
//
// Nodes, edges and branches live in arenas indexed by [NodeID], [EdgeID] and
// [BranchID]. Identifiers are stable for the lifetime of the graph except for
// the finalized tail, which is discarded and rebuilt by an append.
//
// # Construction
//
// Graphs are not built by hand. Use pkg/graph/build:
//
//	g, err := build.Build(records)
//	req, err := build.Append(g, more)
//
// The mutating methods on [Graph] exist for that package and keep the arena
// indices consistent; they do not validate commit semantics.
//
// # Concurrency
//
// A Graph is not safe for concurrent use. pkg/session wraps it with a
// single-writer/many-reader lock.
package graph
