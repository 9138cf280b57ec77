// Package session ties a commit graph, its fragment manager and its print
// cell model into one unit of state with a single writer and many readers.
//
// Mutations ([Session.Append], [Session.Conceal], [Session.Expand] and
// friends) take the write lock, update the graph, reclassify fragments,
// recompute the affected print cells and publish the resulting
// [graph.UpdateRequest] to subscribers. Queries ([Session.PrintCell],
// [Session.RowCount], [Session.Dump]) take the read lock and may run
// concurrently.
//
// Records are pulled from a [RecordSource] in windows by [Session.LoadMore],
// which consults an explicit [cache.RecordCache] owned by the caller.
//
// A [Registry] keeps sessions by ID for long-running servers.
package session
