// Package pkg provides the libraries behind loggraph, a commit graph layout
// engine.
//
// # Overview
//
// Loggraph turns a commit log (commits listed children first, each with its
// parent hashes) into rows of lane-assigned print cells that a terminal,
// Graphviz or HTTP client can draw. Long linear runs of commits can be
// concealed as fragments and expanded again on demand.
//
// The packages are layered:
//
//  1. [graph] - The node and edge arena, with [graph/build] for incremental
//     construction and [graph/fragment] for concealment
//  2. [printcell] - Lane assignment and per-row print cells
//  3. [session] - A concurrency-safe owner of one graph and its views
//  4. [source/gitlog] - Commit records read from a git repository
//  5. [cache] - Record caching on disk, Redis or MongoDB
//  6. [render] - Text and Graphviz renderers
//  7. [io] - The text log, debug dump and JSON formats
//
// # Data Flow
//
//	git repository / text log
//	         ↓
//	    [source/gitlog] or [io] (commit records)
//	         ↓
//	    [graph/build] (rows, nodes, edges)
//	         ↓
//	    [graph/fragment] (hidden runs)
//	         ↓
//	    [printcell] (lanes and print cells)
//	         ↓
//	    [render/text], [render/nodelink], HTTP
//
// # Quick Start
//
//	recs, _ := io.ParseRecords([]string{"c2|-c1", "c1|-c0", "c0|-"}, 0)
//	sess, _ := session.Open(ctx, recs, session.Options{Conceal: true})
//	cell, _ := sess.PrintCell(0)
//	for _, e := range cell.Elements {
//	    fmt.Println(e.Kind, e.Lane)
//	}
//
// [graph]: github.com/matzehuels/loggraph/pkg/graph
// [graph/build]: github.com/matzehuels/loggraph/pkg/graph/build
// [graph/fragment]: github.com/matzehuels/loggraph/pkg/graph/fragment
// [printcell]: github.com/matzehuels/loggraph/pkg/printcell
// [session]: github.com/matzehuels/loggraph/pkg/session
// [source/gitlog]: github.com/matzehuels/loggraph/pkg/source/gitlog
// [cache]: github.com/matzehuels/loggraph/pkg/cache
// [render]: github.com/matzehuels/loggraph/pkg/render
// [render/text]: github.com/matzehuels/loggraph/pkg/render/text
// [render/nodelink]: github.com/matzehuels/loggraph/pkg/render/nodelink
// [io]: github.com/matzehuels/loggraph/pkg/io
package pkg
