// Package io reads commit logs and writes graph dumps.
//
// # Log Format
//
// A log is a sequence of lines, one commit per line, children first:
//
//	a0|-a1 a2
//	a1|-a2
//	a2|-
//
// The text before "|-" is the commit hash; the rest lists the parent hashes
// separated by spaces or commas. Blank lines and lines starting with '#' are
// skipped. The position of a line in the log becomes its log index.
//
// # Dump Format
//
// [Dump] writes one line per node, in row order:
//
//	hash|-parents|-edges|-nodeType|-branch|-rowIndex
//
// parents is the space separated parent list of a commit (empty otherwise).
// edges lists the incoming edges followed by the outgoing edges, comma
// separated, each formatted as origin:target:TYPE:branch where origin is the
// commit the line starts at and target is the hash the line resolves to.
// EDGE_NODE lines are indented by two spaces. Dumps are deterministic and are
// the reference representation used by tests.
//
// # JSON
//
// [Export] converts a graph into [Snapshot], the node-link wire format used
// by the HTTP API and by the snapshot stores in pkg/cache.
package io
