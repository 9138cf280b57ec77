// Package render provides shared helpers for the commit graph renderers.
//
// The renderers live in subpackages:
//
//   - [text]: terminal output of print cells, one line per visible row
//   - [nodelink]: Graphviz diagrams of commits (DOT, SVG, PNG, PDF)
//
// This package holds what they share: the branch color palette and the
// SVG to PDF conversion through rsvg-convert.
//
// [text]: github.com/matzehuels/loggraph/pkg/render/text
// [nodelink]: github.com/matzehuels/loggraph/pkg/render/nodelink
package render
