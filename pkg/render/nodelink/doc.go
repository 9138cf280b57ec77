// Package nodelink renders commit graphs as Graphviz node-link diagrams.
//
// # Overview
//
// Commits and END nodes become boxes; every logical line (child to parent)
// becomes one arrow regardless of how many placeholder rows it crosses.
// Hidden fragments are drawn as a single dashed arrow labelled with the
// number of concealed commits.
//
// # Usage
//
// Convert a graph to DOT, then render:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Hidden: frags})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot)
//
// PDF output goes through SVG and requires librsvg (rsvg-convert).
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process rendering.
package nodelink
