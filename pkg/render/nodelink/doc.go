// Package nodelink renders task graphs as node-link diagrams.
//
// # Overview
//
// Tasks appear as boxes connected by precedence arrows, laid out top to
// bottom by Graphviz. When a schedule is supplied, every box is filled with
// the colour of the processor it runs on, and edges whose endpoints run on
// different processors are dashed and labelled with their communication
// cost.
//
// # Usage
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Solution: sol, Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// For PDF or PNG output:
//
//	pdf, err := nodelink.RenderPDF(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot, 2.0)  // 2x scale
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
