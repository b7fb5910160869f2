// Package render provides visual output for task graphs and schedules.
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg). A missing tool is reported
// with code UNSUPPORTED.
//
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0)  // 2x scale
//
// # Node-Link Diagrams
//
// The [nodelink] subpackage renders the task graph with Graphviz, colouring
// each task by the processor it was scheduled on.
//
// [nodelink]: github.com/matzehuels/taskplan/pkg/render/nodelink
package render
