package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/taskplan/pkg/render"
	"github.com/matzehuels/taskplan/pkg/schedule"
	"github.com/matzehuels/taskplan/pkg/taskgraph"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds weight, bottom level and timing to node labels.
	// When false, only the task ID is shown.
	Detailed bool

	// Solution, if set, colours every task by its processor and labels
	// edges that cross processors with their communication cost.
	Solution *schedule.Solution
}

// palette holds one fill colour per processor, reused cyclically.
var palette = []string{
	"#8dd3c7", "#ffffb3", "#bebada", "#fb8072", "#80b1d3",
	"#fdb462", "#b3de69", "#fccde5", "#d9d9d9", "#bc80bd",
}

// ProcessorColor returns the fill colour used for processor p.
func ProcessorColor(p int) string {
	return palette[p%len(palette)]
}

// ToDOT converts a task graph to Graphviz DOT format for node-link
// visualization. The result can be rendered with [RenderSVG], [RenderPDF],
// or [RenderPNG].
func ToDOT(g *taskgraph.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=24, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, t := range g.Tasks() {
		a, placed := lookup(opts.Solution, t.ID())
		label := fmtLabel(t, a, placed, opts.Detailed)
		attrs := fmtAttrs(a, placed, label)
		fmt.Fprintf(&buf, "  %q [%s];\n", t.ID(), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  %q -> %q", e.Parent.ID(), e.Child.ID())
		if crosses(opts.Solution, e) && e.Comm > 0 {
			fmt.Fprintf(&buf, " [label=\"%d\", style=dashed]", e.Comm)
		}
		buf.WriteString(";\n")
	}

	buf.WriteString("}\n")
	return buf.String()
}

func lookup(sol *schedule.Solution, id string) (schedule.Assignment, bool) {
	if sol == nil {
		return schedule.Assignment{}, false
	}
	return sol.Lookup(id)
}

func crosses(sol *schedule.Solution, e taskgraph.Edge) bool {
	from, ok1 := lookup(sol, e.Parent.ID())
	to, ok2 := lookup(sol, e.Child.ID())
	return ok1 && ok2 && from.Processor != to.Processor
}

func fmtLabel(t *taskgraph.Task, a schedule.Assignment, placed, detailed bool) string {
	if !detailed {
		return t.ID()
	}

	parts := []string{
		fmt.Sprintf("weight: %d", t.Weight()),
		fmt.Sprintf("bl: %d", t.BottomLevel()),
	}
	if placed {
		parts = append(parts, fmt.Sprintf("P%d [%d, %d)", a.Processor, a.Start, a.Finish))
	}
	return t.ID() + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(a schedule.Assignment, placed bool, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if placed {
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", ProcessorColor(a.Processor)))
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion. A scale of 2.0
// produces a 2x resolution image.
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
