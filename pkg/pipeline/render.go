package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/taskplan/pkg/errors"
	tpio "github.com/matzehuels/taskplan/pkg/io"
	"github.com/matzehuels/taskplan/pkg/observability"
	"github.com/matzehuels/taskplan/pkg/render/nodelink"
	"github.com/matzehuels/taskplan/pkg/schedule"
	"github.com/matzehuels/taskplan/pkg/taskgraph"
)

// pngScale is the resolution multiplier for PNG output.
const pngScale = 2.0

// Render generates output artifacts in the requested formats. sol may be nil,
// in which case DOT and diagram outputs show the unscheduled graph and JSON
// output is an error.
func Render(ctx context.Context, g *taskgraph.Graph, sol *schedule.Solution, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	hooks.OnExportStart(ctx, opts.Formats)
	start := time.Now()

	artifacts, err := render(ctx, g, sol, opts)
	hooks.OnExportComplete(ctx, opts.Formats, time.Since(start), err)
	return artifacts, err
}

func render(ctx context.Context, g *taskgraph.Graph, sol *schedule.Solution, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))

	var dot string
	if opts.NeedsGraphviz() {
		dot = nodelink.ToDOT(g, nodelink.Options{Detailed: opts.Detailed, Solution: sol})
	}

	for _, format := range opts.Formats {
		var (
			data []byte
			err  error
		)
		switch format {
		case FormatDOT:
			var buf bytes.Buffer
			err = tpio.WriteDOT(&buf, g, sol, opts.Name)
			data = buf.Bytes()
		case FormatJSON:
			if sol == nil {
				return nil, errors.New(errors.ErrCodeNoSolution, "json output needs a schedule")
			}
			var buf bytes.Buffer
			err = tpio.WriteSolution(&buf, sol)
			data = buf.Bytes()
		case FormatSVG:
			data, err = nodelink.RenderSVG(ctx, dot)
		case FormatPNG:
			data, err = nodelink.RenderPNG(ctx, dot, pngScale)
		case FormatPDF:
			data, err = nodelink.RenderPDF(ctx, dot)
		default:
			return nil, ValidateFormat(format)
		}
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}
