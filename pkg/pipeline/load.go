package pipeline

import (
	"bytes"
	"context"
	"time"

	"github.com/matzehuels/taskplan/pkg/errors"
	tpio "github.com/matzehuels/taskplan/pkg/io"
	"github.com/matzehuels/taskplan/pkg/observability"
	"github.com/matzehuels/taskplan/pkg/taskgraph"
)

// Load reads the task graph described by opts.
func Load(ctx context.Context, opts Options) (*taskgraph.Graph, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, err
	}

	source := opts.Input
	if source == "" {
		source = "<inline " + opts.InputFormat + ">"
	} else if err := errors.ValidatePath(source); err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, source)
	start := time.Now()

	g, err := load(opts)

	n := 0
	if g != nil {
		n = g.Len()
	}
	hooks.OnLoadComplete(ctx, source, n, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	opts.Logger.Debug("loaded graph", "source", source, "tasks", g.Len(), "edges", g.EdgeCount())
	return g, nil
}

func load(opts Options) (*taskgraph.Graph, error) {
	switch {
	case opts.Input != "" && opts.InputFormat == InputJSON:
		return tpio.ImportJSON(opts.Input)
	case opts.Input != "":
		return tpio.ImportDOT(opts.Input)
	case opts.InputFormat == InputJSON:
		return tpio.ReadJSON(bytes.NewReader(opts.Source))
	default:
		return tpio.ReadDOT(bytes.NewReader(opts.Source))
	}
}
