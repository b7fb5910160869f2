// Package pipeline provides the load → solve → render pipeline shared by the
// CLI and the HTTP service.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Read a task graph from a DOT or JSON file, or from raw bytes
//  2. Solve: Run a search algorithm, consulting the cache first
//  3. Render: Produce the requested outputs (DOT, JSON, SVG, PNG, PDF)
//
// A [Runner] holds the cache, the run store and the logger. Each stage can
// be run on its own or through [Runner.Execute].
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, st, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Input:      "graph.dot",
//	    Processors: 2,
//	    Algorithm:  "astar",
//	    Formats:    []string{"dot", "svg"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Search.Solution.Makespan)
package pipeline

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/taskplan/pkg/cache"
	"github.com/matzehuels/taskplan/pkg/errors"
	"github.com/matzehuels/taskplan/pkg/search"
	"github.com/matzehuels/taskplan/pkg/store"
	"github.com/matzehuels/taskplan/pkg/taskgraph"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultAlgorithm is the search algorithm used when none is given.
	DefaultAlgorithm = search.AStar

	// MaxProcessors bounds the processor count accepted from users. The
	// state space grows with every processor, and more processors than
	// tasks never help.
	MaxProcessors = 64
)

// Format constants for output formats.
const (
	FormatDOT  = "dot"
	FormatJSON = "json"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatDOT:  true,
	FormatJSON: true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
}

// Input formats.
const (
	InputDOT  = "dot"
	InputJSON = "json"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options. Exactly one of Input and Source must be set.
	Input       string `json:"input,omitempty"`        // path to a .dot or .json file
	Source      []byte `json:"-"`                      // raw graph bytes
	InputFormat string `json:"input_format,omitempty"` // "dot" or "json"; inferred from Input when empty

	// Search options
	Processors int           `json:"processors"`
	Algorithm  string        `json:"algorithm,omitempty"`
	NodeBudget int           `json:"node_budget,omitempty"`
	Threads    int           `json:"threads,omitempty"`
	Timeout    time.Duration `json:"timeout,omitempty"`
	Refresh    bool          `json:"refresh,omitempty"` // ignore cached solve results

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`
	Name     string   `json:"name,omitempty"` // digraph name for DOT output

	// Runtime options (not serialized)
	Logger   *log.Logger        `json:"-"`
	Progress func(search.Stats) `json:"-"`

	algorithm search.Algorithm
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the loaded task graph.
	Graph *taskgraph.Graph

	// GraphHash is the content hash of the graph.
	GraphHash string

	// Search is the search outcome. Search.Solution is nil unless a
	// schedule was found.
	Search search.Result

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Run is the record saved to the store, if the runner has one.
	Run *store.Run

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	TaskCount  int
	EdgeCount  int
	LoadTime   time.Duration
	SolveTime  time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	SolveHit  bool // Whether the search result came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: dot, json, svg, png, pdf)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// InferInputFormat returns the input format implied by a file name.
func InferInputFormat(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dot", ".gv":
		return InputDOT, nil
	case ".json":
		return InputJSON, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat,
		"cannot infer input format of %q (use a .dot or .json file)", path)
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the
// full pipeline. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForSolve(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks the input fields and infers the input format.
func (o *Options) ValidateForLoad() error {
	switch {
	case o.Input == "" && len(o.Source) == 0:
		return errors.New(errors.ErrCodeInvalidInput, "an input file or graph source is required")
	case o.Input != "" && len(o.Source) > 0:
		return errors.New(errors.ErrCodeInvalidInput, "input file and graph source are mutually exclusive")
	}
	if o.InputFormat == "" {
		if o.Input == "" {
			o.InputFormat = InputDOT
		} else {
			f, err := InferInputFormat(o.Input)
			if err != nil {
				return err
			}
			o.InputFormat = f
		}
	}
	if o.InputFormat != InputDOT && o.InputFormat != InputJSON {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid input format: %q (must be dot or json)", o.InputFormat)
	}
	o.setLogger()
	return nil
}

// ValidateForSolve checks the search fields and applies defaults.
func (o *Options) ValidateForSolve() error {
	if err := errors.ValidateProcessors(o.Processors, MaxProcessors); err != nil {
		return err
	}
	if o.Algorithm == "" {
		o.Algorithm = string(DefaultAlgorithm)
	}
	alg, err := search.ParseAlgorithm(o.Algorithm)
	if err != nil {
		return err
	}
	o.algorithm = alg
	o.Algorithm = string(alg)
	if o.Timeout < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "timeout must not be negative, got %s", o.Timeout)
	}
	if err := o.SearchOptions().Validate(); err != nil {
		return err
	}
	o.setLogger()
	return nil
}

// ValidateForRender checks the render fields and applies defaults.
func (o *Options) ValidateForRender() error {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatDOT}
	}
	o.Formats = dedupe(o.Formats)
	if o.Name == "" {
		o.Name = "schedule"
	}
	o.setLogger()
	return ValidateFormats(o.Formats)
}

// dedupe drops repeated formats, keeping the first occurrence of each.
func dedupe(formats []string) []string {
	seen := make(map[string]bool, len(formats))
	out := formats[:0:0]
	for _, f := range formats {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// SearchOptions returns the options passed to [search.Search].
func (o *Options) SearchOptions() search.Options {
	alg := o.algorithm
	if alg == "" {
		alg = search.Algorithm(o.Algorithm)
	}
	return search.Options{
		Processors: o.Processors,
		Algorithm:  alg,
		NodeBudget: o.NodeBudget,
		Threads:    o.Threads,
		Progress:   o.Progress,
	}.WithDefaults()
}

// SolveKeyOpts returns cache key options for the search stage. Threads are
// left out: every exact algorithm returns the same makespan regardless of
// worker count.
func (o *Options) SolveKeyOpts() cache.SolveKeyOpts {
	k := cache.SolveKeyOpts{Processors: o.Processors, Algorithm: o.Algorithm}
	if o.algorithm == search.SMAStarPlus {
		k.NodeBudget = o.SearchOptions().NodeBudget
	}
	return k
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{Format: format, Detailed: o.Detailed}
}

// NeedsGraphviz reports whether any requested format is rendered through
// Graphviz.
func (o *Options) NeedsGraphviz() bool {
	for _, f := range o.Formats {
		if f == FormatSVG || f == FormatPNG || f == FormatPDF {
			return true
		}
	}
	return false
}
