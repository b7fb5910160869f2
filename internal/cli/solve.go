package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/taskplan/pkg/errors"
	tpio "github.com/matzehuels/taskplan/pkg/io"
	"github.com/matzehuels/taskplan/pkg/pipeline"
	"github.com/matzehuels/taskplan/pkg/search"
)

// tableLimit is the largest schedule printed as a table after solving.
const tableLimit = 40

// solveOpts holds the command-line flags for the solve command.
type solveOpts struct {
	algorithm string        // search algorithm
	threads   int           // worker count for parallel A*
	budget    int           // SMA*+ node budget
	timeout   time.Duration // stop the search after this long
	output    string        // output file (single format) or base path
	formats   string        // comma-separated output formats
	name      string        // digraph name in DOT output
	detailed  bool          // annotate diagrams with weights and times
	noCache   bool          // disable the solve cache
	refresh   bool          // ignore cached results but store new ones
	gantt     bool          // open the Gantt viewer after solving
}

// solveCommand creates the solve command.
func (c *CLI) solveCommand() *cobra.Command {
	var opts solveOpts

	cmd := &cobra.Command{
		Use:   "solve <graph> <processors>",
		Short: "Find a minimal-makespan schedule for a task graph",
		Long: `Find a minimal-makespan schedule for a task graph on identical processors.

The graph is a DOT file whose nodes and edges carry a Weight attribute
(task duration and communication cost), or a JSON graph file. The default
output is the input graph annotated with Start and Processor attributes,
written next to the input as <name>-output.dot.

Algorithms: astar (default), idastar, smastar, parallel, bnb.

Examples:
  taskplan solve graph.dot 2
  taskplan solve graph.dot 4 -a parallel -p 8
  taskplan solve graph.dot 3 -a smastar -b 50000 -f dot,svg,json
  taskplan solve graph.json 2 --timeout 30s --gantt`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			processors, err := strconv.Atoi(args[1])
			if err != nil {
				return errors.New(errors.ErrCodeInvalidInput, "processors must be a number, got %q", args[1])
			}
			return c.runSolve(cmd, args[0], processors, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.algorithm, "algorithm", "a", "", "search algorithm: astar, idastar, smastar, parallel, bnb")
	cmd.Flags().IntVarP(&opts.threads, "threads", "p", 0, "worker threads for parallel A* (default: number of CPUs)")
	cmd.Flags().IntVarP(&opts.budget, "budget", "b", 0, fmt.Sprintf("node budget for SMA*+ (default %d)", search.DefaultNodeBudget))
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "stop searching after this long and keep the best schedule found")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): dot (default), json, svg, png, pdf (comma-separated)")
	cmd.Flags().StringVar(&opts.name, "name", "", "digraph name in DOT output (default: input file name)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show weights and times in diagrams")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the solve cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached results")
	cmd.Flags().BoolVar(&opts.gantt, "gantt", false, "open the schedule in the Gantt viewer")

	return cmd
}

// pipelineOptions merges config defaults and flags into pipeline options.
func (c *CLI) pipelineOptions(input string, processors int, opts *solveOpts) pipeline.Options {
	po := pipeline.Options{
		Input:      input,
		Processors: processors,
		Algorithm:  c.Config.Algorithm,
		NodeBudget: c.Config.NodeBudget,
		Threads:    c.Config.Threads,
		Timeout:    c.Config.Timeout.Duration,
		Refresh:    opts.refresh,
		Formats:    parseFormats(opts.formats),
		Detailed:   opts.detailed,
		Name:       opts.name,
		Logger:     c.Logger,
	}
	if opts.algorithm != "" {
		po.Algorithm = opts.algorithm
	}
	if opts.threads != 0 {
		po.Threads = opts.threads
	}
	if opts.budget != 0 {
		po.NodeBudget = opts.budget
	}
	if opts.timeout != 0 {
		po.Timeout = opts.timeout
	}
	if po.Name == "" {
		po.Name = strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	}
	return po
}

func (c *CLI) runSolve(cmd *cobra.Command, input string, processors int, opts *solveOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	po := c.pipelineOptions(input, processors, opts)
	if err := po.ValidateAndSetDefaults(); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	spinner := newSpinner(ctx, os.Stderr, fmt.Sprintf("Solving %s on %d processors with %s...", filepath.Base(input), processors, po.Algorithm))
	reporter := newSearchReporter(logger, spinner, po.Timeout)
	po.Progress = reporter.onProgress

	sw := startStopwatch(logger)
	spinner.Start()
	result, err := runner.Execute(ctx, po)
	spinner.Stop()

	if result == nil {
		return err
	}
	res := result.Search
	if res.Solution == nil {
		printError("No schedule: %s", res.Status)
		if res.Status == search.StatusBoundExceeded {
			printDetail("Raise --budget or choose another algorithm")
		}
		if res.Status == search.StatusCancelled {
			printDetail("Search stopped after %d expansions", reporter.lastStats().Expanded)
		}
		return err
	}

	switch {
	case errors.Is(err, errors.ErrCodeTimeout):
		printWarning("Timed out after %s; schedule may not be optimal", po.Timeout)
	case errors.Is(err, errors.ErrCodeCancelled):
		printWarning("Search cancelled; schedule may not be optimal")
	case err != nil:
		return err
	default:
		printSuccess("Optimal makespan %s on %d processors", StyleNumber.Render(strconv.Itoa(res.Solution.Makespan)), processors)
	}
	printSearchStats(res.Stats, result.CacheInfo.SolveHit)
	if len(res.Solution.Tasks) <= tableLimit {
		fmt.Println(scheduleTable(res.Solution))
	}
	sw.done("solved", "graph", filepath.Base(input), "makespan", res.Solution.Makespan, "status", res.Status)

	var jsonPath string
	for _, format := range po.Formats {
		path := outputPath(input, opts.output, format, len(po.Formats) > 1)
		if err := os.WriteFile(path, result.Artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
		if format == pipeline.FormatJSON {
			jsonPath = path
		}
	}
	if result.Run != nil {
		printDetail("Run %s", shortID(result.Run.ID))
	}

	if opts.gantt {
		if err := runGantt(res.Solution, filepath.Base(input)); err != nil {
			return err
		}
	} else if jsonPath != "" {
		printNextStep("View as Gantt chart", fmt.Sprintf("%s gantt %s", appName, jsonPath))
	}

	// A timeout still produced a usable schedule; cancellation did not finish.
	if stderrors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// outputPath derives the file written for format. Without -o, outputs go
// next to the input as <name>-output.<format>.
func outputPath(input, output, format string, multi bool) string {
	if output == "" {
		if format == pipeline.FormatDOT && strings.HasSuffix(input, ".dot") {
			return tpio.OutputName(input)
		}
		return strings.TrimSuffix(input, filepath.Ext(input)) + "-output." + format
	}
	if !multi {
		return output
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		output = strings.TrimSuffix(output, ext)
	}
	return output + "." + format
}
