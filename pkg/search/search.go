package search

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/taskplan/pkg/errors"
	"github.com/matzehuels/taskplan/pkg/observability"
	"github.com/matzehuels/taskplan/pkg/schedule"
	"github.com/matzehuels/taskplan/pkg/taskgraph"
)

// Algorithm selects a search driver.
type Algorithm string

const (
	AStar          Algorithm = "astar"
	IDAStar        Algorithm = "idastar"
	SMAStarPlus    Algorithm = "smastar"
	ParallelAStar  Algorithm = "parallel"
	BranchAndBound Algorithm = "bnb"
)

// Algorithms returns every supported algorithm in a stable order.
func Algorithms() []Algorithm {
	return []Algorithm{AStar, IDAStar, SMAStarPlus, ParallelAStar, BranchAndBound}
}

// ParseAlgorithm converts a name to an Algorithm. Matching is case
// insensitive and accepts a few common spellings.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "astar", "a*", "a-star":
		return AStar, nil
	case "idastar", "ida*", "ida-star":
		return IDAStar, nil
	case "smastar", "sma*", "sma*+", "smastarplus", "sma":
		return SMAStarPlus, nil
	case "parallel", "parallel-astar", "pastar":
		return ParallelAStar, nil
	case "bnb", "branch-and-bound", "branchandbound":
		return BranchAndBound, nil
	}
	return "", errors.New(errors.ErrCodeInvalidAlgorithm, "unknown algorithm %q (want one of %s)", name, algorithmList())
}

func algorithmList() string {
	names := make([]string, 0, len(Algorithms()))
	for _, a := range Algorithms() {
		names = append(names, string(a))
	}
	return strings.Join(names, ", ")
}

// Status describes how a search ended.
type Status int

const (
	// StatusOptimal means Solution holds a schedule of minimal makespan.
	StatusOptimal Status = iota
	// StatusNoSolution means no schedule exists, which only happens for an
	// empty graph.
	StatusNoSolution
	// StatusBoundExceeded means SMAStarPlus could not prove a solution within
	// its node budget.
	StatusBoundExceeded
	// StatusCancelled means the context ended first. Solution holds the best
	// schedule found so far, if the driver keeps one.
	StatusCancelled
)

var statusNames = [...]string{"optimal", "no-solution", "bound-exceeded", "cancelled"}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	for i, n := range statusNames {
		if n == string(b) {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", b)
}

// Stats are counters collected during a search.
type Stats struct {
	Expanded     int           `json:"expanded"`      // nodes whose successors were generated
	Generated    int           `json:"generated"`     // successor schedules built
	Pruned       int           `json:"pruned"`        // nodes discarded by a bound, a duplicate check or a cull
	PeakResident int           `json:"peak_resident"` // largest number of nodes held at once
	Duration     time.Duration `json:"duration"`
}

// Result is the outcome of [Search].
type Result struct {
	Status   Status             `json:"status"`
	Solution *schedule.Solution `json:"solution,omitempty"`
	Stats    Stats              `json:"stats"`
}

const (
	// DefaultNodeBudget is the SMAStarPlus node budget when none is given.
	DefaultNodeBudget = 200_000

	// DefaultProgressEvery is the number of expansions between Progress calls.
	DefaultProgressEvery = 1000
)

// Options configures [Search].
type Options struct {
	// Processors is the number of identical processors. Must be at least 1.
	Processors int

	// Algorithm selects the driver. Empty means AStar.
	Algorithm Algorithm

	// NodeBudget caps resident nodes for SMAStarPlus. Zero means
	// DefaultNodeBudget.
	NodeBudget int

	// Threads is the worker count for ParallelAStar. Zero means GOMAXPROCS.
	Threads int

	// Progress, if set, receives a snapshot of the counters every
	// ProgressEvery expansions. Calls are serialized.
	Progress func(Stats)

	// ProgressEvery is the expansion interval for Progress. Zero means
	// DefaultProgressEvery.
	ProgressEvery int
}

// DefaultOptions returns options for A* on a single processor.
func DefaultOptions() Options {
	return Options{
		Processors:    1,
		Algorithm:     AStar,
		NodeBudget:    DefaultNodeBudget,
		Threads:       runtime.GOMAXPROCS(0),
		ProgressEvery: DefaultProgressEvery,
	}
}

// WithDefaults returns a copy of o with zero fields filled in.
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if o.Algorithm == "" {
		o.Algorithm = d.Algorithm
	}
	if o.NodeBudget == 0 {
		o.NodeBudget = d.NodeBudget
	}
	if o.Threads == 0 {
		o.Threads = d.Threads
	}
	if o.ProgressEvery == 0 {
		o.ProgressEvery = d.ProgressEvery
	}
	return o
}

// Validate checks o after defaults have been applied.
func (o Options) Validate() error {
	if err := errors.ValidateProcessors(o.Processors, 0); err != nil {
		return err
	}
	switch o.Algorithm {
	case AStar, IDAStar, SMAStarPlus, ParallelAStar, BranchAndBound:
	default:
		return errors.New(errors.ErrCodeInvalidAlgorithm, "unknown algorithm %q (want one of %s)", o.Algorithm, algorithmList())
	}
	if o.NodeBudget < 1 {
		return errors.New(errors.ErrCodeInvalidInput, "node budget must be at least 1, got %d", o.NodeBudget)
	}
	if o.Threads < 1 {
		return errors.New(errors.ErrCodeInvalidInput, "threads must be at least 1, got %d", o.Threads)
	}
	if o.ProgressEvery < 1 {
		return errors.New(errors.ErrCodeInvalidInput, "progress interval must be at least 1, got %d", o.ProgressEvery)
	}
	return nil
}

// Search finds a minimal-makespan schedule of g under opts.
//
// The returned error is non-nil only for invalid options or when ctx ends
// first; in the latter case the Result is still populated with
// StatusCancelled and whatever the driver had found. Running out of SMA*+
// budget and empty graphs are reported through Result.Status.
func Search(ctx context.Context, g *taskgraph.Graph, opts Options) (Result, error) {
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}

	hooks := observability.Search()
	hooks.OnSearchStart(ctx, string(opts.Algorithm), g.Len(), opts.Processors)
	start := time.Now()

	var (
		res Result
		err error
	)
	if g.Len() == 0 {
		res = Result{Status: StatusNoSolution}
	} else {
		run := drivers[opts.Algorithm]
		res, err = run(ctx, g, opts, newProgress(opts))
	}
	res.Stats.Duration = time.Since(start)

	hooks.OnSearchComplete(ctx, string(opts.Algorithm), res.Status.String(), res.Stats.Expanded, res.Stats.Duration, err)
	return res, err
}

type driver func(ctx context.Context, g *taskgraph.Graph, opts Options, prog *progress) (Result, error)

var drivers = map[Algorithm]driver{
	AStar:          runAStar,
	IDAStar:        runIDAStar,
	SMAStarPlus:    runSMAStar,
	ParallelAStar:  runParallel,
	BranchAndBound: runBranchAndBound,
}

// cancelled builds the result returned when ctx ends mid-search.
func cancelled(ctx context.Context, best *schedule.Schedule, stats Stats) (Result, error) {
	res := Result{Status: StatusCancelled, Stats: stats}
	if best != nil {
		res.Solution = best.Solution()
	}
	return res, ctx.Err()
}

// progress throttles and serializes Progress callbacks.
type progress struct {
	mu    sync.Mutex
	fn    func(Stats)
	every int
	next  int
	start time.Time
}

func newProgress(opts Options) *progress {
	return &progress{fn: opts.Progress, every: opts.ProgressEvery, next: opts.ProgressEvery, start: time.Now()}
}

// tick reports stats if the expansion counter has passed the next threshold.
func (p *progress) tick(stats Stats) {
	if p.fn == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if stats.Expanded < p.next {
		return
	}
	p.next = stats.Expanded + p.every
	stats.Duration = time.Since(p.start)
	p.fn(stats)
}
