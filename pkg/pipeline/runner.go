package pipeline

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/taskplan/pkg/cache"
	"github.com/matzehuels/taskplan/pkg/errors"
	"github.com/matzehuels/taskplan/pkg/schedule"
	"github.com/matzehuels/taskplan/pkg/search"
	"github.com/matzehuels/taskplan/pkg/store"
	"github.com/matzehuels/taskplan/pkg/taskgraph"
)

// Runner encapsulates pipeline execution with caching and run history.
// Both CLI and API use it so the caching logic lives in one place.
//
// The Runner keeps no per-run state; multiple goroutines can safely use the
// same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Store  store.Store
	Logger *log.Logger
}

// NewRunner creates a runner. A nil keyer means [cache.DefaultKeyer], a nil
// cache disables caching, and a nil store disables run history.
func NewRunner(c cache.Cache, keyer cache.Keyer, st store.Store, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Store:  st,
		Logger: logger,
	}
}

// Execute runs the complete load → solve → render pipeline.
//
// Artifacts are rendered whenever a schedule was found, even if the search
// was cut short; in that case the returned error still reports the timeout
// or cancellation. When no schedule was found, Execute fails with
// NO_SOLUTION or BOUND_EXCEEDED and the Result carries the search status.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{Artifacts: make(map[string][]byte)}

	// Stage 1: Load
	loadStart := time.Now()
	g, err := Load(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Graph = g
	result.GraphHash = cache.HashGraph(g)
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.TaskCount = g.Len()
	result.Stats.EdgeCount = g.EdgeCount()

	r.Logger.Info("loaded graph",
		"tasks", g.Len(),
		"edges", g.EdgeCount(),
		"critical_path", g.CriticalPath(),
		"duration", result.Stats.LoadTime)

	// Stage 2: Solve
	solveStart := time.Now()
	res, hit, solveErr := r.SolveWithCacheInfo(ctx, g, opts)
	result.Search = res
	result.Stats.SolveTime = time.Since(solveStart)
	result.CacheInfo.SolveHit = hit

	r.Logger.Info("search finished",
		"algorithm", opts.Algorithm,
		"status", res.Status,
		"makespan", makespan(res.Solution),
		"expanded", res.Stats.Expanded,
		"cached", hit,
		"duration", result.Stats.SolveTime)

	if solveErr == nil {
		solveErr = RequireSolution(res)
	}
	// Run history is best-effort: Record logs a failed save and the schedule
	// is still returned.
	result.Run, _ = r.Record(ctx, result, opts)

	if res.Solution == nil {
		return result, solveErr
	}

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, g, res.Solution, opts)
	if err != nil {
		return result, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, solveErr
}

// RequireSolution converts a search status without a schedule into an error.
func RequireSolution(res search.Result) error {
	switch res.Status {
	case search.StatusNoSolution:
		return errors.New(errors.ErrCodeNoSolution, "no schedule exists for an empty graph")
	case search.StatusBoundExceeded:
		return errors.New(errors.ErrCodeBoundExceeded,
			"no schedule found within the node budget; raise --budget or use another algorithm")
	}
	return nil
}

// SolveWithCacheInfo searches for a schedule of g, consulting the cache first
// unless opts.Refresh is set. Only results that do not depend on timing are
// cached: optimal, no-solution and bound-exceeded.
//
// If the search is cut short, the partial result is returned together with
// a TIMEOUT or CANCELLED error.
func (r *Runner) SolveWithCacheInfo(ctx context.Context, g *taskgraph.Graph, opts Options) (search.Result, bool, error) {
	if err := opts.ValidateForSolve(); err != nil {
		return search.Result{}, false, err
	}
	r.applyLogger(&opts)

	cacheKey := r.Keyer.SolveKey(cache.HashGraph(g), opts.SolveKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached search.Result
			if err := json.Unmarshal(data, &cached); err == nil {
				opts.Logger.Debug("solve cache hit", "key", cacheKey)
				return cached, true, nil
			}
		}
	}

	res, err := Solve(ctx, g, opts)
	if err != nil {
		return res, false, err
	}

	if data, err := json.Marshal(res); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.SolveTTL); err != nil {
			opts.Logger.Warn("cache write failed", "error", err)
		}
	}
	return res, false, nil
}

// Solve runs the search without caching, applying opts.Timeout.
func Solve(ctx context.Context, g *taskgraph.Graph, opts Options) (search.Result, error) {
	if err := opts.ValidateForSolve(); err != nil {
		return search.Result{}, err
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	res, err := search.Search(ctx, g, opts.SearchOptions())
	switch {
	case err == nil:
		return res, nil
	case stderrors.Is(err, context.DeadlineExceeded):
		return res, errors.Wrap(errors.ErrCodeTimeout, err, "search stopped after %s", opts.Timeout)
	case stderrors.Is(err, context.Canceled):
		return res, errors.Wrap(errors.ErrCodeCancelled, err, "search cancelled")
	default:
		return res, err
	}
}

// RenderWithCacheInfo renders artifacts for a solved graph, serving formats
// from the cache when all of them are present.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, g *taskgraph.Graph, sol *schedule.Solution, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	solData, err := json.Marshal(sol)
	if err != nil {
		return nil, false, fmt.Errorf("serialize solution for cache key: %w", err)
	}
	solveHash := cache.Hash([]byte(cache.HashGraph(g) + "\n" + opts.Name + "\n" + string(solData)))

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(solveHash, opts.ArtifactKeyOpts(format))
		data, hit, err := r.Cache.Get(ctx, key)
		if err != nil || !hit {
			break
		}
		artifacts[format] = data
	}
	if len(artifacts) == len(opts.Formats) {
		return artifacts, true, nil
	}

	rendered, err := Render(ctx, g, sol, opts)
	if err != nil {
		return nil, false, err
	}
	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(solveHash, opts.ArtifactKeyOpts(format))
		_ = r.Cache.Set(ctx, key, data, cache.ArtifactTTL)
	}
	return rendered, false, nil
}

// Record saves a run for result to the store. It returns nil, nil when the
// runner has no store.
func (r *Runner) Record(ctx context.Context, result *Result, opts Options) (*store.Run, error) {
	if r.Store == nil {
		return nil, nil
	}
	run := store.NewRun()
	run.Source = opts.Input
	run.GraphHash = result.GraphHash
	run.Tasks = result.Stats.TaskCount
	run.Processors = opts.Processors
	run.Algorithm = opts.Algorithm
	run.Status = result.Search.Status.String()
	run.Makespan = makespan(result.Search.Solution)
	run.Cached = result.CacheInfo.SolveHit
	run.Stats = result.Search.Stats
	run.Solution = result.Search.Solution

	if err := r.Store.Save(ctx, run); err != nil {
		r.Logger.Warn("failed to record run", "error", err)
		return nil, err
	}
	r.Logger.Debug("recorded run", "id", run.ID)
	return run, nil
}

// Close releases resources held by the runner.
func (r *Runner) Close() error {
	var errs []error
	if r.Cache != nil {
		errs = append(errs, r.Cache.Close())
	}
	if r.Store != nil {
		errs = append(errs, r.Store.Close())
	}
	return stderrors.Join(errs...)
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func makespan(sol *schedule.Solution) int {
	if sol == nil {
		return 0
	}
	return sol.Makespan
}
