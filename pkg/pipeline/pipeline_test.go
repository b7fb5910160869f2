package pipeline

import (
	"bytes"
	"context"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/taskplan/pkg/cache"
	"github.com/matzehuels/taskplan/pkg/errors"
	"github.com/matzehuels/taskplan/pkg/search"
	"github.com/matzehuels/taskplan/pkg/store"
)

const diamondDOT = `digraph "diamond" {
	A [Weight=2];
	B [Weight=3];
	C [Weight=2];
	D [Weight=1];
	A -> B [Weight=0];
	A -> C [Weight=0];
	B -> D [Weight=1];
	C -> D [Weight=1];
}
`

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"dot", false},
		{"json", false},
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"invalid", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "png"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}

	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}

	// Empty slice is valid
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestInferInputFormat(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"graph.dot", InputDOT, false},
		{"dir/Graph.GV", InputDOT, false},
		{"graph.json", InputJSON, false},
		{"graph.txt", "", true},
		{"graph", "", true},
	}

	for _, tt := range tests {
		got, err := InferInputFormat(tt.path)
		if (err != nil) != tt.wantErr {
			t.Errorf("InferInputFormat(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("InferInputFormat(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestOptionsValidateForLoad(t *testing.T) {
	tests := []struct {
		name       string
		opts       Options
		wantFormat string
		wantCode   errors.Code
	}{
		{"file dot", Options{Input: "g.dot"}, InputDOT, ""},
		{"file json", Options{Input: "g.json"}, InputJSON, ""},
		{"source defaults to dot", Options{Source: []byte("digraph {}")}, InputDOT, ""},
		{"explicit json source", Options{Source: []byte("{}"), InputFormat: InputJSON}, InputJSON, ""},
		{"missing input", Options{}, "", errors.ErrCodeInvalidInput},
		{"both inputs", Options{Input: "g.dot", Source: []byte("x")}, "", errors.ErrCodeInvalidInput},
		{"unknown extension", Options{Input: "g.yaml"}, "", errors.ErrCodeInvalidFormat},
		{"unknown format", Options{Source: []byte("x"), InputFormat: "yaml"}, "", errors.ErrCodeInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateForLoad()
			if tt.wantCode != "" {
				if !errors.Is(err, tt.wantCode) {
					t.Fatalf("err = %v, want code %s", err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.opts.InputFormat != tt.wantFormat {
				t.Errorf("InputFormat = %q, want %q", tt.opts.InputFormat, tt.wantFormat)
			}
			if tt.opts.Logger == nil {
				t.Error("Logger not set")
			}
		})
	}
}

func TestOptionsValidateForSolve(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		wantAlg  string
		wantCode errors.Code
	}{
		{"default algorithm", Options{Processors: 2}, string(DefaultAlgorithm), ""},
		{"alias normalized", Options{Processors: 2, Algorithm: "IDA*"}, string(search.IDAStar), ""},
		{"zero processors", Options{}, "", errors.ErrCodeInvalidInput},
		{"too many processors", Options{Processors: MaxProcessors + 1}, "", errors.ErrCodeInvalidInput},
		{"unknown algorithm", Options{Processors: 1, Algorithm: "greedy"}, "", errors.ErrCodeInvalidAlgorithm},
		{"negative timeout", Options{Processors: 1, Timeout: -time.Second}, "", errors.ErrCodeInvalidInput},
		{"negative budget", Options{Processors: 1, NodeBudget: -5}, "", errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateForSolve()
			if tt.wantCode != "" {
				if !errors.Is(err, tt.wantCode) {
					t.Fatalf("err = %v, want code %s", err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.opts.Algorithm != tt.wantAlg {
				t.Errorf("Algorithm = %q, want %q", tt.opts.Algorithm, tt.wantAlg)
			}
		})
	}
}

func TestOptionsValidateForRender(t *testing.T) {
	opts := Options{}
	if err := opts.ValidateForRender(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{FormatDOT}, opts.Formats); diff != "" {
		t.Errorf("default Formats mismatch (-want +got):\n%s", diff)
	}
	if opts.Name != "schedule" {
		t.Errorf("Name = %q, want schedule", opts.Name)
	}

	opts = Options{Formats: []string{"dot", "json", "svg", "dot", "svg"}}
	if err := opts.ValidateForRender(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"dot", "json", "svg"}, opts.Formats); diff != "" {
		t.Errorf("repeated formats not dropped (-want +got):\n%s", diff)
	}

	opts = Options{Formats: []string{"gif"}}
	if err := opts.ValidateForRender(); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("err = %v, want INVALID_FORMAT", err)
	}
}

func TestOptionsValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{Input: "g.dot", Processors: 2, Algorithm: "A*"}

	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("First validation failed: %v", err)
	}
	before := opts

	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("Second validation failed: %v", err)
	}
	if opts.Algorithm != before.Algorithm || opts.InputFormat != before.InputFormat || opts.Name != before.Name {
		t.Error("options changed on second call")
	}
}

func TestSolveKeyOpts(t *testing.T) {
	astar := Options{Processors: 2, Algorithm: "astar", NodeBudget: 10, Threads: 4}
	if err := astar.ValidateForSolve(); err != nil {
		t.Fatal(err)
	}
	want := cache.SolveKeyOpts{Processors: 2, Algorithm: "astar"}
	if diff := cmp.Diff(want, astar.SolveKeyOpts()); diff != "" {
		t.Errorf("astar key mismatch (-want +got):\n%s", diff)
	}

	sma := Options{Processors: 2, Algorithm: "smastar"}
	if err := sma.ValidateForSolve(); err != nil {
		t.Fatal(err)
	}
	if got := sma.SolveKeyOpts().NodeBudget; got != search.DefaultNodeBudget {
		t.Errorf("smastar NodeBudget = %d, want %d", got, search.DefaultNodeBudget)
	}
}

func TestNeedsGraphviz(t *testing.T) {
	if (&Options{Formats: []string{"dot", "json"}}).NeedsGraphviz() {
		t.Error("dot/json should not need graphviz")
	}
	if !(&Options{Formats: []string{"dot", "pdf"}}).NeedsGraphviz() {
		t.Error("pdf should need graphviz")
	}
}

func newTestRunner() (*Runner, *cache.MemoryCache, *store.MemoryStore) {
	c := cache.NewMemoryCache()
	st := store.NewMemoryStore()
	return NewRunner(c, nil, st, nil), c, st
}

// failingStore rejects every write.
type failingStore struct{ *store.MemoryStore }

func (failingStore) Save(context.Context, *store.Run) error {
	return stderrors.New("disk full")
}

func TestRunnerRecordFailureKeepsResult(t *testing.T) {
	var logs bytes.Buffer
	runner := NewRunner(cache.NewMemoryCache(), nil, failingStore{store.NewMemoryStore()}, log.New(&logs))

	result, err := runner.Execute(context.Background(), Options{Source: []byte(diamondDOT), Processors: 2})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Run != nil {
		t.Errorf("Run = %+v, want nil after a failed save", result.Run)
	}
	if result.Search.Solution == nil || result.Search.Solution.Makespan != 6 {
		t.Errorf("solution = %+v, want makespan 6", result.Search.Solution)
	}
	if len(result.Artifacts[FormatDOT]) == 0 {
		t.Error("artifacts not rendered after a failed save")
	}
	if !strings.Contains(logs.String(), "failed to record run") {
		t.Errorf("save failure not logged: %q", logs.String())
	}
}

func TestRunnerExecute(t *testing.T) {
	ctx := context.Background()
	runner, _, st := newTestRunner()

	opts := Options{
		Source:     []byte(diamondDOT),
		Processors: 2,
		Formats:    []string{FormatDOT, FormatJSON},
		Name:       "diamond",
	}
	result, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if result.Search.Status != search.StatusOptimal {
		t.Errorf("Status = %v, want optimal", result.Search.Status)
	}
	sol := result.Search.Solution
	if sol == nil || sol.Makespan != 6 {
		t.Fatalf("Solution = %+v, want makespan 6", sol)
	}
	if err := sol.Verify(result.Graph); err != nil {
		t.Errorf("Verify: %v", err)
	}
	if result.Stats.TaskCount != 4 || result.Stats.EdgeCount != 4 {
		t.Errorf("Stats = %+v", result.Stats)
	}
	if result.CacheInfo.SolveHit || result.CacheInfo.RenderHit {
		t.Errorf("first run hit cache: %+v", result.CacheInfo)
	}

	dot := string(result.Artifacts[FormatDOT])
	if !strings.HasPrefix(dot, `digraph "diamond" {`) || !strings.Contains(dot, "Processor=") {
		t.Errorf("dot artifact:\n%s", dot)
	}
	if !bytes.Contains(result.Artifacts[FormatJSON], []byte(`"makespan": 6`)) {
		t.Errorf("json artifact:\n%s", result.Artifacts[FormatJSON])
	}

	if result.Run == nil {
		t.Fatal("run not recorded")
	}
	saved, err := st.Get(ctx, result.Run.ID)
	if err != nil {
		t.Fatalf("store Get: %v", err)
	}
	if saved.Makespan != 6 || saved.Status != "optimal" || saved.Algorithm != "astar" || saved.GraphHash != result.GraphHash {
		t.Errorf("saved run = %+v", saved)
	}

	// Identical input is served from the cache.
	again, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if !again.CacheInfo.SolveHit || !again.CacheInfo.RenderHit {
		t.Errorf("second run CacheInfo = %+v, want both hits", again.CacheInfo)
	}
	if diff := cmp.Diff(sol, again.Search.Solution); diff != "" {
		t.Errorf("cached solution mismatch (-want +got):\n%s", diff)
	}
	if !again.Run.Cached {
		t.Error("second run not marked cached")
	}

	runs, _ := st.List(ctx, 0)
	if len(runs) != 2 {
		t.Errorf("store holds %d runs, want 2", len(runs))
	}
}

func TestRunnerRefresh(t *testing.T) {
	ctx := context.Background()
	runner, _, _ := newTestRunner()
	opts := Options{Source: []byte(diamondDOT), Processors: 2}

	if _, err := runner.Execute(ctx, opts); err != nil {
		t.Fatal(err)
	}
	opts.Refresh = true
	result, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if result.CacheInfo.SolveHit {
		t.Error("Refresh should skip the solve cache")
	}
}

func TestRunnerAlgorithmsAgree(t *testing.T) {
	ctx := context.Background()
	runner := NewRunner(nil, nil, nil, nil)

	for _, alg := range search.Algorithms() {
		t.Run(string(alg), func(t *testing.T) {
			result, err := runner.Execute(ctx, Options{
				Source:     []byte(diamondDOT),
				Processors: 2,
				Algorithm:  string(alg),
			})
			if err != nil {
				t.Fatal(err)
			}
			if got := result.Search.Solution.Makespan; got != 6 {
				t.Errorf("makespan = %d, want 6", got)
			}
			if result.Run != nil {
				t.Error("runner without store recorded a run")
			}
		})
	}
}

func TestRunnerNoSolution(t *testing.T) {
	ctx := context.Background()
	runner, _, st := newTestRunner()

	result, err := runner.Execute(ctx, Options{
		Source:      []byte(`{"tasks": [], "edges": []}`),
		InputFormat: InputJSON,
		Processors:  1,
	})
	if !errors.Is(err, errors.ErrCodeNoSolution) {
		t.Fatalf("err = %v, want NO_SOLUTION", err)
	}
	if result == nil || result.Search.Status != search.StatusNoSolution {
		t.Fatalf("result = %+v", result)
	}
	if len(result.Artifacts) != 0 {
		t.Errorf("artifacts rendered without a schedule: %v", result.Artifacts)
	}
	runs, _ := st.List(ctx, 0)
	if len(runs) != 1 || runs[0].Status != "no-solution" {
		t.Errorf("recorded runs = %+v", runs)
	}
}

func TestRunnerBoundExceeded(t *testing.T) {
	ctx := context.Background()
	runner, _, _ := newTestRunner()

	result, err := runner.Execute(ctx, Options{
		Source:     []byte(diamondDOT),
		Processors: 2,
		Algorithm:  "smastar",
		NodeBudget: 2,
	})
	if !errors.Is(err, errors.ErrCodeBoundExceeded) {
		t.Fatalf("err = %v, want BOUND_EXCEEDED", err)
	}
	if result.Search.Status != search.StatusBoundExceeded {
		t.Errorf("Status = %v", result.Search.Status)
	}
}

func TestRunnerLoadErrors(t *testing.T) {
	ctx := context.Background()
	runner := NewRunner(nil, nil, nil, nil)

	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"missing file", Options{Input: "does-not-exist.dot", Processors: 1}, errors.ErrCodeFileNotFound},
		{"bad dot", Options{Source: []byte("digraph {"), Processors: 1}, errors.ErrCodeInvalidFormat},
		{"missing weight", Options{Source: []byte(`digraph { A; }`), Processors: 1}, errors.ErrCodeInvalidGraph},
		{"cycle", Options{
			Source:      []byte(`{"tasks":[{"id":"a","weight":1},{"id":"b","weight":1}],"edges":[{"from":"a","to":"b","comm":0},{"from":"b","to":"a","comm":0}]}`),
			InputFormat: InputJSON,
			Processors:  1,
		}, errors.ErrCodeInvalidGraph},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runner.Execute(ctx, tt.opts)
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestSolveCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g, err := Load(context.Background(), Options{Source: []byte(diamondDOT)})
	if err != nil {
		t.Fatal(err)
	}
	res, err := Solve(ctx, g, Options{Processors: 2, Algorithm: "bnb"})
	if !errors.Is(err, errors.ErrCodeCancelled) {
		t.Fatalf("err = %v, want CANCELLED", err)
	}
	if res.Status != search.StatusCancelled {
		t.Errorf("Status = %v, want cancelled", res.Status)
	}
	if res.Solution == nil {
		t.Error("branch and bound should return its incumbent")
	}
}

func TestSolveWithCacheInfoSkipsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner, c, _ := newTestRunner()
	g, err := Load(context.Background(), Options{Source: []byte(diamondDOT)})
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := runner.SolveWithCacheInfo(ctx, g, Options{Processors: 2}); err == nil {
		t.Fatal("expected an error from a cancelled context")
	}
	if c.Len() != 0 {
		t.Errorf("cancelled result was cached (%d entries)", c.Len())
	}
}

func TestRenderJSONNeedsSolution(t *testing.T) {
	g, err := Load(context.Background(), Options{Source: []byte(diamondDOT)})
	if err != nil {
		t.Fatal(err)
	}
	_, err = Render(context.Background(), g, nil, Options{Formats: []string{FormatJSON}})
	if !errors.Is(err, errors.ErrCodeNoSolution) {
		t.Errorf("err = %v, want NO_SOLUTION", err)
	}

	artifacts, err := Render(context.Background(), g, nil, Options{Formats: []string{FormatDOT}})
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(artifacts[FormatDOT], []byte("Processor=")) {
		t.Error("unscheduled DOT output carries processor attributes")
	}
}

func TestRunnerClose(t *testing.T) {
	runner, _, _ := newTestRunner()
	if err := runner.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
