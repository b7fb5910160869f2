package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/taskplan/pkg/errors"
	tpio "github.com/matzehuels/taskplan/pkg/io"
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

// isolate points every XDG directory at a fresh temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	return dir
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		input, output, format string
		multi                 bool
		want                  string
	}{
		{"graphs/g.dot", "", "dot", false, "graphs/g-output.dot"},
		{"graphs/g.dot", "", "svg", true, "graphs/g-output.svg"},
		{"g.json", "", "dot", false, "g-output.dot"},
		{"g.dot", "out.dot", "dot", false, "out.dot"},
		{"g.dot", "out.svg", "json", true, "out.json"},
		{"g.dot", "out", "pdf", true, "out.pdf"},
	}

	for _, tt := range tests {
		if got := outputPath(tt.input, tt.output, tt.format, tt.multi); got != tt.want {
			t.Errorf("outputPath(%q, %q, %q, %v) = %q, want %q",
				tt.input, tt.output, tt.format, tt.multi, got, tt.want)
		}
	}
}

func TestPipelineOptionsPrecedence(t *testing.T) {
	c := New(io.Discard, LogInfo)
	c.Config.Algorithm = "idastar"
	c.Config.Threads = 3
	c.Config.Timeout = Duration{time.Minute}

	po := c.pipelineOptions("dir/graph.dot", 2, &solveOpts{})
	if po.Algorithm != "idastar" || po.Threads != 3 || po.Timeout != time.Minute {
		t.Errorf("config defaults not applied: %+v", po)
	}
	if po.Name != "graph" {
		t.Errorf("Name = %q, want graph", po.Name)
	}

	po = c.pipelineOptions("graph.dot", 2, &solveOpts{algorithm: "bnb", threads: 1, timeout: time.Second, budget: 10})
	if po.Algorithm != "bnb" || po.Threads != 1 || po.Timeout != time.Second || po.NodeBudget != 10 {
		t.Errorf("flags should override config: %+v", po)
	}
}

func TestSolveCommand(t *testing.T) {
	dir := isolate(t)
	input := filepath.Join(dir, "diamond.dot")
	if err := os.WriteFile(input, []byte(diamondDOT), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := execute(t, "solve", input, "2", "-f", "dot,json"); err != nil {
		t.Fatalf("solve: %v", err)
	}

	dot, err := os.ReadFile(filepath.Join(dir, "diamond-output.dot"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(dot), "Processor=") {
		t.Errorf("output DOT lacks schedule attributes:\n%s", dot)
	}

	f, err := os.Open(filepath.Join(dir, "diamond-output.json"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	sol, err := tpio.ReadSolution(f)
	if err != nil {
		t.Fatal(err)
	}
	if sol.Makespan != 6 {
		t.Errorf("makespan = %d, want 6", sol.Makespan)
	}

	// The run was recorded in the data directory.
	entries, err := os.ReadDir(filepath.Join(dir, "data", appName, "runs"))
	if err != nil || len(entries) != 1 {
		t.Errorf("recorded runs = %v (err %v), want 1", entries, err)
	}
}

func TestSolveCommandErrors(t *testing.T) {
	dir := isolate(t)
	input := filepath.Join(dir, "diamond.dot")
	if err := os.WriteFile(input, []byte(diamondDOT), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"processors not a number", []string{"solve", input, "two"}, errors.ErrCodeInvalidInput},
		{"zero processors", []string{"solve", input, "0"}, errors.ErrCodeInvalidInput},
		{"unknown algorithm", []string{"solve", input, "2", "-a", "greedy"}, errors.ErrCodeInvalidAlgorithm},
		{"unknown format", []string{"solve", input, "2", "-f", "gif"}, errors.ErrCodeInvalidFormat},
		{"missing file", []string{"solve", filepath.Join(dir, "nope.dot"), "2"}, errors.ErrCodeFileNotFound},
		{"budget exceeded", []string{"solve", input, "2", "-a", "smastar", "-b", "2", "--no-cache"}, errors.ErrCodeBoundExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := execute(t, tt.args...)
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want code %s", err, tt.code)
			}
		})
	}
}
