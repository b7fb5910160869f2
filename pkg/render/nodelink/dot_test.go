package nodelink

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/taskplan/pkg/schedule"
	"github.com/matzehuels/taskplan/pkg/taskgraph"
)

func fixture(t *testing.T) (*taskgraph.Graph, *schedule.Solution) {
	t.Helper()
	b := taskgraph.NewBuilder()
	_ = b.AddTask("a", 2)
	_ = b.AddTask("b", 3)
	_ = b.AddTask("c", 1)
	_ = b.AddEdge("a", "b", 4)
	_ = b.AddEdge("a", "c", 1)
	g := b.MustBuild()

	s := schedule.New(g, 2)
	ta, _ := g.TaskByID("a")
	tb, _ := g.TaskByID("b")
	tc, _ := g.TaskByID("c")
	s = s.Extend(ta, 0).Extend(tb, 0).Extend(tc, 1)
	return g, s.Solution()
}

func TestToDOT(t *testing.T) {
	g, sol := fixture(t)

	tests := []struct {
		name    string
		opts    Options
		want    []string
		notWant []string
	}{
		{
			name:    "Plain",
			opts:    Options{},
			want:    []string{`"a" [label="a"];`, `"a" -> "b";`},
			notWant: []string{"fillcolor=\"#", "dashed]"},
		},
		{
			name: "Scheduled",
			opts: Options{Solution: sol},
			want: []string{
				`"a" [label="a", fillcolor="` + ProcessorColor(0) + `"];`,
				`"c" [label="c", fillcolor="` + ProcessorColor(1) + `"];`,
				`"a" -> "b";`,
				`"a" -> "c" [label="1", style=dashed];`,
			},
		},
		{
			name: "Detailed",
			opts: Options{Solution: sol, Detailed: true},
			want: []string{`weight: 3`, `bl: 9`, `P1 [3, 4)`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dot := ToDOT(g, tt.opts)
			for _, w := range tt.want {
				if !strings.Contains(dot, w) {
					t.Errorf("missing %q in:\n%s", w, dot)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(dot, w) {
					t.Errorf("unexpected %q in:\n%s", w, dot)
				}
			}
		})
	}
}

func TestProcessorColorCycles(t *testing.T) {
	if ProcessorColor(0) != ProcessorColor(len(palette)) {
		t.Error("palette should repeat")
	}
	if ProcessorColor(0) == ProcessorColor(1) {
		t.Error("adjacent processors share a colour")
	}
}

func TestRenderSVG(t *testing.T) {
	g, sol := fixture(t)
	svg, err := RenderSVG(context.Background(), ToDOT(g, Options{Solution: sol}))
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	s := string(svg)
	if !strings.Contains(s, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 `) {
		t.Errorf("viewBox not normalized: %.200s", s)
	}
	if !strings.Contains(s, ">a</text>") {
		t.Error("task label missing from SVG")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 100.50 40.00" xmlns="x"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.50 40.00" width="100" height="40"><g/></svg>`
	if got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
	if out := normalizeViewBox([]byte("<svg>")); string(out) != "<svg>" {
		t.Errorf("svg without viewBox changed: %s", out)
	}
}
