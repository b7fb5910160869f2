package taskgraph

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func diamond(t *testing.T) *Graph {
	t.Helper()
	b := NewBuilder()
	for _, tk := range []struct {
		id string
		w  int
	}{{"a", 2}, {"b", 3}, {"c", 2}, {"d", 1}} {
		if err := b.AddTask(tk.id, tk.w); err != nil {
			t.Fatalf("AddTask(%s): %v", tk.id, err)
		}
	}
	for _, e := range []struct {
		from, to string
		comm     int
	}{{"a", "b", 0}, {"a", "c", 0}, {"b", "d", 1}, {"c", "d", 1}} {
		if err := b.AddEdge(e.from, e.to, e.comm); err != nil {
			t.Fatalf("AddEdge(%s, %s): %v", e.from, e.to, err)
		}
	}
	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g
}

func TestBuilderErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(b *Builder) error
		want  error
	}{
		{
			name:  "EmptyID",
			setup: func(b *Builder) error { return b.AddTask("", 1) },
			want:  ErrInvalidTaskID,
		},
		{
			name:  "NegativeTaskWeight",
			setup: func(b *Builder) error { return b.AddTask("a", -1) },
			want:  ErrNegativeWeight,
		},
		{
			name: "DuplicateTask",
			setup: func(b *Builder) error {
				_ = b.AddTask("a", 1)
				return b.AddTask("a", 2)
			},
			want: ErrDuplicateTaskID,
		},
		{
			name: "UnknownParent",
			setup: func(b *Builder) error {
				_ = b.AddTask("a", 1)
				return b.AddEdge("x", "a", 0)
			},
			want: ErrUnknownParent,
		},
		{
			name: "UnknownChild",
			setup: func(b *Builder) error {
				_ = b.AddTask("a", 1)
				return b.AddEdge("a", "x", 0)
			},
			want: ErrUnknownChild,
		},
		{
			name: "SelfLoop",
			setup: func(b *Builder) error {
				_ = b.AddTask("a", 1)
				return b.AddEdge("a", "a", 0)
			},
			want: ErrSelfLoop,
		},
		{
			name: "NegativeComm",
			setup: func(b *Builder) error {
				_ = b.AddTask("a", 1)
				_ = b.AddTask("b", 1)
				return b.AddEdge("a", "b", -3)
			},
			want: ErrNegativeWeight,
		},
		{
			name: "DuplicateEdge",
			setup: func(b *Builder) error {
				_ = b.AddTask("a", 1)
				_ = b.AddTask("b", 1)
				_ = b.AddEdge("a", "b", 0)
				return b.AddEdge("a", "b", 4)
			},
			want: ErrDuplicateEdge,
		},
		{
			name: "Cycle",
			setup: func(b *Builder) error {
				_ = b.AddTask("a", 1)
				_ = b.AddTask("b", 1)
				_ = b.AddTask("c", 1)
				_ = b.AddEdge("a", "b", 0)
				_ = b.AddEdge("b", "c", 0)
				_ = b.AddEdge("c", "b", 0)
				_, err := b.Build()
				return err
			},
			want: ErrGraphHasCycle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.setup(NewBuilder())
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBottomLevel(t *testing.T) {
	g := diamond(t)

	want := map[string]int{"a": 6, "b": 4, "c": 3, "d": 1}
	got := make(map[string]int)
	for _, tk := range g.Tasks() {
		got[tk.ID()] = tk.BottomLevel()
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("bottom levels mismatch (-want +got):\n%s", diff)
	}
	if g.CriticalPath() != 6 {
		t.Errorf("CriticalPath() = %d, want 6", g.CriticalPath())
	}
}

func TestBottomLevelIdempotent(t *testing.T) {
	g := diamond(t)
	for _, tk := range g.Tasks() {
		before := tk.BottomLevel()
		if again := tk.computeBottomLevel(); again != before {
			t.Errorf("%s: recomputed %d, want %d", tk.ID(), again, before)
		}
	}
}

func TestGraphAccessors(t *testing.T) {
	g := diamond(t)

	if g.Len() != 4 {
		t.Errorf("Len() = %d, want 4", g.Len())
	}
	if g.EdgeCount() != 4 {
		t.Errorf("EdgeCount() = %d, want 4", g.EdgeCount())
	}
	if g.TotalWeight() != 8 {
		t.Errorf("TotalWeight() = %d, want 8", g.TotalWeight())
	}
	if len(g.Starts()) != 1 || g.Starts()[0].ID() != "a" {
		t.Errorf("Starts() = %v, want [a]", g.Starts())
	}

	d, ok := g.TaskByID("d")
	if !ok {
		t.Fatal("TaskByID(d) not found")
	}
	if !d.IsSink() || d.IsStart() {
		t.Error("d should be a sink and not a start task")
	}
	b, _ := g.TaskByID("b")
	if comm, ok := d.Comm(b); !ok || comm != 1 {
		t.Errorf("d.Comm(b) = %d, %v; want 1, true", comm, ok)
	}
	a, _ := g.TaskByID("a")
	if _, ok := d.Comm(a); ok {
		t.Error("d.Comm(a) should not exist")
	}
	if g.Task(d.Index()) != d {
		t.Error("Task(Index()) round trip failed")
	}
	if len(g.Edges()) != 4 {
		t.Errorf("Edges() len = %d, want 4", len(g.Edges()))
	}
	if diff := cmp.Diff([]string{"a", "b", "c", "d"}, g.SortedIDs()); diff != "" {
		t.Errorf("SortedIDs mismatch (-want +got):\n%s", diff)
	}
}

func TestEmptyGraph(t *testing.T) {
	g, err := NewBuilder().Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if g.Len() != 0 || g.TotalWeight() != 0 || g.CriticalPath() != 0 {
		t.Errorf("empty graph: len=%d weight=%d cp=%d", g.Len(), g.TotalWeight(), g.CriticalPath())
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestMustBuildPanicsOnCycle(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustBuild did not panic")
		}
	}()
	b := NewBuilder()
	_ = b.AddTask("a", 1)
	_ = b.AddTask("b", 1)
	_ = b.AddEdge("a", "b", 0)
	_ = b.AddEdge("b", "a", 0)
	b.MustBuild()
}
