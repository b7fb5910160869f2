package taskgraph

import (
	"errors"
	"slices"
)

var (
	// ErrInvalidTaskID is returned by [Builder.AddTask] when the task ID is empty.
	ErrInvalidTaskID = errors.New("task ID must not be empty")

	// ErrDuplicateTaskID is returned by [Builder.AddTask] when a task with the
	// same ID has already been added.
	ErrDuplicateTaskID = errors.New("duplicate task ID")

	// ErrNegativeWeight is returned by [Builder.AddTask] and [Builder.AddEdge]
	// when a task or communication weight is below zero.
	ErrNegativeWeight = errors.New("weights must not be negative")

	// ErrUnknownParent is returned by [Builder.AddEdge] when the parent task
	// does not exist.
	ErrUnknownParent = errors.New("unknown parent task")

	// ErrUnknownChild is returned by [Builder.AddEdge] when the child task
	// does not exist.
	ErrUnknownChild = errors.New("unknown child task")

	// ErrDuplicateEdge is returned by [Builder.AddEdge] when the same
	// parent/child pair is connected twice.
	ErrDuplicateEdge = errors.New("duplicate edge")

	// ErrSelfLoop is returned by [Builder.AddEdge] when parent and child are
	// the same task.
	ErrSelfLoop = errors.New("edge must connect two different tasks")

	// ErrGraphHasCycle is returned by [Graph.Validate] when a cycle is found.
	ErrGraphHasCycle = errors.New("graph contains a cycle")
)

// Edge is a directed precedence constraint between two tasks. Comm is the
// delay paid when Parent and Child run on different processors.
type Edge struct {
	Parent *Task
	Child  *Task
	Comm   int
}

// Task is a unit of work with a fixed duration. Tasks are created by a
// [Builder] and are immutable once the graph is built.
type Task struct {
	id       string
	index    int
	weight   int
	children []Edge
	parents  []Edge

	bottomLevel int
	blSet       bool
}

// ID returns the task's identifier.
func (t *Task) ID() string { return t.id }

// Index returns the dense index assigned by [Builder.Build]. Indices run from
// 0 to Graph.Len()-1 in insertion order.
func (t *Task) Index() int { return t.index }

// Weight returns the task's execution time.
func (t *Task) Weight() int { return t.weight }

// Children returns the outgoing edges. The slice must not be modified.
func (t *Task) Children() []Edge { return t.children }

// Parents returns the incoming edges. The slice must not be modified.
func (t *Task) Parents() []Edge { return t.parents }

// IsStart reports whether the task has no parents.
func (t *Task) IsStart() bool { return len(t.parents) == 0 }

// IsSink reports whether the task has no children.
func (t *Task) IsSink() bool { return len(t.children) == 0 }

// BottomLevel returns the weight of the heaviest path from this task to a
// sink, including the task's own weight.
func (t *Task) BottomLevel() int { return t.bottomLevel }

// Comm returns the communication weight of the edge from parent to t, and
// whether such an edge exists.
func (t *Task) Comm(parent *Task) (int, bool) {
	for _, e := range t.parents {
		if e.Parent == parent {
			return e.Comm, true
		}
	}
	return 0, false
}

// computeBottomLevel fills in the bottom level of t and every task below it.
// Values that are already set are returned unchanged.
func (t *Task) computeBottomLevel() int {
	if t.blSet {
		return t.bottomLevel
	}
	longest := 0
	for _, e := range t.children {
		if bl := e.Child.computeBottomLevel(); bl > longest {
			longest = bl
		}
	}
	t.bottomLevel = longest + t.weight
	t.blSet = true
	return t.bottomLevel
}

// Graph is an immutable weighted task DAG.
//
// The zero value is an empty graph. Use a [Builder] to create a populated one.
type Graph struct {
	tasks       []*Task
	byID        map[string]*Task
	starts      []*Task
	totalWeight int
	edgeCount   int
}

// Len returns the number of tasks.
func (g *Graph) Len() int { return len(g.tasks) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return g.edgeCount }

// TotalWeight returns the sum of all task weights.
func (g *Graph) TotalWeight() int { return g.totalWeight }

// Task returns the task with dense index i.
func (g *Graph) Task(i int) *Task { return g.tasks[i] }

// Tasks returns all tasks in index order. The slice must not be modified.
func (g *Graph) Tasks() []*Task { return g.tasks }

// Starts returns the tasks with no parents, in index order.
func (g *Graph) Starts() []*Task { return g.starts }

// TaskByID returns the task with the given ID.
func (g *Graph) TaskByID(id string) (*Task, bool) {
	t, ok := g.byID[id]
	return t, ok
}

// Edges returns every edge, grouped by parent in index order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, g.edgeCount)
	for _, t := range g.tasks {
		out = append(out, t.children...)
	}
	return out
}

// CriticalPath returns the largest bottom level in the graph, the length of
// the heaviest path ignoring communication. No schedule can be shorter.
func (g *Graph) CriticalPath() int {
	cp := 0
	for _, t := range g.starts {
		cp = max(cp, t.bottomLevel)
	}
	return cp
}

// Validate reports [ErrGraphHasCycle] if the graph is not acyclic. Cycles are
// detected with a depth-first search using white/gray/black coloring.
func (g *Graph) Validate() error {
	const (
		white = iota
		gray
		black
	)
	color := make([]int, len(g.tasks))
	var visit func(t *Task) bool
	visit = func(t *Task) bool {
		color[t.index] = gray
		for _, e := range t.children {
			switch color[e.Child.index] {
			case gray:
				return false
			case white:
				if !visit(e.Child) {
					return false
				}
			}
		}
		color[t.index] = black
		return true
	}
	for _, t := range g.tasks {
		if color[t.index] == white && !visit(t) {
			return ErrGraphHasCycle
		}
	}
	return nil
}

// Builder assembles a [Graph]. It is not safe for concurrent use.
type Builder struct {
	tasks []*Task
	byID  map[string]*Task
	edges int
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{byID: make(map[string]*Task)}
}

// AddTask adds a task with the given ID and execution weight.
func (b *Builder) AddTask(id string, weight int) error {
	if id == "" {
		return ErrInvalidTaskID
	}
	if weight < 0 {
		return ErrNegativeWeight
	}
	if _, ok := b.byID[id]; ok {
		return ErrDuplicateTaskID
	}
	t := &Task{id: id, index: len(b.tasks), weight: weight}
	b.tasks = append(b.tasks, t)
	b.byID[id] = t
	return nil
}

// AddEdge adds a precedence edge from parent to child with the given
// communication weight.
func (b *Builder) AddEdge(parent, child string, comm int) error {
	p, ok := b.byID[parent]
	if !ok {
		return ErrUnknownParent
	}
	c, ok := b.byID[child]
	if !ok {
		return ErrUnknownChild
	}
	if p == c {
		return ErrSelfLoop
	}
	if comm < 0 {
		return ErrNegativeWeight
	}
	if _, dup := c.Comm(p); dup {
		return ErrDuplicateEdge
	}
	e := Edge{Parent: p, Child: c, Comm: comm}
	p.children = append(p.children, e)
	c.parents = append(c.parents, e)
	b.edges++
	return nil
}

// Build freezes the builder into a Graph and computes bottom levels. The
// builder must not be used afterwards. Build returns [ErrGraphHasCycle] if the
// edges do not form a DAG.
func (b *Builder) Build() (*Graph, error) {
	g := &Graph{
		tasks:     b.tasks,
		byID:      b.byID,
		edgeCount: b.edges,
	}
	for _, t := range g.tasks {
		g.totalWeight += t.weight
		if t.IsStart() {
			g.starts = append(g.starts, t)
		}
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	for _, t := range g.starts {
		t.computeBottomLevel()
	}
	b.tasks, b.byID = nil, nil
	return g, nil
}

// MustBuild is like Build but panics on error. It is intended for fixtures.
func (b *Builder) MustBuild() *Graph {
	g, err := b.Build()
	if err != nil {
		panic(err)
	}
	return g
}

// SortedIDs returns all task IDs in lexical order.
func (g *Graph) SortedIDs() []string {
	ids := make([]string, 0, len(g.tasks))
	for _, t := range g.tasks {
		ids = append(ids, t.id)
	}
	slices.Sort(ids)
	return ids
}
