package schedule

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/taskplan/pkg/taskgraph"
)

// Placement records where and when a task runs.
type Placement struct {
	Processor int
	Start     int
}

// Bounds holds the three lower bounds a [Schedule] maintains.
type Bounds struct {
	BottomLevel int
	DataReady   int
	Load        int
}

// Max returns the largest of the three bounds.
func (b Bounds) Max() int {
	return max(b.BottomLevel, b.DataReady, b.Load)
}

type ready struct {
	task *taskgraph.Task
	drt  int
}

// Schedule is an immutable partial schedule. The zero value is not usable;
// create the root with [New] and grow it with [Schedule.Extend].
type Schedule struct {
	g     *taskgraph.Graph
	procs int

	placed   placements
	count    int
	frontier []ready
	finish   []int

	blBound int
	drBound int
	idle    int
}

// New returns the empty schedule for g on the given number of processors.
// Its frontier is the graph's start tasks.
func New(g *taskgraph.Graph, processors int) *Schedule {
	if processors < 1 {
		panic(fmt.Sprintf("schedule: processor count %d must be positive", processors))
	}
	s := &Schedule{
		g:      g,
		procs:  processors,
		placed: newPlacements(g.Len()),
	}
	s.frontier = make([]ready, 0, len(g.Starts()))
	for _, t := range g.Starts() {
		s.frontier = append(s.frontier, ready{task: t})
		s.drBound = max(s.drBound, t.BottomLevel())
	}
	return s
}

// Graph returns the task graph being scheduled.
func (s *Schedule) Graph() *taskgraph.Graph { return s.g }

// Processors returns the processor count P.
func (s *Schedule) Processors() int { return s.procs }

// Len returns the number of placed tasks.
func (s *Schedule) Len() int { return s.count }

// IsComplete reports whether every task is placed.
func (s *Schedule) IsComplete() bool { return s.count == s.g.Len() }

// ProcessorsUsed returns how many processors have at least one task.
func (s *Schedule) ProcessorsUsed() int { return len(s.finish) }

// FinishTime returns the time processor p becomes free, or 0 for a processor
// that has not been used.
func (s *Schedule) FinishTime(p int) int {
	if p < len(s.finish) {
		return s.finish[p]
	}
	return 0
}

// Makespan returns the latest finish time over all processors.
func (s *Schedule) Makespan() int {
	m := 0
	for _, f := range s.finish {
		m = max(m, f)
	}
	return m
}

// IdleTime returns the accumulated gaps left on processors before tasks.
func (s *Schedule) IdleTime() int { return s.idle }

// Bounds returns the three lower bounds.
func (s *Schedule) Bounds() Bounds {
	load := 0
	if s.g.Len() > 0 {
		load = ceilDiv(s.g.TotalWeight()+s.idle, s.procs)
	}
	return Bounds{BottomLevel: s.blBound, DataReady: s.drBound, Load: load}
}

// Cost returns the admissible estimate used as search priority: the maximum
// of the three lower bounds.
func (s *Schedule) Cost() int { return s.Bounds().Max() }

// Placement returns the placement of t, if t has been scheduled.
func (s *Schedule) Placement(t *taskgraph.Task) (Placement, bool) {
	return s.placed.get(t.Index())
}

// Frontier returns the tasks that are ready to be placed, in index order.
func (s *Schedule) Frontier() []*taskgraph.Task {
	out := make([]*taskgraph.Task, len(s.frontier))
	for i, r := range s.frontier {
		out[i] = r.task
	}
	return out
}

// DataReady returns the earliest data-ready time of a frontier task across
// every processor, and false if t is not on the frontier.
func (s *Schedule) DataReady(t *taskgraph.Task) (int, bool) {
	if i := s.frontierIndex(t); i >= 0 {
		return s.frontier[i].drt, true
	}
	return 0, false
}

// Candidates returns how many processors an extension may target: the used
// ones plus one empty processor while fewer than P are in use.
func (s *Schedule) Candidates() int {
	return min(len(s.finish)+1, s.procs)
}

// EarliestStart returns the start time t would get on processor p without
// building the extended schedule. It does not check that t is ready.
func (s *Schedule) EarliestStart(t *taskgraph.Task, p int) int {
	start := s.FinishTime(p)
	for _, e := range t.Parents() {
		pp, ok := s.placed.get(e.Parent.Index())
		if !ok {
			panic(fmt.Sprintf("schedule: parent %q of %q is not placed", e.Parent.ID(), t.ID()))
		}
		arrive := pp.Start + e.Parent.Weight()
		if pp.Processor != p {
			arrive += e.Comm
		}
		start = max(start, arrive)
	}
	return start
}

// Extend returns a new schedule with t placed on processor p at its earliest
// start time. It panics if t is not on the frontier or p is not a candidate
// processor.
func (s *Schedule) Extend(t *taskgraph.Task, p int) *Schedule {
	fi := s.frontierIndex(t)
	if fi < 0 {
		panic(fmt.Sprintf("schedule: task %q is not schedulable", t.ID()))
	}
	if p < 0 || p >= s.Candidates() {
		panic(fmt.Sprintf("schedule: processor %d out of range [0, %d)", p, s.Candidates()))
	}

	start := s.EarliestStart(t, p)
	end := start + t.Weight()

	n := &Schedule{
		g:       s.g,
		procs:   s.procs,
		placed:  s.placed.with(t.Index(), Placement{Processor: p, Start: start}),
		count:   s.count + 1,
		blBound: max(s.blBound, start+t.BottomLevel()),
		drBound: s.drBound,
		idle:    s.idle + start - s.FinishTime(p),
	}

	if p == len(s.finish) {
		n.finish = make([]int, len(s.finish)+1)
	} else {
		n.finish = make([]int, len(s.finish))
	}
	copy(n.finish, s.finish)
	n.finish[p] = end

	n.frontier = make([]ready, 0, len(s.frontier)+len(t.Children()))
	n.frontier = append(n.frontier, s.frontier[:fi]...)
	n.frontier = append(n.frontier, s.frontier[fi+1:]...)
	grew := false
	for _, e := range t.Children() {
		if n.allParentsPlaced(e.Child) {
			n.frontier = append(n.frontier, ready{task: e.Child, drt: n.dataReadyTime(e.Child)})
			grew = true
		}
	}
	if grew {
		slices.SortFunc(n.frontier, func(a, b ready) int { return a.task.Index() - b.task.Index() })
	}
	for _, r := range n.frontier {
		n.drBound = max(n.drBound, r.drt+r.task.BottomLevel())
	}
	return n
}

// Successors returns every schedule reachable by one extension: each
// frontier task on each candidate processor.
func (s *Schedule) Successors() []*Schedule {
	c := s.Candidates()
	out := make([]*Schedule, 0, len(s.frontier)*c)
	for _, r := range s.frontier {
		for p := range c {
			out = append(out, s.Extend(r.task, p))
		}
	}
	return out
}

// Key returns a canonical string for the set of placements. Two schedules
// that differ only by a relabelling of processors share a key.
func (s *Schedule) Key() string {
	lanes := make([][]taskStart, len(s.finish))
	s.placed.each(func(i int, pl Placement) {
		lanes[pl.Processor] = append(lanes[pl.Processor], taskStart{task: i, start: pl.Start})
	})
	parts := make([]string, 0, len(lanes))
	for _, lane := range lanes {
		slices.SortFunc(lane, func(a, b taskStart) int {
			if a.start != b.start {
				return a.start - b.start
			}
			return a.task - b.task
		})
		var sb strings.Builder
		for i, ts := range lane {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.Itoa(ts.task))
			sb.WriteByte('@')
			sb.WriteString(strconv.Itoa(ts.start))
		}
		parts = append(parts, sb.String())
	}
	slices.Sort(parts)
	return strings.Join(parts, "|")
}

// String implements fmt.Stringer for debugging.
func (s *Schedule) String() string {
	return fmt.Sprintf("schedule{placed=%d/%d cost=%d key=%s}", s.count, s.g.Len(), s.Cost(), s.Key())
}

type taskStart struct {
	task  int
	start int
}

func (s *Schedule) frontierIndex(t *taskgraph.Task) int {
	for i, r := range s.frontier {
		if r.task == t {
			return i
		}
	}
	return -1
}

func (s *Schedule) allParentsPlaced(t *taskgraph.Task) bool {
	for _, e := range t.Parents() {
		if _, ok := s.placed.get(e.Parent.Index()); !ok {
			return false
		}
	}
	return true
}

// dataReadyTime is the minimum over all P processors of the time t's inputs
// arrive there. Unused processors are interchangeable, so one stands in for
// all of them.
func (s *Schedule) dataReadyTime(t *taskgraph.Task) int {
	remote := 0
	for _, e := range t.Parents() {
		pp, _ := s.placed.get(e.Parent.Index())
		remote = max(remote, pp.Start+e.Parent.Weight()+e.Comm)
	}
	best := remote
	if len(s.finish) == s.procs {
		best = -1
	}
	for q := range s.finish {
		arrive := 0
		for _, e := range t.Parents() {
			pp, _ := s.placed.get(e.Parent.Index())
			a := pp.Start + e.Parent.Weight()
			if pp.Processor != q {
				a += e.Comm
			}
			arrive = max(arrive, a)
		}
		if best < 0 || arrive < best {
			best = arrive
		}
	}
	return best
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
