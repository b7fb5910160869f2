package schedule

import (
	"errors"
	"fmt"
	"slices"

	"github.com/matzehuels/taskplan/pkg/taskgraph"
)

var (
	// ErrIncomplete is returned by [Solution.Verify] when a task of the graph
	// has no assignment.
	ErrIncomplete = errors.New("solution does not place every task")

	// ErrInfeasible is returned by [Solution.Verify] when an assignment breaks
	// a precedence, communication or overlap constraint.
	ErrInfeasible = errors.New("solution is infeasible")
)

// Assignment is the placement of one task in a [Solution].
type Assignment struct {
	ID        string `json:"id"`
	Processor int    `json:"processor"`
	Start     int    `json:"start"`
	Finish    int    `json:"finish"`
}

// Solution is a complete schedule in a plain, serializable form. Tasks are
// ordered by processor, then start time, then ID.
type Solution struct {
	Processors int          `json:"processors"`
	Makespan   int          `json:"makespan"`
	Tasks      []Assignment `json:"tasks"`
}

// Solution converts the placed tasks into a [Solution]. It is normally called
// on a complete schedule.
func (s *Schedule) Solution() *Solution {
	sol := &Solution{
		Processors: s.procs,
		Makespan:   s.Makespan(),
		Tasks:      make([]Assignment, 0, s.count),
	}
	s.placed.each(func(i int, pl Placement) {
		t := s.g.Task(i)
		sol.Tasks = append(sol.Tasks, Assignment{
			ID:        t.ID(),
			Processor: pl.Processor,
			Start:     pl.Start,
			Finish:    pl.Start + t.Weight(),
		})
	})
	sol.sort()
	return sol
}

func (sol *Solution) sort() {
	slices.SortFunc(sol.Tasks, func(a, b Assignment) int {
		if a.Processor != b.Processor {
			return a.Processor - b.Processor
		}
		if a.Start != b.Start {
			return a.Start - b.Start
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
}

// Lookup returns the assignment for the task with the given ID.
func (sol *Solution) Lookup(id string) (Assignment, bool) {
	for _, a := range sol.Tasks {
		if a.ID == id {
			return a, true
		}
	}
	return Assignment{}, false
}

// Lanes groups assignments by processor. The result has Processors entries;
// unused processors get an empty lane.
func (sol *Solution) Lanes() [][]Assignment {
	lanes := make([][]Assignment, sol.Processors)
	for _, a := range sol.Tasks {
		if a.Processor >= 0 && a.Processor < len(lanes) {
			lanes[a.Processor] = append(lanes[a.Processor], a)
		}
	}
	return lanes
}

// Verify checks sol against g: every task placed once with its weight, no
// overlap on a processor, every child starting after its parents' data has
// arrived, and Makespan equal to the latest finish.
func (sol *Solution) Verify(g *taskgraph.Graph) error {
	if len(sol.Tasks) != g.Len() {
		return fmt.Errorf("%w: %d of %d tasks", ErrIncomplete, len(sol.Tasks), g.Len())
	}
	byID := make(map[string]Assignment, len(sol.Tasks))
	latest := 0
	for _, a := range sol.Tasks {
		t, ok := g.TaskByID(a.ID)
		if !ok {
			return fmt.Errorf("%w: unknown task %q", ErrInfeasible, a.ID)
		}
		if _, dup := byID[a.ID]; dup {
			return fmt.Errorf("%w: task %q placed twice", ErrInfeasible, a.ID)
		}
		if a.Processor < 0 || a.Processor >= sol.Processors {
			return fmt.Errorf("%w: task %q on processor %d", ErrInfeasible, a.ID, a.Processor)
		}
		if a.Start < 0 || a.Finish-a.Start != t.Weight() {
			return fmt.Errorf("%w: task %q runs [%d, %d) but weighs %d", ErrInfeasible, a.ID, a.Start, a.Finish, t.Weight())
		}
		byID[a.ID] = a
		latest = max(latest, a.Finish)
	}
	if latest != sol.Makespan {
		return fmt.Errorf("%w: makespan %d, latest finish %d", ErrInfeasible, sol.Makespan, latest)
	}

	for _, lane := range sol.Lanes() {
		slices.SortFunc(lane, func(a, b Assignment) int { return a.Start - b.Start })
		for i := 1; i < len(lane); i++ {
			if lane[i].Start < lane[i-1].Finish {
				return fmt.Errorf("%w: %q and %q overlap on processor %d",
					ErrInfeasible, lane[i-1].ID, lane[i].ID, lane[i].Processor)
			}
		}
	}

	for _, e := range g.Edges() {
		p, c := byID[e.Parent.ID()], byID[e.Child.ID()]
		ready := p.Finish
		if p.Processor != c.Processor {
			ready += e.Comm
		}
		if c.Start < ready {
			return fmt.Errorf("%w: %q starts at %d before data from %q arrives at %d",
				ErrInfeasible, c.ID, c.Start, p.ID, ready)
		}
	}
	return nil
}
