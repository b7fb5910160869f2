package search

import (
	"context"
	"math"

	"github.com/matzehuels/taskplan/pkg/schedule"
	"github.com/matzehuels/taskplan/pkg/taskgraph"
)

// frame is one level of the IDA* path stack.
type frame struct {
	sched    *schedule.Schedule
	f        int
	children []*schedule.Schedule
	next     int
}

// runIDAStar repeats a cost-bounded depth-first search from the empty
// schedule, raising the bound to the smallest f that exceeded it, until a
// complete schedule fits under the bound. Memory is proportional to the
// number of tasks.
func runIDAStar(ctx context.Context, g *taskgraph.Graph, opts Options, prog *progress) (Result, error) {
	var stats Stats
	root := schedule.New(g, opts.Processors)
	bound := root.Cost()

	for {
		next, found, err := idaPass(ctx, root, bound, &stats, prog)
		if err != nil {
			return cancelled(ctx, nil, stats)
		}
		if found != nil {
			return Result{Status: StatusOptimal, Solution: found.Solution(), Stats: stats}, nil
		}
		if next == math.MaxInt {
			return Result{Status: StatusNoSolution, Stats: stats}, nil
		}
		bound = next
	}
}

// idaPass runs one bounded depth-first pass. It returns the smallest f seen
// above bound, or the first complete schedule within it.
func idaPass(ctx context.Context, root *schedule.Schedule, bound int, stats *Stats, prog *progress) (int, *schedule.Schedule, error) {
	next := math.MaxInt
	path := []*frame{{sched: root, f: root.Cost()}}

	for len(path) > 0 {
		if err := ctx.Err(); err != nil {
			return 0, nil, err
		}
		top := path[len(path)-1]

		if top.children == nil {
			if top.f > bound {
				next = min(next, top.f)
				stats.Pruned++
				path = path[:len(path)-1]
				continue
			}
			if top.sched.IsComplete() {
				return bound, top.sched, nil
			}
			top.children = sortedSuccessors(top.sched)
			stats.Expanded++
			stats.Generated += len(top.children)
			stats.PeakResident = max(stats.PeakResident, len(path))
			prog.tick(*stats)
		}

		if top.next == len(top.children) {
			path = path[:len(path)-1]
			continue
		}
		child := top.children[top.next]
		top.children[top.next] = nil
		top.next++
		path = append(path, &frame{sched: child, f: max(top.f, child.Cost())})
	}
	return next, nil, nil
}
