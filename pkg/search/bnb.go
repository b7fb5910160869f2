package search

import (
	"context"

	"github.com/matzehuels/taskplan/pkg/schedule"
	"github.com/matzehuels/taskplan/pkg/taskgraph"
)

// runBranchAndBound is depth-first search seeded with the greedy list
// schedule as incumbent. A subtree is cut as soon as its cost reaches the
// incumbent's makespan, so whatever incumbent remains at the end is optimal.
func runBranchAndBound(ctx context.Context, g *taskgraph.Graph, opts Options, prog *progress) (Result, error) {
	var stats Stats
	best := ListSchedule(g, opts.Processors)
	root := schedule.New(g, opts.Processors)

	path := []*frame{{sched: root}}
	for len(path) > 0 {
		if err := ctx.Err(); err != nil {
			return cancelled(ctx, best, stats)
		}
		top := path[len(path)-1]

		if top.children == nil {
			if top.sched.Cost() >= best.Makespan() {
				stats.Pruned++
				path = path[:len(path)-1]
				continue
			}
			if top.sched.IsComplete() {
				best = top.sched
				path = path[:len(path)-1]
				continue
			}
			top.children = sortedSuccessors(top.sched)
			stats.Expanded++
			stats.Generated += len(top.children)
			stats.PeakResident = max(stats.PeakResident, len(path))
			prog.tick(stats)
		}

		if top.next == len(top.children) {
			path = path[:len(path)-1]
			continue
		}
		child := top.children[top.next]
		top.children[top.next] = nil
		top.next++
		path = append(path, &frame{sched: child})
	}
	return Result{Status: StatusOptimal, Solution: best.Solution(), Stats: stats}, nil
}
