package search

import (
	"context"

	"github.com/matzehuels/taskplan/pkg/pqueue"
	"github.com/matzehuels/taskplan/pkg/schedule"
	"github.com/matzehuels/taskplan/pkg/taskgraph"
)

// runAStar is best-first search over an unbounded OPEN queue. The first
// complete schedule popped is optimal because every cost is a lower bound.
// There is no duplicate detection.
func runAStar(ctx context.Context, g *taskgraph.Graph, opts Options, prog *progress) (Result, error) {
	var (
		stats Stats
		seq   uint64
	)
	open := pqueue.New(nodeLess)
	open.Push(newNode(schedule.New(g, opts.Processors), seq))
	stats.PeakResident = 1

	for {
		if err := ctx.Err(); err != nil {
			return cancelled(ctx, nil, stats)
		}
		n, ok := open.Pop()
		if !ok {
			return Result{Status: StatusNoSolution, Stats: stats}, nil
		}
		if n.sched.IsComplete() {
			return Result{Status: StatusOptimal, Solution: n.sched.Solution(), Stats: stats}, nil
		}

		stats.Expanded++
		for _, s := range n.sched.Successors() {
			seq++
			open.Push(newNode(s, seq))
			stats.Generated++
		}
		stats.PeakResident = max(stats.PeakResident, open.Len())
		prog.tick(stats)
	}
}
