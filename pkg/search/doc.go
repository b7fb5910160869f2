// Package search finds minimal-makespan schedules of task graphs.
//
// # Overview
//
// [Search] explores the space of partial schedules built by
// [schedule.Schedule.Extend], ordered by the admissible cost every schedule
// carries. Five drivers share that state space:
//
//   - [AStar]: best-first search over an unbounded queue. The first complete
//     schedule popped is optimal.
//   - [IDAStar]: iterative deepening on the cost bound. Memory grows with the
//     number of tasks only, at the price of re-expanding shallow nodes.
//   - [SMAStarPlus]: best-first search that never holds more than
//     Options.NodeBudget nodes. When full it forgets the worst leaf and keeps
//     its cost in the parent, so the subtree can be rebuilt later.
//   - [ParallelAStar]: Options.Threads workers share one queue and one
//     incumbent. Duplicate schedules are suppressed by canonical key.
//   - [BranchAndBound]: depth-first search seeded with [ListSchedule].
//
// # Results
//
// Search reports how it ended through [Status] rather than errors:
//
//	res, err := search.Search(ctx, g, search.Options{
//	    Processors: 2,
//	    Algorithm:  search.SMAStarPlus,
//	    NodeBudget: 10_000,
//	})
//	if err != nil {
//	    return err // invalid options or ctx ended
//	}
//	switch res.Status {
//	case search.StatusOptimal:
//	    fmt.Println("makespan", res.Solution.Makespan)
//	case search.StatusBoundExceeded:
//	    // raise NodeBudget or pick another algorithm
//	}
//
// # Cancellation
//
// Every driver checks its context once per expansion. When the context ends,
// Search returns [StatusCancelled] together with ctx.Err(). Drivers that keep
// an incumbent ([BranchAndBound], [ParallelAStar]) include it as the
// Solution.
//
// # Concurrency
//
// Only [ParallelAStar] runs concurrently. Its workers are managed by an
// errgroup; the search terminates when every worker is idle and the shared
// queue is empty. All other drivers run on the calling goroutine.
package search
