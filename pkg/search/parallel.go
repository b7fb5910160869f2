package search

import (
	"context"
	"math"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/taskplan/pkg/pqueue"
	"github.com/matzehuels/taskplan/pkg/schedule"
	"github.com/matzehuels/taskplan/pkg/taskgraph"
)

// sharedQueue is a blocking priority queue shared by the parallel workers.
// It also tracks how many workers are active; when the last active worker
// finds the queue empty no more work can appear, so the queue closes itself.
type sharedQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	q      *pqueue.Queue[*node]
	closed bool
	active atomic.Int32
	peak   int
}

func newSharedQueue(workers int) *sharedQueue {
	sq := &sharedQueue{q: pqueue.New(nodeLess)}
	sq.cond = sync.NewCond(&sq.mu)
	sq.active.Store(int32(workers))
	return sq
}

// push adds n and wakes one waiting worker.
func (sq *sharedQueue) push(n *node) {
	sq.mu.Lock()
	if !sq.closed {
		sq.q.Push(n)
		sq.peak = max(sq.peak, sq.q.Len())
	}
	sq.mu.Unlock()
	sq.cond.Signal()
}

// pop blocks until a node is available or the queue is closed. Nodes whose
// cost has reached limit are dropped; since the heap is ordered, everything
// behind the first such node is dropped with it. The second result counts
// dropped nodes.
func (sq *sharedQueue) pop(limit func() int) (*node, int) {
	sq.mu.Lock()
	defer sq.mu.Unlock()
	dropped := 0
	for {
		if sq.closed {
			return nil, dropped
		}
		if top, ok := sq.q.Peek(); ok {
			if top.cost < limit() {
				sq.q.Pop()
				return top, dropped
			}
			dropped += sq.q.Len()
			sq.q.Clear()
		}
		if sq.active.Add(-1) == 0 {
			sq.closed = true
			sq.cond.Broadcast()
			return nil, dropped
		}
		sq.cond.Wait()
		sq.active.Add(1)
	}
}

// close wakes every worker and makes pop return nil.
func (sq *sharedQueue) close() {
	sq.mu.Lock()
	sq.closed = true
	sq.mu.Unlock()
	sq.cond.Broadcast()
}

func (sq *sharedQueue) peakLen() int {
	sq.mu.Lock()
	defer sq.mu.Unlock()
	return sq.peak
}

// incumbent holds the best complete schedule found by any worker.
type incumbent struct {
	best atomic.Pointer[schedule.Schedule]
}

// makespan returns the incumbent's makespan, or MaxInt if there is none.
func (in *incumbent) makespan() int {
	if s := in.best.Load(); s != nil {
		return s.Makespan()
	}
	return math.MaxInt
}

// offer installs s if it is strictly better than the current incumbent.
func (in *incumbent) offer(s *schedule.Schedule) bool {
	for {
		cur := in.best.Load()
		if cur != nil && cur.Makespan() <= s.Makespan() {
			return false
		}
		if in.best.CompareAndSwap(cur, s) {
			return true
		}
	}
}

// runParallel is best-first search with a pool of workers sharing one
// queue. Complete schedules update a shared incumbent instead of ending the
// search, and nodes that cannot beat the incumbent are discarded. Schedules
// whose canonical key was already seen are skipped.
func runParallel(ctx context.Context, g *taskgraph.Graph, opts Options, prog *progress) (Result, error) {
	var (
		inc                           incumbent
		seen                          sync.Map
		seq, expanded, generated, cut atomic.Int64
	)
	sq := newSharedQueue(opts.Threads)
	stop := context.AfterFunc(ctx, sq.close)
	defer stop()

	root := schedule.New(g, opts.Processors)
	seen.Store(root.Key(), struct{}{})
	sq.push(newNode(root, 0))

	snapshot := func() Stats {
		return Stats{
			Expanded:     int(expanded.Load()),
			Generated:    int(generated.Load()),
			Pruned:       int(cut.Load()),
			PeakResident: sq.peakLen(),
		}
	}

	eg, egCtx := errgroup.WithContext(ctx)
	for range opts.Threads {
		eg.Go(func() error {
			for {
				n, dropped := sq.pop(inc.makespan)
				cut.Add(int64(dropped))
				if n == nil {
					return nil
				}
				if egCtx.Err() != nil {
					return nil
				}
				expanded.Add(1)
				for _, s := range n.sched.Successors() {
					generated.Add(1)
					if s.IsComplete() {
						inc.offer(s)
						continue
					}
					if s.Cost() >= inc.makespan() {
						cut.Add(1)
						continue
					}
					if _, dup := seen.LoadOrStore(s.Key(), struct{}{}); dup {
						cut.Add(1)
						continue
					}
					sq.push(newNode(s, uint64(seq.Add(1))))
				}
				prog.tick(snapshot())
			}
		})
	}
	_ = eg.Wait()

	stats := snapshot()
	best := inc.best.Load()
	if ctx.Err() != nil {
		return cancelled(ctx, best, stats)
	}
	if best == nil {
		return Result{Status: StatusNoSolution, Stats: stats}, nil
	}
	return Result{Status: StatusOptimal, Solution: best.Solution(), Stats: stats}, nil
}
