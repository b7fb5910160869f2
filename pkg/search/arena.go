package search

import (
	"math"

	"github.com/matzehuels/taskplan/pkg/schedule"
	"github.com/matzehuels/taskplan/pkg/taskgraph"
)

// unreachable is the cost given to successors that cannot reach a complete
// schedule within the node budget.
const unreachable = math.MaxInt

// handle identifies a bounded node inside an arena.
type handle int32

const noHandle handle = -1

type slotState uint8

const (
	slotPending slotState = iota
	slotLive
	slotForgotten
)

// move is the extension that produces a successor from its parent.
type move struct {
	task *taskgraph.Task
	proc int
}

// slot is one successor of a bounded node. A live slot points at a resident
// child; a forgotten slot only remembers the child's last known cost.
type slot struct {
	move  move
	state slotState
	child handle
	cost  int
}

// boundedNode is an SMA*+ search node.
type boundedNode struct {
	sched     *schedule.Schedule
	parent    handle
	slotIdx   int
	depth     int
	cost      int
	live      int
	expanded  bool
	expanding bool
	slots     []slot
}

// isLeaf reports whether n has no resident children.
func (n *boundedNode) isLeaf() bool { return n.live == 0 }

// minSlotCost returns the smallest cost over all slots, reading live costs
// from the arena.
func (n *boundedNode) minSlotCost(a *arena) int {
	best := unreachable
	for _, s := range n.slots {
		c := s.cost
		if s.state == slotLive {
			c = a.get(s.child).cost
		}
		best = min(best, c)
	}
	return best
}

// minForgottenCost returns the smallest remembered cost among forgotten
// slots, and false if no slot is forgotten.
func (n *boundedNode) minForgottenCost() (int, bool) {
	best, found := unreachable, false
	for _, s := range n.slots {
		if s.state == slotForgotten {
			best, found = min(best, s.cost), true
		}
	}
	return best, found
}

// arena owns every resident bounded node. Freed handles are reused.
type arena struct {
	nodes    []boundedNode
	free     []handle
	resident int
	peak     int
}

func (a *arena) get(h handle) *boundedNode { return &a.nodes[h] }

func (a *arena) alloc(n boundedNode) handle {
	var h handle
	if k := len(a.free); k > 0 {
		h = a.free[k-1]
		a.free = a.free[:k-1]
		a.nodes[h] = n
	} else {
		h = handle(len(a.nodes))
		a.nodes = append(a.nodes, n)
	}
	a.resident++
	a.peak = max(a.peak, a.resident)
	return h
}

func (a *arena) release(h handle) {
	a.nodes[h] = boundedNode{}
	a.free = append(a.free, h)
	a.resident--
}
