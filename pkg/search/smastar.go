package search

import (
	"context"

	"github.com/matzehuels/taskplan/pkg/pqueue"
	"github.com/matzehuels/taskplan/pkg/schedule"
	"github.com/matzehuels/taskplan/pkg/taskgraph"
)

// testHookSMAExpand, when set, is called after every expansion. Tests use it to
// check invariants on the live tree.
var testHookSMAExpand func(m *smaSearch)

// smaSearch is the state of one SMA*+ run. At most budget nodes are resident
// at any time.
//
// OPEN holds unexpanded nodes and expanded nodes with forgotten successors.
// The cull queue holds leaves other than the root and the node currently
// being expanded.
type smaSearch struct {
	a      arena
	open   *pqueue.Queue[handle]
	cull   *pqueue.Queue[handle]
	budget int
	root   handle
	stats  Stats
}

func newSMASearch(root *schedule.Schedule, budget int) *smaSearch {
	m := &smaSearch{budget: budget}
	m.open = pqueue.New(m.openLess)
	m.cull = pqueue.New(m.cullLess)
	m.root = m.a.alloc(boundedNode{sched: root, parent: noHandle, cost: root.Cost()})
	m.open.Push(m.root)
	return m
}

// openKey is the cost a node is ranked by in OPEN: its own cost before
// expansion, and the cheapest forgotten successor afterwards.
func (m *smaSearch) openKey(h handle) int {
	n := m.a.get(h)
	if !n.expanded {
		return n.cost
	}
	c, _ := n.minForgottenCost()
	return c
}

// openLess ranks by key, then unexpanded before expanded, then deeper first.
func (m *smaSearch) openLess(x, y handle) bool {
	kx, ky := m.openKey(x), m.openKey(y)
	if kx != ky {
		return kx < ky
	}
	nx, ny := m.a.get(x), m.a.get(y)
	if nx.expanded != ny.expanded {
		return !nx.expanded
	}
	if nx.depth != ny.depth {
		return nx.depth > ny.depth
	}
	return x < y
}

// cullLess puts the worst leaf first: highest cost, then shallowest.
func (m *smaSearch) cullLess(x, y handle) bool {
	nx, ny := m.a.get(x), m.a.get(y)
	if nx.cost != ny.cost {
		return nx.cost > ny.cost
	}
	if nx.depth != ny.depth {
		return nx.depth < ny.depth
	}
	return x > y
}

// runSMAStar is memory-bounded best-first search. When the budget is full,
// the worst leaf is forgotten and its cost kept in its parent's slot so the
// subtree can be regenerated if it becomes promising again.
func runSMAStar(ctx context.Context, g *taskgraph.Graph, opts Options, prog *progress) (Result, error) {
	// A complete schedule sits at depth n, so its path holds n+1 nodes.
	if opts.NodeBudget < g.Len()+1 {
		return Result{Status: StatusBoundExceeded}, nil
	}
	m := newSMASearch(schedule.New(g, opts.Processors), opts.NodeBudget)

	for {
		if err := ctx.Err(); err != nil {
			return cancelled(ctx, nil, m.snapshot())
		}
		h, ok := m.open.Peek()
		if !ok {
			return Result{Status: StatusNoSolution, Stats: m.snapshot()}, nil
		}
		if m.openKey(h) == unreachable {
			return Result{Status: StatusBoundExceeded, Stats: m.snapshot()}, nil
		}
		m.open.Pop()

		n := m.a.get(h)
		if n.sched.IsComplete() {
			return Result{Status: StatusOptimal, Solution: n.sched.Solution(), Stats: m.snapshot()}, nil
		}

		m.cull.Remove(h)
		m.expand(h)
		m.stats.Expanded++
		if testHookSMAExpand != nil {
			testHookSMAExpand(m)
		}
		prog.tick(m.snapshot())
	}
}

func (m *smaSearch) snapshot() Stats {
	s := m.stats
	s.PeakResident = m.a.peak
	return s
}

// expand materializes every successor of h that is not already resident:
// all of them on first expansion, only the forgotten ones afterwards.
func (m *smaSearch) expand(h handle) {
	n := m.a.get(h)
	n.expanding = true
	if n.slots == nil {
		c := n.sched.Candidates()
		for _, t := range n.sched.Frontier() {
			for p := range c {
				n.slots = append(n.slots, slot{move: move{task: t, proc: p}, state: slotPending})
			}
		}
	}

	for i := range len(n.slots) {
		sl := m.a.get(h).slots[i]
		if sl.state == slotLive || (sl.state == slotForgotten && sl.cost == unreachable) {
			continue
		}
		m.generate(h, i)
	}

	n = m.a.get(h)
	n.expanding = false
	n.expanded = true
	m.backup(h)

	if _, ok := n.minForgottenCost(); ok {
		m.open.Push(h)
	}
	if n.isLeaf() && h != m.root {
		m.cull.Push(h)
	}
}

// generate builds the successor in slot i of h and makes it resident if the
// budget allows, culling a worse leaf when necessary.
func (m *smaSearch) generate(h handle, i int) {
	parent := m.a.get(h)
	sl := &parent.slots[i]
	s := parent.sched.Extend(sl.move.task, sl.move.proc)
	m.stats.Generated++

	cost := max(parent.cost, s.Cost())
	if sl.state == slotForgotten {
		cost = max(cost, sl.cost)
	}
	depth := parent.depth + 1
	// A node at depth d needs d+1 resident nodes on its path; an incomplete
	// one needs room for at least one more.
	if depth >= m.budget || (!s.IsComplete() && (len(s.Frontier()) == 0 || depth >= m.budget-1)) {
		cost = unreachable
	}
	if cost == unreachable {
		sl.state, sl.cost = slotForgotten, unreachable
		m.stats.Pruned++
		return
	}

	if m.a.resident >= m.budget {
		w, ok := m.cull.Peek()
		if !ok || !m.worseThan(w, cost, depth) {
			sl.state, sl.cost = slotForgotten, cost
			m.stats.Pruned++
			return
		}
		m.forget(w)
	}

	child := m.a.alloc(boundedNode{sched: s, parent: h, slotIdx: i, depth: depth, cost: cost})
	parent = m.a.get(h)
	parent.slots[i].state = slotLive
	parent.slots[i].child = child
	parent.slots[i].cost = cost
	parent.live++
	m.open.Push(child)
	m.cull.Push(child)
}

// worseThan reports whether resident leaf w should be culled in favour of a
// new node with the given cost and depth.
func (m *smaSearch) worseThan(w handle, cost, depth int) bool {
	n := m.a.get(w)
	if n.cost != cost {
		return n.cost > cost
	}
	return n.depth < depth
}

// forget culls leaf w, remembering its cost in its parent's slot.
func (m *smaSearch) forget(w handle) {
	n := m.a.get(w)
	p, idx, cost := n.parent, n.slotIdx, n.cost
	m.open.Remove(w)
	m.cull.Remove(w)
	m.a.release(w)
	m.stats.Pruned++

	pn := m.a.get(p)
	pn.slots[idx].state = slotForgotten
	pn.slots[idx].child = noHandle
	pn.slots[idx].cost = cost
	pn.live--
	if pn.expanding {
		return
	}
	if !m.open.Push(p) {
		m.open.Fix(p)
	}
	if pn.isLeaf() && p != m.root {
		m.cull.Push(p)
	}
}

// backup sets the cost of h to the cheapest of its successors and carries
// any change up towards the root.
func (m *smaSearch) backup(h handle) {
	for h != noHandle {
		n := m.a.get(h)
		if !n.expanded {
			return
		}
		c := n.minSlotCost(&m.a)
		if c == n.cost {
			return
		}
		n.cost = c
		if m.open.Contains(h) {
			m.open.Fix(h)
		}
		if m.cull.Contains(h) {
			m.cull.Fix(h)
		}
		h = n.parent
	}
}
