package search

import (
	"slices"

	"github.com/matzehuels/taskplan/pkg/schedule"
)

// node is the plain search node used by A*, IDA*, branch and bound and the
// parallel driver.
type node struct {
	sched *schedule.Schedule
	cost  int
	seq   uint64
}

func newNode(s *schedule.Schedule, seq uint64) *node {
	return &node{sched: s, cost: s.Cost(), seq: seq}
}

// nodeLess orders by cost, then deeper schedules first, then creation order.
func nodeLess(a, b *node) bool {
	if a.cost != b.cost {
		return a.cost < b.cost
	}
	if a.sched.Len() != b.sched.Len() {
		return a.sched.Len() > b.sched.Len()
	}
	return a.seq < b.seq
}

// sortedSuccessors returns the successors of s in ascending cost, keeping
// generation order among equal costs.
func sortedSuccessors(s *schedule.Schedule) []*schedule.Schedule {
	succ := s.Successors()
	slices.SortStableFunc(succ, func(a, b *schedule.Schedule) int {
		return a.Cost() - b.Cost()
	})
	return succ
}
