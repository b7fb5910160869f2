package search

import (
	"github.com/matzehuels/taskplan/pkg/schedule"
	"github.com/matzehuels/taskplan/pkg/taskgraph"
)

// ListSchedule builds a complete schedule greedily: repeatedly place the
// ready task with the largest bottom level on the candidate processor where
// it can start earliest. Ties go to the lower task index and the lower
// processor. The result is feasible but not necessarily optimal.
func ListSchedule(g *taskgraph.Graph, processors int) *schedule.Schedule {
	s := schedule.New(g, processors)
	for !s.IsComplete() {
		var pick *taskgraph.Task
		for _, t := range s.Frontier() {
			if pick == nil || t.BottomLevel() > pick.BottomLevel() {
				pick = t
			}
		}
		proc, best := 0, -1
		for p := range s.Candidates() {
			if start := s.EarliestStart(pick, p); best < 0 || start < best {
				proc, best = p, start
			}
		}
		s = s.Extend(pick, proc)
	}
	return s
}
