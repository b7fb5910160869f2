package schedule_test

import (
	"fmt"

	"github.com/matzehuels/taskplan/pkg/schedule"
	"github.com/matzehuels/taskplan/pkg/taskgraph"
)

func ExampleSchedule_Extend() {
	b := taskgraph.NewBuilder()
	_ = b.AddTask("load", 2)
	_ = b.AddTask("train", 4)
	_ = b.AddTask("eval", 1)
	_ = b.AddEdge("load", "train", 3)
	_ = b.AddEdge("load", "eval", 3)
	g := b.MustBuild()

	load, _ := g.TaskByID("load")
	train, _ := g.TaskByID("train")
	eval, _ := g.TaskByID("eval")

	s := schedule.New(g, 2)
	s = s.Extend(load, 0)
	s = s.Extend(train, 0)
	s = s.Extend(eval, 1)

	for _, a := range s.Solution().Tasks {
		fmt.Printf("%s on P%d [%d, %d)\n", a.ID, a.Processor, a.Start, a.Finish)
	}
	fmt.Println("Makespan:", s.Makespan())
	// Output:
	// load on P0 [0, 2)
	// train on P0 [2, 6)
	// eval on P1 [5, 6)
	// Makespan: 6
}
