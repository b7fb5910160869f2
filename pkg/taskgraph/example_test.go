package taskgraph_test

import (
	"fmt"

	"github.com/matzehuels/taskplan/pkg/taskgraph"
)

func ExampleBuilder() {
	// A fork: prepare feeds two independent jobs.
	b := taskgraph.NewBuilder()
	_ = b.AddTask("prepare", 2)
	_ = b.AddTask("left", 5)
	_ = b.AddTask("right", 3)
	_ = b.AddEdge("prepare", "left", 1)
	_ = b.AddEdge("prepare", "right", 4)

	g, err := b.Build()
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("Tasks:", g.Len())
	fmt.Println("Total weight:", g.TotalWeight())
	fmt.Println("Critical path:", g.CriticalPath())
	// Output:
	// Tasks: 3
	// Total weight: 10
	// Critical path: 7
}

func ExampleTask_BottomLevel() {
	b := taskgraph.NewBuilder()
	_ = b.AddTask("a", 1)
	_ = b.AddTask("b", 2)
	_ = b.AddTask("c", 3)
	_ = b.AddEdge("a", "b", 0)
	_ = b.AddEdge("b", "c", 0)
	g := b.MustBuild()

	for _, t := range g.Tasks() {
		fmt.Printf("%s: %d\n", t.ID(), t.BottomLevel())
	}
	// Output:
	// a: 6
	// b: 5
	// c: 3
}
