package search_test

import (
	"context"
	"fmt"

	"github.com/matzehuels/taskplan/pkg/search"
	"github.com/matzehuels/taskplan/pkg/taskgraph"
)

func ExampleSearch() {
	b := taskgraph.NewBuilder()
	_ = b.AddTask("fetch", 2)
	_ = b.AddTask("resize", 3)
	_ = b.AddTask("thumbnail", 2)
	_ = b.AddTask("publish", 1)
	_ = b.AddEdge("fetch", "resize", 0)
	_ = b.AddEdge("fetch", "thumbnail", 0)
	_ = b.AddEdge("resize", "publish", 1)
	_ = b.AddEdge("thumbnail", "publish", 1)
	g := b.MustBuild()

	for _, alg := range []search.Algorithm{search.AStar, search.IDAStar, search.BranchAndBound} {
		res, err := search.Search(context.Background(), g, search.Options{
			Processors: 2,
			Algorithm:  alg,
		})
		if err != nil {
			fmt.Println(err)
			return
		}
		fmt.Printf("%s: %s, makespan %d\n", alg, res.Status, res.Solution.Makespan)
	}
	// Output:
	// astar: optimal, makespan 6
	// idastar: optimal, makespan 6
	// bnb: optimal, makespan 6
}

func ExampleListSchedule() {
	b := taskgraph.NewBuilder()
	_ = b.AddTask("a", 4)
	_ = b.AddTask("b", 3)
	_ = b.AddTask("c", 1)
	_ = b.AddEdge("a", "c", 2)
	_ = b.AddEdge("b", "c", 2)
	g := b.MustBuild()

	s := search.ListSchedule(g, 2)
	for _, a := range s.Solution().Tasks {
		fmt.Printf("%s P%d [%d,%d)\n", a.ID, a.Processor, a.Start, a.Finish)
	}
	// Output:
	// a P0 [0,4)
	// c P0 [5,6)
	// b P1 [0,3)
}
