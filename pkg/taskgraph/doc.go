// Package taskgraph provides the immutable weighted task graph that the
// scheduler searches over.
//
// # Overview
//
// A [Graph] is a directed acyclic graph of [Task] values. Every task has an
// execution weight (its duration on any processor) and every [Edge] carries a
// communication weight: the delay paid when the parent and the child run on
// different processors. Data moving between tasks on the same processor is
// free.
//
// # Building a Graph
//
// Graphs are assembled with a [Builder] and frozen with [Builder.Build]:
//
//	b := taskgraph.NewBuilder()
//	_ = b.AddTask("a", 2)
//	_ = b.AddTask("b", 3)
//	_ = b.AddEdge("a", "b", 1)
//	g, err := b.Build()
//
// Task IDs must be unique and non-empty; edges may only reference tasks that
// were added earlier. [Builder.Build] assigns each task a dense index in
// insertion order, which the scheduling packages use for array-backed state.
//
// # Bottom Levels
//
// The bottom level of a task is the weight of the heaviest path from the task
// to any sink, including the task's own weight. It is a static lower bound on
// the time between a task's start and the end of the schedule, and it drives
// every admissible heuristic in package schedule. Build computes it once per
// task by memoized recursion from the start tasks; [Task.BottomLevel] never
// changes afterwards.
//
// # Validation
//
// The search core assumes its input is a DAG and never checks for cycles.
// [Builder.Build] runs [Graph.Validate] once before computing bottom levels,
// so every Graph handed to the core is acyclic.
//
// # Concurrency
//
// A built Graph is read-only and safe for concurrent use.
package taskgraph
