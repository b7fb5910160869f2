// Package pkg provides the core libraries for taskplan, an optimal
// multiprocessor scheduler for task graphs.
//
// # Overview
//
// A task graph is a DAG whose nodes carry a duration and whose edges carry a
// communication cost that is paid only when parent and child run on different
// processors. taskplan searches for a schedule on a fixed number of identical
// processors with the smallest possible makespan.
//
// # Architecture
//
// The typical data flow:
//
//	DOT or JSON graph
//	        ↓
//	  [io] package (parse and validate)
//	        ↓
//	  [taskgraph] package (tasks, edges, bottom levels)
//	        ↓
//	  [search] package (A*, IDA*, SMA*+, parallel A*, branch and bound
//	                    over [schedule] states)
//	        ↓
//	  [render] and [io] packages (annotated DOT, JSON, SVG, PDF, PNG)
//
// [pipeline] runs these stages with caching ([cache]) and run history
// ([store]).
//
// # Quick Start
//
//	g, err := io.ImportDOT("diamond.dot")
//	if err != nil {
//	    return err
//	}
//	res, err := search.Search(ctx, g, search.Options{
//	    Processors: 2,
//	    Algorithm:  search.AStar,
//	})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Status, res.Solution.Makespan)
//
// # Main Packages
//
//   - [taskgraph]: immutable task graph with precomputed bottom levels
//   - [schedule]: partial schedules, the search state, and plain solutions
//   - [search]: the search drivers and their statistics
//   - [pqueue]: the priority queue shared by the best-first drivers
//   - [io]: DOT and JSON readers and writers
//   - [render]: Graphviz rendering and SVG conversion
//   - [pipeline]: load, solve and render with caching
//   - [cache]: memory, file and Redis caches
//   - [store]: run history in memory, on disk or in MongoDB
//   - [errors]: error codes shared by the CLI and the HTTP API
//   - [observability]: hooks for search, cache and HTTP events
//
// [taskgraph]: github.com/matzehuels/taskplan/pkg/taskgraph
// [schedule]: github.com/matzehuels/taskplan/pkg/schedule
// [search]: github.com/matzehuels/taskplan/pkg/search
// [pqueue]: github.com/matzehuels/taskplan/pkg/pqueue
// [io]: github.com/matzehuels/taskplan/pkg/io
// [render]: github.com/matzehuels/taskplan/pkg/render
// [pipeline]: github.com/matzehuels/taskplan/pkg/pipeline
// [cache]: github.com/matzehuels/taskplan/pkg/cache
// [store]: github.com/matzehuels/taskplan/pkg/store
// [errors]: github.com/matzehuels/taskplan/pkg/errors
// [observability]: github.com/matzehuels/taskplan/pkg/observability
package pkg
