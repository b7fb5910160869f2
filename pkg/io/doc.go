// Package io reads task graphs and writes schedules.
//
// # Overview
//
// Two input formats are supported:
//
//   - Graphviz DOT, the native format. Nodes and edges carry an integer
//     Weight attribute for task duration and communication cost.
//   - A small JSON format with "tasks" and "edges" arrays, convenient for
//     programs that generate graphs.
//
// # DOT Format
//
//	digraph "example" {
//	    a [Weight=2];
//	    b [Weight=3];
//	    c [Weight=3];
//	    d [Weight=2];
//	    a -> b [Weight=1];
//	    a -> c [Weight=2];
//	    b -> d [Weight=2];
//	    c -> d [Weight=1];
//	}
//
// DOT files are parsed with Graphviz itself (via go-graphviz), so any valid
// digraph syntax is accepted. Tasks are numbered in declaration order.
//
// # Output
//
// [WriteDOT] writes the input graph back with Start and Processor attributes
// added to every scheduled node, so the output is itself a valid input.
// [WriteSolution] writes the schedule as JSON.
//
// # Errors
//
// Parse failures carry code INVALID_FORMAT and structural problems
// (missing weights, unknown endpoints, cycles) carry INVALID_GRAPH. Missing
// files carry FILE_NOT_FOUND. Use errors.Is from pkg/errors to test them.
package io
