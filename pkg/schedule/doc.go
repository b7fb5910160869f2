// Package schedule provides the persistent partial schedule explored by the
// search drivers.
//
// # Overview
//
// A [Schedule] assigns a prefix of a task graph's tasks to (processor, start)
// pairs. Schedules are immutable: [Schedule.Extend] returns a new value that
// shares almost all of its storage with the receiver, so sibling search nodes
// can hold thousands of closely related schedules cheaply.
//
// # Lower Bounds
//
// Every schedule carries three lower bounds on the makespan of any complete
// schedule reachable from it:
//
//   - Bottom level: the largest start + bottom level among placed tasks.
//   - Data ready: the largest bottom level + earliest data-ready time among
//     frontier tasks.
//   - Load: ceil((total weight + accumulated idle time) / processors).
//
// [Schedule.Cost] is their maximum. Each bound never exceeds the true optimum,
// so neither does the cost. For a complete schedule the cost equals the
// makespan.
//
// # Processor Symmetry
//
// Processors are identical, so a schedule that has used k processors only
// ever tries processors 0..k (the k-th being the first empty one). The
// processor list grows lazily and [Schedule.Key] is invariant under
// relabelling of processors.
//
// # Contract
//
// Extend panics when asked to place a task that is not on the frontier or to
// use a processor outside 0..min(ProcessorsUsed(), P-1). These are
// programming errors in the caller, not recoverable conditions.
package schedule
