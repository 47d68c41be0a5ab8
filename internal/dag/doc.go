// Package dag builds the task graph of the pipeline: one task per asset
// group, plus an optional synthetic clean task that precedes every writer.
//
// Edges encode "must finish before". A task depends on another when one of
// its source or watch globs reads inside the other's destination directory,
// when it lists the other in depends_on, or when both write the same output
// file (forced into declaration order). Cycles are detected with Kahn's
// algorithm and reported as a *CycleError carrying a deterministic witness.
//
// The graph is immutable once Build returns.
package dag
