// Package graph validates a pipeline's dependency structure and orders
// its stages for execution.
//
// Construction validates everything up front: duplicate names, unknown
// or self dependencies, and cycles are all collected and reported in a
// single error, so a manifest author sees every problem in one pass.
//
// Ordering is deterministic. Stages keep their declaration order, and
// both Levels and the Walker list stages in declaration order, so the
// same pipeline always produces the same plan.
package graph
