// Package diag provides structured diagnostics for protocol analysis.
//
// Every diagnostic is categorized by Pass (which analysis produced it) and
// Code (what kind of defect it names), and carries the offending session
// graph node, a human-readable path from the start node, and expected/actual
// transition sets where the pass computes them.
//
// Use the Builder for structured construction:
//
//	d := diag.New(diag.PassDeterminism, diag.AmbiguousTransition).
//		Node(n).
//		Path("Main", "choice accept").
//		Detail("branches %q and %q are both always enabled", a, b).
//		Build()
//
// Diagnostics implement the error interface and support errors.Is matching
// on (Pass, Code). A List aggregates the diagnostics of one compile
// invocation and is itself an error.
package diag
