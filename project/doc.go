// Package project derives each role's local typestate automaton from the
// session graph.
//
// Two global nodes collapse into one local state when the role cannot tell
// them apart: it has observed the same history of messages involving it and
// has the same local actions available. The derivation is a subset
// construction over the edges invisible to the role (other roles' messages,
// choices the role does not decide, silent control flow), followed by a
// fixpoint that unions overlapping closures so every global node maps to
// exactly one local state.
//
// Each local state carries the exact set of legal operations (sends,
// receives, branch selections, match observations) and the transition each
// operation fires. Channel closure is a distinguished transition into the
// Closed terminal state, never a silent hang; unreliable exchanges are
// marked non-blocking and never gate progress.
package project
