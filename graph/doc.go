// Package graph builds the session graph: the single directed graph of
// joint protocol states whose labeled edges encode every message exchange,
// choice, match, loop, and parallel interleaving of a protocol.
//
// Nodes and edges live in an arena addressed by integer ids, never as nested
// owned structures: continue statements make the graph cyclic, and all
// traversal runs over the index space with explicit visited sets.
//
// Parallel composition is expanded here into its interleaving closure: the
// product automaton of the sub-phase graphs, with a shared join once every
// sub-automaton has reached its local terminal. Validation downstream is
// therefore a plain single-threaded graph computation.
package graph
