// Package ast defines the typed abstract syntax tree for Sessão protocol
// definitions.
//
// The AST is produced by an external parser front end (or decoded from a
// protocol document, see the document package) and consumed by the ir package.
// The analysis core never reads protocol source text; this package is the
// hand-off boundary.
//
// Statement and Type are closed interfaces: the set of implementations in
// this package is exhaustive and consumers dispatch with type switches.
package ast
