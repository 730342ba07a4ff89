// Package codemodel is the read-only view target-specific code generators
// consume.
//
// A Model is only ever built from a fully validated protocol, so generators
// may treat it as the single source of truth: it never exposes a
// non-deterministic or dead state. Role, state, and operation lookups are
// pure table reads, with no role logic executing, which keeps the projection
// inspectable and testable from any language binding.
//
// How strongly a target enforces the typestates is the generator's call,
// not the model's: the model describes the same automaton to every tier and
// Capability describes what a tier can guarantee.
package codemodel
