// Package sessao validates Sessão protocol definitions and derives per-role
// typestate automata from them.
//
// The library takes an already-parsed protocol AST, proves the protocol
// deadlock-free, live, deterministic, and dual-consistent, and exposes one
// projection per role through a language-agnostic code model that target
// generators render as typestate-gated, tagged-variant, or runtime-checked
// implementations.
//
// # Architecture Overview
//
// The library is organized as a strict pipeline; no package calls back into
// an earlier stage:
//
//	sessao/          Root package with the Compile entry point
//	├── ast/         Typed AST handed over by the external parser
//	├── ir/          AST to typed IR: schema and name resolution
//	├── graph/       Session graph construction (choices, loops, parallel)
//	├── validate/    Determinism, deadlock, liveness, duality passes
//	├── project/     Per-role typestate projection
//	├── codemodel/   Read-only view consumed by code generators
//	├── diag/        Structured diagnostics
//	├── document/    YAML protocol documents (serialized AST)
//	└── render/      Mermaid rendering for inspection and docs
//
// # Quick Start
//
// Compile a protocol and inspect a role's state machine:
//
//	res, err := sessao.Compile(proto)
//	if err != nil {
//	    for _, d := range res.Diagnostics {
//	        fmt.Println(d)
//	    }
//	    return err
//	}
//
//	states, _ := res.Model.StatesFor("Client")
//	ops, _ := res.Model.OperationsAt("Client", states[0])
//
// Compilation is pure and deterministic: re-running on the same input
// yields the same result, and no state is held across invocations.
// Distinct protocols may be compiled concurrently; a single Result is
// immutable and safe to share once returned.
package sessao
