// Package validate runs the four analyses that make a session graph a
// proof: determinism, deadlock-freedom, liveness, and duality.
//
// The passes are independent and all of them run on every invocation;
// cheap structural checks come first so the common failures surface fast.
// Each pass collects its findings exhaustively (a user sees every
// determinism conflict in one run) and reports structured diagnostics
// carrying the offending node, a readable path from the start node, and the
// expected versus actual transition sets where that is meaningful.
//
// Guards are opaque atoms: two guards are related only when they name the
// same (role, condition) atom, and mutually exclusive only when one negates
// the other. No cross-guard implication is ever assumed.
package validate
