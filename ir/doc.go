// Package ir converts a parsed protocol AST into the typed intermediate
// representation the session graph is built from.
//
// Build resolves every name the AST uses (roles, type definitions, message
// schemas, match discriminants) and rejects malformed input with
// construction diagnostics before any graph analysis runs. After Build
// succeeds the IR is immutable; all later pipeline stages only read it.
//
// Channel kinds are resolved here: reliable/unreliable blocks in the AST are
// flattened away and each message exchange carries its effective channel.
package ir
