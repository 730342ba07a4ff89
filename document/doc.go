// Package document decodes protocol documents: the YAML serialization of
// the parsed AST that parser front ends hand to the analysis core.
//
// The document format is a data model, not a surface syntax; the core
// still never parses protocol source text. Front ends, fixtures, and the
// inspect tool all exchange protocols in this form.
package document
