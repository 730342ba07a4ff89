package diag

import (
	"fmt"
	"strings"
)

// Pass identifies the analysis that produced a diagnostic.
type Pass string

const (
	PassConstruct   Pass = "construct"   // IR building and graph construction
	PassDeterminism Pass = "determinism" // ambiguity and exhaustiveness
	PassDeadlock    Pass = "deadlock"    // guard-excluded progress
	PassLiveness    Pass = "liveness"    // terminal reachability
	PassDuality     Pass = "duality"     // send/receive pairing across roles
)

// Code categorizes the defect.
type Code string

const (
	AmbiguousTransition     Code = "ambiguous_transition"
	DeadlockRisk            Code = "deadlock_risk"
	NonTerminatingTrap      Code = "non_terminating_trap"
	DualityMismatch         Code = "duality_mismatch"
	UndefinedPhaseReference Code = "undefined_phase_reference"

	// Construction-only codes.
	UndefinedRoleReference Code = "undefined_role_reference"
	UndefinedTypeReference Code = "undefined_type_reference"
	DuplicateDefinition    Code = "duplicate_definition"
	TypeError              Code = "type_error"
)

// NoNode marks a diagnostic with no associated session graph node.
const NoNode = -1

// Diagnostic is the structured finding type used throughout the core.
type Diagnostic struct {
	Pass     Pass
	Code     Code
	Node     int      // session graph node id, or NoNode
	Path     []string // human-readable path from the start node
	Expected []string // expected transition set, where the pass computes one
	Actual   []string // actual transition set
	Detail   string
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(d.Pass))
	b.WriteString("] ")
	b.WriteString(string(d.Code))

	if d.Node != NoNode {
		fmt.Fprintf(&b, " at node %d", d.Node)
	}

	if len(d.Path) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(d.Path, " / "))
		b.WriteByte(')')
	}

	if d.Detail != "" {
		b.WriteString(": ")
		b.WriteString(d.Detail)
	}

	if len(d.Expected) > 0 || len(d.Actual) > 0 {
		b.WriteString(" (expected {")
		b.WriteString(strings.Join(d.Expected, ", "))
		b.WriteString("}, actual {")
		b.WriteString(strings.Join(d.Actual, ", "))
		b.WriteString("})")
	}

	return b.String()
}

// Is reports whether target matches this diagnostic by (Pass, Code).
func (d *Diagnostic) Is(target error) bool {
	if t, ok := target.(*Diagnostic); ok {
		return d.Pass == t.Pass && d.Code == t.Code
	}
	return false
}

// Builder assembles a Diagnostic.
type Builder struct {
	d Diagnostic
}

// New starts a diagnostic for the given pass and code.
func New(pass Pass, code Code) *Builder {
	return &Builder{d: Diagnostic{Pass: pass, Code: code, Node: NoNode}}
}

// Node records the offending session graph node.
func (b *Builder) Node(id int) *Builder {
	b.d.Node = id
	return b
}

// Path records the human-readable path from the start node. The slice is
// copied: callers assemble paths by appending to shared prefixes, and the
// stored diagnostic must not alias their backing arrays.
func (b *Builder) Path(path ...string) *Builder {
	b.d.Path = append([]string(nil), path...)
	return b
}

// Expected records the expected transition set.
func (b *Builder) Expected(set ...string) *Builder {
	b.d.Expected = set
	return b
}

// Actual records the actual transition set.
func (b *Builder) Actual(set ...string) *Builder {
	b.d.Actual = set
	return b
}

// Detail sets the human-readable message. Arguments are formatted with
// fmt.Sprintf when present.
func (b *Builder) Detail(format string, args ...any) *Builder {
	if len(args) == 0 {
		b.d.Detail = format
	} else {
		b.d.Detail = fmt.Sprintf(format, args...)
	}
	return b
}

// Build returns the assembled diagnostic.
func (b *Builder) Build() *Diagnostic {
	d := b.d
	return &d
}
