package ir

import (
	"strings"

	"github.com/sessao/session-core/ast"
)

// Protocol is the resolved intermediate representation of one protocol.
// It is built once per compile invocation and immutable afterwards.
type Protocol struct {
	Name       string
	Roles      []string
	Schemas    map[string]*Schema
	Types      map[string]*TypeDef
	Phases     map[string]*Phase
	PhaseOrder []string
	Start      string // name of the start phase
}

// HasRole reports whether name is a declared role.
func (p *Protocol) HasRole(name string) bool {
	for _, r := range p.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// Schema is a message schema: name plus ordered field list. Immutable once
// referenced by a step.
type Schema struct {
	Name   string
	Fields []Field
	// Observers are the roles that appear as sender or receiver of this
	// message anywhere in the protocol. Match discriminants on the message
	// are visible to exactly these roles.
	Observers []string
}

// Field returns the schema field with the given name, or nil.
func (s *Schema) Field(name string) *Field {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return &s.Fields[i]
		}
	}
	return nil
}

// TypeDef is a resolved named type definition.
type TypeDef struct {
	Name string
	Body ast.TypeBody
}

// Variants returns the variant names when the definition is an enum, nil
// otherwise.
func (t *TypeDef) Variants() []string {
	body, ok := t.Body.(*ast.EnumBody)
	if !ok {
		return nil
	}
	names := make([]string, len(body.Variants))
	for i, v := range body.Variants {
		names[i] = v.Name
	}
	return names
}

// Field is a resolved schema or struct field.
type Field struct {
	Name     string
	Type     ast.Type
	Optional bool
}

// Phase is a named scope containing an ordered step sequence.
type Phase struct {
	Name  string
	Steps []Step
}

// Channel is the channel kind of a message exchange.
type Channel uint8

const (
	Reliable Channel = iota
	Unreliable
)

func (c Channel) String() string {
	if c == Unreliable {
		return "unreliable"
	}
	return "reliable"
}

// Step is a single resolved protocol step.
type Step interface{ isStep() }

// SendStep is a message exchange with its effective channel kind.
type SendStep struct {
	From    string
	To      string
	Message string
	Channel Channel
}

// ChoiceStep is a branching point decided by one role.
type ChoiceStep struct {
	Role     string
	Branches []BranchStep
}

// BranchStep is one alternative of a choice.
type BranchStep struct {
	Name  string
	Guard *Guard
	Body  []Step
}

// MatchStep branches on a field of a previously exchanged message.
type MatchStep struct {
	Message string
	Field   string
	// Domain is the finite value domain of the discriminant when it has
	// one (bool or enum-typed fields); nil means the domain is open and a
	// default arm is required for exhaustiveness.
	Domain []string
	Arms   []ArmStep
}

// ArmStep is one case of a match. Default marks the "_" arm.
type ArmStep struct {
	Pattern string
	Default bool
	Body    []Step
}

// ContinueStep transfers control to a phase entry.
type ContinueStep struct {
	Target string
}

// EndStep terminates the protocol.
type EndStep struct{}

// ParallelStep interleaves independent sub-phases.
type ParallelStep struct {
	Phases []string
}

func (*SendStep) isStep()     {}
func (*ChoiceStep) isStep()   {}
func (*MatchStep) isStep()    {}
func (*ContinueStep) isStep() {}
func (*EndStep) isStep()      {}
func (*ParallelStep) isStep() {}

// Guard is an opaque predicate over role-local state. Atoms are keyed by
// (role, condition); a "!" prefix on the source condition denotes negation
// of the same atom. No further semantics are assigned: distinct atoms are
// independent and non-implying.
type Guard struct {
	Role    string
	Cond    string // condition with any leading "!" stripped
	Negated bool
}

// NewGuard normalizes an AST guard into its atom form.
func NewGuard(g *ast.Guard) *Guard {
	if g == nil {
		return nil
	}
	cond, negated := strings.CutPrefix(g.Condition, "!")
	return &Guard{Role: g.Role, Cond: cond, Negated: negated}
}

// Atom is the guard's satisfiability atom, "role.cond".
func (g *Guard) Atom() string {
	return g.Role + "." + g.Cond
}

// Excludes reports whether two guards can never hold together, which with
// opaque atoms is exactly the case of one negating the other.
func (g *Guard) Excludes(o *Guard) bool {
	return g != nil && o != nil && g.Atom() == o.Atom() && g.Negated != o.Negated
}

// String renders the guard in source form, "@Role.cond".
func (g *Guard) String() string {
	neg := ""
	if g.Negated {
		neg = "!"
	}
	return "@" + g.Role + "." + neg + g.Cond
}
