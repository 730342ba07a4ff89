package ast

// Span locates a node in the original protocol source as a half-open byte
// range. Parsers that do not track positions leave it zero.
type Span struct {
	Start int
	End   int
}

// Protocol is a complete protocol definition: declared roles, named type
// definitions, and an ordered list of phases. The first phase is the start
// phase.
type Protocol struct {
	Name   string
	Span   Span
	Roles  []Role
	Types  []TypeDef
	Phases []Phase
}

// Role is a protocol participant (e.g. Client, Server). Roles are symmetric
// peers; declaration order is preserved but carries no privilege.
type Role struct {
	Name string
	Span Span
}

// TypeDef is a named type definition.
type TypeDef struct {
	Name string
	Span Span
	Body TypeBody
}

// TypeBody is the body of a type definition: struct, enum, or alias.
type TypeBody interface{ isTypeBody() }

// StructBody defines a struct with named fields.
type StructBody struct {
	Fields []Field
}

// EnumBody defines an enum with named variants.
type EnumBody struct {
	Variants []EnumVariant
}

// AliasBody aliases another type expression.
type AliasBody struct {
	Type Type
}

func (StructBody) isTypeBody() {}
func (EnumBody) isTypeBody()   {}
func (AliasBody) isTypeBody()  {}

// Field is a field in a struct or message schema.
type Field struct {
	Name     string
	Span     Span
	Type     Type
	Optional bool
}

// EnumVariant is a variant of an enum type, optionally carrying payload
// fields.
type EnumVariant struct {
	Name   string
	Span   Span
	Fields []Field
}

// Phase is a named scope containing an ordered sequence of statements.
type Phase struct {
	Name string
	Span Span
	Body []Statement
}

// Statement is a single step inside a phase body.
type Statement interface {
	isStatement()
	Pos() Span
}

// Send is a message exchange: From -> To: Message { fields }.
// Fields define the message schema inline on first use; later sends of the
// same message may omit them to reference the established schema.
type Send struct {
	Span    Span
	From    string
	To      string
	Message string
	Fields  []Field
}

// Choice is a branching point decided by one role: choice @Role { ... }.
type Choice struct {
	Span     Span
	Role     string
	Branches []Branch
}

// Branch is one named alternative of a Choice, optionally guarded.
type Branch struct {
	Name  string
	Span  Span
	Guard *Guard
	Body  []Statement
}

// Guard is an opaque boolean predicate over role-local state, written
// @Role.condition. A leading "!" on Condition denotes negation; beyond that
// the core assigns guards no semantics.
type Guard struct {
	Span      Span
	Role      string
	Condition string
}

// Match branches on a message field value already known to every role that
// observed the message: match Message.field { ... }.
type Match struct {
	Span Span
	Expr string // "Message.field"
	Arms []Arm
}

// Arm is one case of a Match. The pattern "_" is the default arm.
type Arm struct {
	Pattern string
	Span    Span
	Body    []Statement
}

// Continue transfers control to the entry of another phase (or back to the
// current one, forming a loop).
type Continue struct {
	Span   Span
	Target string
}

// End terminates the protocol.
type End struct {
	Span Span
}

// Parallel composes sub-phases that interleave independently; the enclosing
// phase resumes when all of them complete.
type Parallel struct {
	Span     Span
	Branches []string // phase names
}

// Reliable marks the enclosed statements as exchanged over a reliable,
// ordered channel. This is the default; the block exists to re-establish it
// inside an Unreliable block.
type Reliable struct {
	Span Span
	Body []Statement
}

// Unreliable marks the enclosed statements as exchanged over an unreliable
// channel: no delivery or ordering guarantee, and never gating progress of
// the reliable state machine.
type Unreliable struct {
	Span Span
	Body []Statement
}

func (s *Send) isStatement()       {}
func (s *Choice) isStatement()     {}
func (s *Match) isStatement()      {}
func (s *Continue) isStatement()   {}
func (s *End) isStatement()        {}
func (s *Parallel) isStatement()   {}
func (s *Reliable) isStatement()   {}
func (s *Unreliable) isStatement() {}

func (s *Send) Pos() Span       { return s.Span }
func (s *Choice) Pos() Span     { return s.Span }
func (s *Match) Pos() Span      { return s.Span }
func (s *Continue) Pos() Span   { return s.Span }
func (s *End) Pos() Span        { return s.Span }
func (s *Parallel) Pos() Span   { return s.Span }
func (s *Reliable) Pos() Span   { return s.Span }
func (s *Unreliable) Pos() Span { return s.Span }
