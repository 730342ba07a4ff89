package ir

import (
	"strings"

	"github.com/sessao/session-core/ast"
	"github.com/sessao/session-core/diag"
)

// Build resolves a parsed protocol AST into the IR. Malformed input aborts
// with construction diagnostics; all defects found are reported together.
func Build(src *ast.Protocol) (*Protocol, error) {
	b := &builder{
		proto: &Protocol{
			Name:    src.Name,
			Schemas: make(map[string]*Schema),
			Types:   make(map[string]*TypeDef),
			Phases:  make(map[string]*Phase),
		},
	}

	b.collectRoles(src)
	b.collectTypes(src)
	b.collectSchemas(src)
	b.buildPhases(src)

	if len(b.diags) > 0 {
		return nil, b.diags
	}
	return b.proto, nil
}

type builder struct {
	proto *Protocol
	diags diag.List
}

func (b *builder) report(code diag.Code, path []string, format string, args ...any) {
	b.diags = append(b.diags, diag.New(diag.PassConstruct, code).
		Path(path...).
		Detail(format, args...).
		Build())
}

func (b *builder) collectRoles(src *ast.Protocol) {
	for _, r := range src.Roles {
		if b.proto.HasRole(r.Name) {
			b.report(diag.DuplicateDefinition, nil, "role %q declared twice", r.Name)
			continue
		}
		b.proto.Roles = append(b.proto.Roles, r.Name)
	}
}

func (b *builder) collectTypes(src *ast.Protocol) {
	for _, t := range src.Types {
		if _, dup := b.proto.Types[t.Name]; dup {
			b.report(diag.DuplicateDefinition, nil, "type %q declared twice", t.Name)
			continue
		}
		b.proto.Types[t.Name] = &TypeDef{Name: t.Name, Body: t.Body}
	}

	// Named references must resolve now that the table is complete.
	for _, t := range src.Types {
		switch body := t.Body.(type) {
		case *ast.StructBody:
			b.checkFields(body.Fields, []string{"type " + t.Name})
		case *ast.EnumBody:
			for _, v := range body.Variants {
				b.checkFields(v.Fields, []string{"type " + t.Name, "variant " + v.Name})
			}
		case *ast.AliasBody:
			b.checkType(body.Type, []string{"type " + t.Name})
		}
	}
}

func (b *builder) checkFields(fields []ast.Field, path []string) {
	for _, f := range fields {
		b.checkType(f.Type, append(path, f.Name))
	}
}

func (b *builder) checkType(t ast.Type, path []string) {
	switch ty := t.(type) {
	case ast.Primitive:
	case ast.Array:
		b.checkType(ty.Elem, path)
	case ast.Map:
		b.checkType(ty.Key, path)
		b.checkType(ty.Value, path)
	case ast.Optional:
		b.checkType(ty.Elem, path)
	case ast.Named:
		if _, ok := b.proto.Types[ty.Name]; !ok {
			b.report(diag.UndefinedTypeReference, path, "type %q is not defined", ty.Name)
		}
	}
}

// collectSchemas walks every send statement in the protocol. The first send
// carrying inline fields fixes the message schema; a struct type definition
// with the message's name serves the same purpose. Schemas are immutable
// once established: a later conflicting inline definition is a type error.
func (b *builder) collectSchemas(src *ast.Protocol) {
	for _, ph := range src.Phases {
		b.walkSends(ph.Body, []string{"phase " + ph.Name})
	}
}

func (b *builder) walkSends(stmts []ast.Statement, path []string) {
	for _, st := range stmts {
		switch s := st.(type) {
		case *ast.Send:
			b.recordSend(s, path)
		case *ast.Choice:
			for _, br := range s.Branches {
				b.walkSends(br.Body, append(path, "choice "+br.Name))
			}
		case *ast.Match:
			for _, arm := range s.Arms {
				b.walkSends(arm.Body, append(path, "match "+arm.Pattern))
			}
		case *ast.Reliable:
			b.walkSends(s.Body, path)
		case *ast.Unreliable:
			b.walkSends(s.Body, path)
		}
	}
}

func (b *builder) recordSend(s *ast.Send, path []string) {
	schema := b.proto.Schemas[s.Message]
	if schema == nil {
		schema = &Schema{Name: s.Message}
		if def, ok := b.proto.Types[s.Message]; ok {
			if body, ok := def.Body.(*ast.StructBody); ok {
				schema.Fields = convertFields(body.Fields)
			}
		}
		b.proto.Schemas[s.Message] = schema
		if len(s.Fields) > 0 {
			if len(schema.Fields) == 0 {
				schema.Fields = convertFields(s.Fields)
				b.checkFields(s.Fields, append(path, s.Message))
			} else if !fieldsEqual(schema.Fields, convertFields(s.Fields)) {
				b.report(diag.TypeError, path,
					"message %q redefines fields of declared type %q", s.Message, s.Message)
			}
		}
	} else if len(s.Fields) > 0 && !fieldsEqual(schema.Fields, convertFields(s.Fields)) {
		b.report(diag.TypeError, path,
			"message %q conflicts with its earlier schema", s.Message)
	}

	schema.addObserver(s.From)
	schema.addObserver(s.To)
}

func (s *Schema) addObserver(role string) {
	for _, o := range s.Observers {
		if o == role {
			return
		}
	}
	s.Observers = append(s.Observers, role)
}

func convertFields(fields []ast.Field) []Field {
	out := make([]Field, len(fields))
	for i, f := range fields {
		out[i] = Field{Name: f.Name, Type: f.Type, Optional: f.Optional}
	}
	return out
}

func fieldsEqual(a, b []Field) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || a[i].Optional != b[i].Optional || !typeEqual(a[i].Type, b[i].Type) {
			return false
		}
	}
	return true
}

func typeEqual(a, b ast.Type) bool {
	switch at := a.(type) {
	case ast.Primitive:
		bt, ok := b.(ast.Primitive)
		return ok && at.Kind == bt.Kind
	case ast.Array:
		bt, ok := b.(ast.Array)
		return ok && typeEqual(at.Elem, bt.Elem)
	case ast.Map:
		bt, ok := b.(ast.Map)
		return ok && typeEqual(at.Key, bt.Key) && typeEqual(at.Value, bt.Value)
	case ast.Optional:
		bt, ok := b.(ast.Optional)
		return ok && typeEqual(at.Elem, bt.Elem)
	case ast.Named:
		bt, ok := b.(ast.Named)
		return ok && at.Name == bt.Name
	}
	return false
}

func (b *builder) buildPhases(src *ast.Protocol) {
	if len(src.Phases) == 0 {
		b.report(diag.TypeError, nil, "protocol %q declares no phases", src.Name)
		return
	}
	b.proto.Start = src.Phases[0].Name

	for _, ph := range src.Phases {
		if _, dup := b.proto.Phases[ph.Name]; dup {
			b.report(diag.DuplicateDefinition, nil, "phase %q declared twice", ph.Name)
			continue
		}
		phase := &Phase{Name: ph.Name}
		phase.Steps = b.buildSteps(ph.Body, Reliable, []string{"phase " + ph.Name})
		b.proto.Phases[ph.Name] = phase
		b.proto.PhaseOrder = append(b.proto.PhaseOrder, ph.Name)
	}
}

func (b *builder) buildSteps(stmts []ast.Statement, ch Channel, path []string) []Step {
	var steps []Step
	for _, st := range stmts {
		switch s := st.(type) {
		case *ast.Send:
			b.requireRole(s.From, path)
			b.requireRole(s.To, path)
			steps = append(steps, &SendStep{From: s.From, To: s.To, Message: s.Message, Channel: ch})

		case *ast.Choice:
			b.requireRole(s.Role, path)
			step := &ChoiceStep{Role: s.Role}
			seen := make(map[string]bool)
			for _, br := range s.Branches {
				if seen[br.Name] {
					b.report(diag.DuplicateDefinition, path, "choice branch %q declared twice", br.Name)
					continue
				}
				seen[br.Name] = true
				if br.Guard != nil {
					b.requireRole(br.Guard.Role, append(path, "choice "+br.Name))
				}
				step.Branches = append(step.Branches, BranchStep{
					Name:  br.Name,
					Guard: NewGuard(br.Guard),
					Body:  b.buildSteps(br.Body, ch, append(path, "choice "+br.Name)),
				})
			}
			steps = append(steps, step)

		case *ast.Match:
			steps = append(steps, b.buildMatch(s, ch, path))

		case *ast.Continue:
			steps = append(steps, &ContinueStep{Target: s.Target})

		case *ast.End:
			steps = append(steps, &EndStep{})

		case *ast.Parallel:
			steps = append(steps, &ParallelStep{Phases: s.Branches})

		case *ast.Reliable:
			steps = append(steps, b.buildSteps(s.Body, Reliable, path)...)

		case *ast.Unreliable:
			steps = append(steps, b.buildSteps(s.Body, Unreliable, path)...)
		}
	}
	return steps
}

func (b *builder) requireRole(name string, path []string) {
	if !b.proto.HasRole(name) {
		b.report(diag.UndefinedRoleReference, path, "role %q is not declared", name)
	}
}

func (b *builder) buildMatch(s *ast.Match, ch Channel, path []string) *MatchStep {
	step := &MatchStep{}

	msg, field, ok := strings.Cut(s.Expr, ".")
	if !ok {
		b.report(diag.TypeError, path, "match expression %q is not of the form Message.field", s.Expr)
	} else {
		step.Message = msg
		step.Field = field
		schema := b.proto.Schemas[msg]
		if schema == nil {
			b.report(diag.TypeError, path, "match discriminates %q, which is never exchanged", msg)
		} else if f := schema.Field(field); f == nil {
			b.report(diag.TypeError, path, "message %q has no field %q", msg, field)
		} else {
			step.Domain = b.domainOf(f.Type)
		}
	}

	for _, arm := range s.Arms {
		step.Arms = append(step.Arms, ArmStep{
			Pattern: arm.Pattern,
			Default: arm.Pattern == "_",
			Body:    b.buildSteps(arm.Body, ch, append(path, "match "+arm.Pattern)),
		})
	}
	return step
}

// domainOf returns the finite value domain of a discriminant type. Aliases
// are followed; bool and enum types are finite, everything else is open.
func (b *builder) domainOf(t ast.Type) []string {
	for i := 0; i < 16; i++ { // alias chains terminate or give up
		switch ty := t.(type) {
		case ast.Primitive:
			if ty.Kind == ast.Bool {
				return []string{"false", "true"}
			}
			return nil
		case ast.Named:
			def, ok := b.proto.Types[ty.Name]
			if !ok {
				return nil
			}
			switch body := def.Body.(type) {
			case *ast.EnumBody:
				return def.Variants()
			case *ast.AliasBody:
				t = body.Type
			default:
				return nil
			}
		default:
			return nil
		}
	}
	return nil
}
