package document

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sessao/session-core/ast"
)

// Decode parses a YAML protocol document into the AST.
func Decode(data []byte) (*ast.Protocol, error) {
	var doc protocolDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode protocol document: %w", err)
	}
	return doc.convert()
}

type protocolDoc struct {
	Protocol string     `yaml:"protocol"`
	Roles    []string   `yaml:"roles"`
	Types    []typeDef  `yaml:"types"`
	Phases   []phaseDoc `yaml:"phases"`
}

type typeDef struct {
	Name   string     `yaml:"name"`
	Struct []fieldDoc `yaml:"struct"`
	Enum   []string   `yaml:"enum"`
	Alias  *typeDoc   `yaml:"alias"`
}

type fieldDoc struct {
	Name     string  `yaml:"name"`
	Type     typeDoc `yaml:"type"`
	Optional bool    `yaml:"optional"`
}

type typeDoc struct {
	Prim     string   `yaml:"prim"`
	Array    *typeDoc `yaml:"array"`
	Map      *mapDoc  `yaml:"map"`
	Optional *typeDoc `yaml:"optional"`
	Named    string   `yaml:"named"`
}

type mapDoc struct {
	Key   typeDoc `yaml:"key"`
	Value typeDoc `yaml:"value"`
}

type phaseDoc struct {
	Name string    `yaml:"name"`
	Body []stmtDoc `yaml:"body"`
}

type stmtDoc struct {
	Send       *sendDoc   `yaml:"send"`
	Choice     *choiceDoc `yaml:"choice"`
	Match      *matchDoc  `yaml:"match"`
	Continue   string     `yaml:"continue"`
	End        bool       `yaml:"end"`
	Parallel   []string   `yaml:"parallel"`
	Reliable   []stmtDoc  `yaml:"reliable"`
	Unreliable []stmtDoc  `yaml:"unreliable"`
}

type sendDoc struct {
	From    string     `yaml:"from"`
	To      string     `yaml:"to"`
	Message string     `yaml:"message"`
	Fields  []fieldDoc `yaml:"fields"`
}

type choiceDoc struct {
	Role     string      `yaml:"role"`
	Branches []branchDoc `yaml:"branches"`
}

type branchDoc struct {
	Name  string    `yaml:"name"`
	Guard string    `yaml:"guard"`
	Body  []stmtDoc `yaml:"body"`
}

type matchDoc struct {
	On   string   `yaml:"on"`
	Arms []armDoc `yaml:"arms"`
}

type armDoc struct {
	Case string    `yaml:"case"`
	Body []stmtDoc `yaml:"body"`
}

func (d *protocolDoc) convert() (*ast.Protocol, error) {
	p := &ast.Protocol{Name: d.Protocol}
	for _, r := range d.Roles {
		p.Roles = append(p.Roles, ast.Role{Name: r})
	}
	for _, t := range d.Types {
		def, err := t.convert()
		if err != nil {
			return nil, err
		}
		p.Types = append(p.Types, def)
	}
	for _, ph := range d.Phases {
		body, err := convertStmts(ph.Body)
		if err != nil {
			return nil, fmt.Errorf("phase %q: %w", ph.Name, err)
		}
		p.Phases = append(p.Phases, ast.Phase{Name: ph.Name, Body: body})
	}
	return p, nil
}

func (t *typeDef) convert() (ast.TypeDef, error) {
	def := ast.TypeDef{Name: t.Name}
	switch {
	case t.Struct != nil:
		fields, err := convertFields(t.Struct)
		if err != nil {
			return def, fmt.Errorf("type %q: %w", t.Name, err)
		}
		def.Body = &ast.StructBody{Fields: fields}
	case t.Enum != nil:
		body := &ast.EnumBody{}
		for _, v := range t.Enum {
			body.Variants = append(body.Variants, ast.EnumVariant{Name: v})
		}
		def.Body = body
	case t.Alias != nil:
		ty, err := t.Alias.convert()
		if err != nil {
			return def, fmt.Errorf("type %q: %w", t.Name, err)
		}
		def.Body = &ast.AliasBody{Type: ty}
	default:
		return def, fmt.Errorf("type %q has no struct, enum, or alias body", t.Name)
	}
	return def, nil
}

func convertFields(docs []fieldDoc) ([]ast.Field, error) {
	var out []ast.Field
	for _, f := range docs {
		ty, err := f.Type.convert()
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		out = append(out, ast.Field{Name: f.Name, Type: ty, Optional: f.Optional})
	}
	return out, nil
}

func (t *typeDoc) convert() (ast.Type, error) {
	switch {
	case t.Prim != "":
		kind, ok := ast.PrimitiveByName(t.Prim)
		if !ok {
			return nil, fmt.Errorf("unknown primitive %q", t.Prim)
		}
		return ast.Primitive{Kind: kind}, nil
	case t.Array != nil:
		elem, err := t.Array.convert()
		if err != nil {
			return nil, err
		}
		return ast.Array{Elem: elem}, nil
	case t.Map != nil:
		key, err := t.Map.Key.convert()
		if err != nil {
			return nil, err
		}
		value, err := t.Map.Value.convert()
		if err != nil {
			return nil, err
		}
		return ast.Map{Key: key, Value: value}, nil
	case t.Optional != nil:
		elem, err := t.Optional.convert()
		if err != nil {
			return nil, err
		}
		return ast.Optional{Elem: elem}, nil
	case t.Named != "":
		return ast.Named{Name: t.Named}, nil
	}
	return nil, fmt.Errorf("empty type expression")
}

func convertStmts(docs []stmtDoc) ([]ast.Statement, error) {
	var out []ast.Statement
	for i := range docs {
		st, err := docs[i].convert()
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

func (d *stmtDoc) convert() (ast.Statement, error) {
	switch {
	case d.Send != nil:
		fields, err := convertFields(d.Send.Fields)
		if err != nil {
			return nil, fmt.Errorf("message %q: %w", d.Send.Message, err)
		}
		return &ast.Send{From: d.Send.From, To: d.Send.To, Message: d.Send.Message, Fields: fields}, nil

	case d.Choice != nil:
		choice := &ast.Choice{Role: d.Choice.Role}
		for _, br := range d.Choice.Branches {
			body, err := convertStmts(br.Body)
			if err != nil {
				return nil, fmt.Errorf("branch %q: %w", br.Name, err)
			}
			guard, err := parseGuard(br.Guard)
			if err != nil {
				return nil, fmt.Errorf("branch %q: %w", br.Name, err)
			}
			choice.Branches = append(choice.Branches, ast.Branch{Name: br.Name, Guard: guard, Body: body})
		}
		return choice, nil

	case d.Match != nil:
		match := &ast.Match{Expr: d.Match.On}
		for _, arm := range d.Match.Arms {
			body, err := convertStmts(arm.Body)
			if err != nil {
				return nil, fmt.Errorf("case %q: %w", arm.Case, err)
			}
			match.Arms = append(match.Arms, ast.Arm{Pattern: arm.Case, Body: body})
		}
		return match, nil

	case d.Continue != "":
		return &ast.Continue{Target: d.Continue}, nil

	case d.End:
		return &ast.End{}, nil

	case d.Parallel != nil:
		return &ast.Parallel{Branches: d.Parallel}, nil

	case d.Reliable != nil:
		body, err := convertStmts(d.Reliable)
		if err != nil {
			return nil, err
		}
		return &ast.Reliable{Body: body}, nil

	case d.Unreliable != nil:
		body, err := convertStmts(d.Unreliable)
		if err != nil {
			return nil, err
		}
		return &ast.Unreliable{Body: body}, nil
	}
	return nil, fmt.Errorf("statement has no recognized form")
}

// parseGuard splits the "@Role.condition" document form. A leading "!"
// inside the condition is preserved; the ir package normalizes it.
func parseGuard(s string) (*ast.Guard, error) {
	if s == "" {
		return nil, nil
	}
	body, ok := strings.CutPrefix(s, "@")
	if !ok {
		return nil, fmt.Errorf("guard %q must start with @", s)
	}
	role, cond, ok := strings.Cut(body, ".")
	if !ok || role == "" || cond == "" {
		return nil, fmt.Errorf("guard %q must be of the form @Role.condition", s)
	}
	return &ast.Guard{Role: role, Condition: cond}, nil
}
