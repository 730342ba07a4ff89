package validate

import (
	"testing"

	"github.com/sessao/session-core/ast"
	"github.com/sessao/session-core/diag"
	"github.com/sessao/session-core/graph"
	"github.com/sessao/session-core/ir"
)

func buildGraph(t *testing.T, proto *ast.Protocol) *graph.Graph {
	t.Helper()
	p, err := ir.Build(proto)
	if err != nil {
		t.Fatalf("ir.Build() error: %v", err)
	}
	g, err := graph.Build(p)
	if err != nil {
		t.Fatalf("graph.Build() error: %v", err)
	}
	return g
}

func protocol(roles []string, phases ...ast.Phase) *ast.Protocol {
	p := &ast.Protocol{Name: "P", Phases: phases}
	for _, r := range roles {
		p.Roles = append(p.Roles, ast.Role{Name: r})
	}
	return p
}

func guard(cond string) *ast.Guard {
	return &ast.Guard{Role: "A", Condition: cond}
}

func choice(branches ...ast.Branch) *ast.Choice {
	return &ast.Choice{Role: "A", Branches: branches}
}

func branch(name string, g *ast.Guard, body ...ast.Statement) ast.Branch {
	return ast.Branch{Name: name, Guard: g, Body: body}
}

func send(from, to, msg string) *ast.Send {
	return &ast.Send{From: from, To: to, Message: msg}
}

func TestCleanProtocol(t *testing.T) {
	g := buildGraph(t, protocol([]string{"A", "B"}, ast.Phase{
		Name: "Main",
		Body: []ast.Statement{
			send("A", "B", "Ping"),
			send("B", "A", "Pong"),
			&ast.End{},
		},
	}))
	if diags := Run(g); len(diags) != 0 {
		t.Errorf("clean protocol produced diagnostics: %v", diags)
	}
}

func TestChoiceDeterminism(t *testing.T) {
	tests := []struct {
		name  string
		stmt  ast.Statement
		codes []diag.Code
	}{
		{
			name: "two unguarded branches",
			stmt: choice(
				branch("a", nil, send("A", "B", "X"), &ast.End{}),
				branch("b", nil, send("A", "B", "Y"), &ast.End{}),
			),
			codes: []diag.Code{diag.AmbiguousTransition},
		},
		{
			name: "same atom twice",
			stmt: choice(
				branch("a", guard("go"), send("A", "B", "X"), &ast.End{}),
				branch("b", guard("go"), send("A", "B", "Y"), &ast.End{}),
			),
			codes: []diag.Code{diag.AmbiguousTransition, diag.DeadlockRisk},
		},
		{
			name: "independent atoms",
			stmt: choice(
				branch("a", guard("fast"), send("A", "B", "X"), &ast.End{}),
				branch("b", guard("safe"), send("A", "B", "Y"), &ast.End{}),
			),
			codes: []diag.Code{diag.AmbiguousTransition, diag.DeadlockRisk},
		},
		{
			name: "complementary pair is deterministic",
			stmt: choice(
				branch("a", guard("go"), send("A", "B", "X"), &ast.End{}),
				branch("b", guard("!go"), send("A", "B", "Y"), &ast.End{}),
			),
		},
		{
			name: "guard plus unguarded default",
			stmt: choice(
				branch("a", guard("go"), send("A", "B", "X"), &ast.End{}),
				branch("b", nil, send("A", "B", "Y"), &ast.End{}),
			),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := buildGraph(t, protocol([]string{"A", "B"}, ast.Phase{
				Name: "Main",
				Body: []ast.Statement{tc.stmt},
			}))
			diags := Run(g)
			if len(tc.codes) == 0 && len(diags) != 0 {
				t.Fatalf("unexpected diagnostics: %v", diags)
			}
			for _, code := range tc.codes {
				if !diags.Has(code) {
					t.Errorf("diagnostics %v missing %s", diags, code)
				}
			}
		})
	}
}

func TestAmbiguousMessages(t *testing.T) {
	// Same sender and receiver racing two different unconditional messages.
	g := buildGraph(t, protocol([]string{"A", "B", "C"},
		ast.Phase{
			Name: "Main",
			Body: []ast.Statement{
				&ast.Parallel{Branches: []string{"L", "R"}},
				&ast.End{},
			},
		},
		ast.Phase{Name: "L", Body: []ast.Statement{send("A", "B", "X")}},
		ast.Phase{Name: "R", Body: []ast.Statement{send("A", "B", "Y")}},
	))
	diags := Run(g)
	if !diags.Has(diag.AmbiguousTransition) {
		t.Errorf("racing A->B messages not reported: %v", diags)
	}
}

func TestMatchDeterminism(t *testing.T) {
	match := func(arms ...ast.Arm) []ast.Statement {
		return []ast.Statement{
			&ast.Send{From: "A", To: "B", Message: "Report", Fields: []ast.Field{
				{Name: "ok", Type: ast.Primitive{Kind: ast.Bool}},
				{Name: "note", Type: ast.Primitive{Kind: ast.String}},
			}},
			&ast.Match{Expr: "Report.ok", Arms: arms},
		}
	}

	tests := []struct {
		name string
		body []ast.Statement
		code diag.Code
	}{
		{
			name: "bool covered exactly",
			body: match(
				ast.Arm{Pattern: "true", Body: []ast.Statement{&ast.End{}}},
				ast.Arm{Pattern: "false", Body: []ast.Statement{&ast.End{}}},
			),
		},
		{
			name: "bool missing false",
			body: match(
				ast.Arm{Pattern: "true", Body: []ast.Statement{&ast.End{}}},
			),
			code: diag.DeadlockRisk,
		},
		{
			name: "default covers the rest",
			body: match(
				ast.Arm{Pattern: "true", Body: []ast.Statement{&ast.End{}}},
				ast.Arm{Pattern: "_", Body: []ast.Statement{&ast.End{}}},
			),
		},
		{
			name: "duplicate case",
			body: match(
				ast.Arm{Pattern: "true", Body: []ast.Statement{&ast.End{}}},
				ast.Arm{Pattern: "true", Body: []ast.Statement{&ast.End{}}},
				ast.Arm{Pattern: "false", Body: []ast.Statement{&ast.End{}}},
			),
			code: diag.AmbiguousTransition,
		},
		{
			name: "open domain without default",
			body: []ast.Statement{
				&ast.Send{From: "A", To: "B", Message: "Report", Fields: []ast.Field{
					{Name: "note", Type: ast.Primitive{Kind: ast.String}},
				}},
				&ast.Match{Expr: "Report.note", Arms: []ast.Arm{
					{Pattern: "hello", Body: []ast.Statement{&ast.End{}}},
				}},
			},
			code: diag.DeadlockRisk,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := buildGraph(t, protocol([]string{"A", "B"}, ast.Phase{Name: "Main", Body: tc.body}))
			diags := Run(g)
			if tc.code == "" {
				if len(diags) != 0 {
					t.Errorf("unexpected diagnostics: %v", diags)
				}
				return
			}
			if !diags.Has(tc.code) {
				t.Errorf("diagnostics %v missing %s", diags, tc.code)
			}
		})
	}
}

func TestGuardedDeadlock(t *testing.T) {
	// All branches guarded on independent atoms: the all-false assignment
	// disables every transition.
	g := buildGraph(t, protocol([]string{"A", "B"}, ast.Phase{
		Name: "Main",
		Body: []ast.Statement{
			choice(
				branch("a", guard("fast"), send("A", "B", "X"), &ast.End{}),
				branch("b", guard("safe"), send("A", "B", "Y"), &ast.End{}),
			),
		},
	}))
	diags := Run(g)
	var found bool
	for _, d := range diags {
		if d.Pass == diag.PassDeadlock && d.Code == diag.DeadlockRisk {
			found = true
		}
	}
	if !found {
		t.Errorf("guard-excludable fan not reported by deadlock pass: %v", diags)
	}
}

func TestLiveness(t *testing.T) {
	tests := []struct {
		name   string
		phases []ast.Phase
		want   bool
	}{
		{
			name: "unconditional self loop",
			phases: []ast.Phase{{
				Name: "Loop",
				Body: []ast.Statement{
					send("A", "B", "Tick"),
					&ast.Continue{Target: "Loop"},
				},
			}},
			want: true,
		},
		{
			name: "loop with guarded exit",
			phases: []ast.Phase{{
				Name: "Loop",
				Body: []ast.Statement{
					send("A", "B", "Tick"),
					choice(
						branch("more", guard("go"), &ast.Continue{Target: "Loop"}),
						branch("done", guard("!go"), &ast.End{}),
					),
				},
			}},
			want: false,
		},
		{
			name: "trap behind a choice",
			phases: []ast.Phase{
				{
					Name: "Main",
					Body: []ast.Statement{
						choice(
							branch("spin", guard("go"), &ast.Continue{Target: "Spin"}),
							branch("done", guard("!go"), &ast.End{}),
						),
					},
				},
				{
					Name: "Spin",
					Body: []ast.Statement{
						send("A", "B", "Tick"),
						&ast.Continue{Target: "Spin"},
					},
				},
			},
			want: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := buildGraph(t, protocol([]string{"A", "B"}, tc.phases...))
			diags := Run(g)
			if got := diags.Has(diag.NonTerminatingTrap); got != tc.want {
				t.Errorf("NonTerminatingTrap = %v, want %v (diags: %v)", got, tc.want, diags)
			}
		})
	}
}

func TestDuality(t *testing.T) {
	tests := []struct {
		name string
		stmt ast.Statement
		want bool
	}{
		{
			// C must send in one branch of a choice it cannot observe, and
			// stay silent in the other.
			name: "send versus possible end",
			stmt: choice(
				branch("one", guard("go"),
					send("A", "B", "Go"),
					send("C", "B", "R1"),
					&ast.End{},
				),
				branch("two", guard("!go"),
					send("A", "B", "Stop"),
					&ast.End{},
				),
			),
			want: true,
		},
		{
			// C's obligation differs between two states it cannot tell apart.
			name: "diverging obligations",
			stmt: choice(
				branch("one", guard("go"),
					send("A", "B", "Go"),
					send("C", "B", "R1"),
					&ast.End{},
				),
				branch("two", guard("!go"),
					send("A", "B", "Stop"),
					send("C", "B", "R2"),
					&ast.End{},
				),
			),
			want: true,
		},
		{
			// The first message of each branch informs C, so its later
			// behavior may differ.
			name: "branch announced to everyone",
			stmt: choice(
				branch("one", guard("go"),
					send("A", "C", "Go"),
					send("C", "B", "R1"),
					&ast.End{},
				),
				branch("two", guard("!go"),
					send("A", "C", "Stop"),
					&ast.End{},
				),
			),
			want: false,
		},
		{
			// Unreliable sends carry no blocking obligation.
			name: "unreliable divergence is exempt",
			stmt: choice(
				branch("one", guard("go"),
					send("A", "B", "Go"),
					&ast.Unreliable{Body: []ast.Statement{send("C", "B", "R1")}},
					&ast.End{},
				),
				branch("two", guard("!go"),
					send("A", "B", "Stop"),
					&ast.End{},
				),
			),
			want: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := buildGraph(t, protocol([]string{"A", "B", "C"}, ast.Phase{
				Name: "Main",
				Body: []ast.Statement{tc.stmt},
			}))
			diags := Run(g)
			if got := diags.Has(diag.DualityMismatch); got != tc.want {
				t.Errorf("DualityMismatch = %v, want %v (diags: %v)", got, tc.want, diags)
			}
			for _, d := range diags {
				if d.Code != diag.DualityMismatch {
					t.Errorf("unexpected non-duality diagnostic: %v", d)
				}
			}
		})
	}
}
