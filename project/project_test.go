package project

import (
	"testing"

	"github.com/sessao/session-core/ast"
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

func pingProtocol(roles ...string) *ast.Protocol {
	p := &ast.Protocol{Name: "P"}
	for _, r := range roles {
		p.Roles = append(p.Roles, ast.Role{Name: r})
	}
	p.Phases = []ast.Phase{{
		Name: "Main",
		Body: []ast.Statement{
			&ast.Send{From: "A", To: "B", Message: "Ping"},
			&ast.End{},
		},
	}}
	return p
}

func TestTwoStateExchange(t *testing.T) {
	g := buildGraph(t, pingProtocol("A", "B"))

	tests := []struct {
		role string
		kind OpKind
		peer string
	}{
		{"A", OpSend, "B"},
		{"B", OpReceive, "A"},
	}
	for _, tc := range tests {
		t.Run(tc.role, func(t *testing.T) {
			p := Build(g, tc.role)
			if len(p.States) != 2 {
				t.Fatalf("states = %d, want 2", len(p.States))
			}

			start := p.State(p.Start)
			if len(start.Ops) != 2 {
				t.Fatalf("start ops = %v, want message op plus close", start.Ops)
			}
			op := start.Ops[0]
			if op.Kind != tc.kind || op.Peer != tc.peer || op.Message != "Ping" {
				t.Errorf("start op = %v, want %s Ping with %s", op, tc.kind, tc.peer)
			}

			next, ok := start.Next(op)
			if !ok {
				t.Fatal("message op has no transition")
			}
			if !p.IsTerminal(next) {
				t.Errorf("state after Ping is not terminal")
			}
			end := p.State(next)
			if len(end.Ops) != 0 {
				t.Errorf("terminal state has ops: %v", end.Ops)
			}

			if closed, ok := start.Next(Operation{Kind: OpClose}); !ok || closed != Closed {
				t.Errorf("close transition = (%v, %v), want Closed", closed, ok)
			}
		})
	}
}

func TestClosedState(t *testing.T) {
	g := buildGraph(t, pingProtocol("A", "B"))
	p := Build(g, "A")

	if !p.IsTerminal(Closed) {
		t.Error("Closed not reported terminal")
	}
	if p.State(Closed) != nil {
		t.Error("Closed must not resolve to a states entry")
	}
	for _, st := range p.States {
		if st.Terminal {
			for _, op := range st.Ops {
				if op.Kind == OpClose {
					t.Error("terminal state carries an explicit close op")
				}
			}
		}
	}
}

func TestThirdRoleCollapses(t *testing.T) {
	// A role that observes nothing cannot distinguish any stage of the
	// protocol: its automaton is a single terminal state.
	g := buildGraph(t, pingProtocol("A", "B", "C"))
	p := Build(g, "C")

	if len(p.States) != 1 {
		t.Fatalf("states = %d, want 1", len(p.States))
	}
	if !p.States[0].Terminal {
		t.Error("blind role's only state must be terminal")
	}
}

func TestManyToOneMerge(t *testing.T) {
	g := buildGraph(t, &ast.Protocol{
		Name:  "P",
		Roles: []ast.Role{{Name: "A"}, {Name: "B"}},
		Phases: []ast.Phase{{
			Name: "Main",
			Body: []ast.Statement{
				&ast.Choice{Role: "A", Branches: []ast.Branch{
					{Name: "left", Guard: &ast.Guard{Role: "A", Condition: "go"}, Body: []ast.Statement{
						&ast.Send{From: "A", To: "B", Message: "M1"},
						&ast.Send{From: "A", To: "B", Message: "Done"},
						&ast.End{},
					}},
					{Name: "right", Guard: &ast.Guard{Role: "A", Condition: "!go"}, Body: []ast.Statement{
						&ast.Send{From: "A", To: "B", Message: "M2"},
						&ast.Send{From: "A", To: "B", Message: "Done"},
						&ast.End{},
					}},
				}},
			},
		}},
	})
	p := Build(g, "B")

	// B waits, learns the branch from the first message, and both Done
	// receives land in the one terminal state.
	start := p.State(p.Start)
	var after []StateID
	for _, op := range start.Ops {
		if op.Kind != OpReceive {
			continue
		}
		next, ok := start.Next(op)
		if !ok {
			t.Fatalf("no transition for %v", op)
		}
		after = append(after, next)
	}
	if len(after) != 2 {
		t.Fatalf("start receives = %d, want 2 (M1 and M2)", len(after))
	}

	done := Operation{Kind: OpReceive, Peer: "A", Message: "Done", Channel: ir.Reliable}
	t1, ok1 := p.State(after[0]).Next(done)
	t2, ok2 := p.State(after[1]).Next(done)
	if !ok1 || !ok2 {
		t.Fatal("Done receive missing after branch message")
	}
	if t1 != t2 {
		t.Errorf("Done transitions diverge: %d vs %d", t1, t2)
	}
	if !p.IsTerminal(t1) {
		t.Error("merged post-Done state is not terminal")
	}

	// Every reachable global node maps to exactly one local state.
	for id := range g.Reachable() {
		if _, ok := p.StateOf(id); !ok {
			t.Errorf("reachable node %d has no local state", id)
		}
	}
}

func TestUnreliableOpsAreNonBlocking(t *testing.T) {
	g := buildGraph(t, &ast.Protocol{
		Name:  "P",
		Roles: []ast.Role{{Name: "A"}, {Name: "B"}},
		Phases: []ast.Phase{{
			Name: "Main",
			Body: []ast.Statement{
				&ast.Unreliable{Body: []ast.Statement{
					&ast.Send{From: "A", To: "B", Message: "Tick"},
				}},
				&ast.Send{From: "A", To: "B", Message: "Data"},
				&ast.End{},
			},
		}},
	})

	p := Build(g, "A")
	start := p.State(p.Start)
	var tick *Operation
	for i := range start.Ops {
		if start.Ops[i].Message == "Tick" {
			tick = &start.Ops[i]
		}
	}
	if tick == nil {
		t.Fatalf("no Tick op at start: %v", start.Ops)
	}
	if !tick.NonBlocking {
		t.Error("unreliable send not marked non-blocking")
	}
	if tick.Channel != ir.Unreliable {
		t.Errorf("Tick channel = %v, want unreliable", tick.Channel)
	}
}

func TestOperationStrings(t *testing.T) {
	tests := []struct {
		op   Operation
		want string
	}{
		{Operation{Kind: OpSend, Peer: "B", Message: "M"}, "!M to B"},
		{Operation{Kind: OpReceive, Peer: "A", Message: "M", NonBlocking: true}, "?M from A (unreliable)"},
		{Operation{Kind: OpSelect, Branch: "left"}, "select left"},
		{Operation{Kind: OpCase, Message: "M", Field: "ok", Value: "true"}, "case M.ok=true"},
		{Operation{Kind: OpCase, Message: "M", Field: "ok", Default: true}, "case M.ok=_"},
		{Operation{Kind: OpClose}, "close"},
	}
	for _, tc := range tests {
		if got := tc.op.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}
