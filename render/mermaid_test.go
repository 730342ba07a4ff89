package render

import (
	"strings"
	"testing"

	sessao "github.com/sessao/session-core"
	"github.com/sessao/session-core/ast"
)

func compiled(t *testing.T) *sessao.Result {
	t.Helper()
	res, err := sessao.Compile(&ast.Protocol{
		Name:  "Ping",
		Roles: []ast.Role{{Name: "A"}, {Name: "B"}},
		Phases: []ast.Phase{{
			Name: "Main",
			Body: []ast.Statement{
				&ast.Unreliable{Body: []ast.Statement{
					&ast.Send{From: "A", To: "B", Message: "Tick"},
				}},
				&ast.Send{From: "A", To: "B", Message: "Ping"},
				&ast.End{},
			},
		}},
	})
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}
	return res
}

func TestGraphChart(t *testing.T) {
	res := compiled(t)
	out := Graph(res.Graph)

	if !strings.HasPrefix(out, "graph TD\n") {
		t.Fatalf("missing header: %q", out)
	}
	for _, want := range []string{
		`(("start"))`,
		`(("end"))`,
		`|"A->B: Ping"|`,
		`|"A->B: Tick (unreliable)"|`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("chart missing %q:\n%s", want, out)
		}
	}
	// Silent flow edges render dotted.
	if !strings.Contains(out, `-.->|"end"|`) {
		t.Errorf("end flow edge not dotted:\n%s", out)
	}
}

func TestProjectionChart(t *testing.T) {
	res := compiled(t)
	p, err := res.Model.Projection("A")
	if err != nil {
		t.Fatalf("Projection(A) error: %v", err)
	}
	out := Projection(p)

	if !strings.Contains(out, "%% role A") {
		t.Errorf("missing role comment:\n%s", out)
	}
	if !strings.Contains(out, `|"!Ping to B"|`) {
		t.Errorf("missing send edge:\n%s", out)
	}
	// Non-blocking unreliable ops render dotted; close transitions are elided.
	if !strings.Contains(out, `-.->|"!Tick to B (unreliable)"|`) {
		t.Errorf("unreliable op not dotted:\n%s", out)
	}
	if strings.Contains(out, "close") {
		t.Errorf("close transitions should be elided:\n%s", out)
	}
}
