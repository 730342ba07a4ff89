package diag

import (
	"errors"
	"strings"
	"testing"
)

func TestBuilder(t *testing.T) {
	d := New(PassDeterminism, AmbiguousTransition).
		Node(4).
		Path("A->B: Ping", "@B accept").
		Expected("x", "y").
		Actual("x").
		Detail("branch %q races", "accept").
		Build()

	if d.Pass != PassDeterminism || d.Code != AmbiguousTransition {
		t.Errorf("pass/code = %s/%s", d.Pass, d.Code)
	}
	if d.Node != 4 {
		t.Errorf("node = %d, want 4", d.Node)
	}
	msg := d.Error()
	for _, want := range []string{
		"[determinism]",
		"ambiguous_transition",
		"at node 4",
		"A->B: Ping / @B accept",
		`branch "accept" races`,
		"expected {x, y}",
		"actual {x}",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
}

func TestNoNodeOmitted(t *testing.T) {
	d := New(PassConstruct, UndefinedPhaseReference).Detail("phase missing").Build()
	if strings.Contains(d.Error(), "at node") {
		t.Errorf("Error() = %q, node should be omitted", d.Error())
	}
}

func TestIsMatchesByPassAndCode(t *testing.T) {
	d := New(PassDeadlock, DeadlockRisk).Node(1).Detail("x").Build()
	if !errors.Is(d, New(PassDeadlock, DeadlockRisk).Build()) {
		t.Error("same pass and code should match")
	}
	if errors.Is(d, New(PassDeterminism, DeadlockRisk).Build()) {
		t.Error("different pass should not match")
	}
	if errors.Is(d, errors.New("deadlock_risk")) {
		t.Error("foreign error should not match")
	}
}

func TestList(t *testing.T) {
	var l List
	if l.ErrOrNil() != nil {
		t.Error("empty list must be a nil error")
	}

	l = append(l,
		New(PassLiveness, NonTerminatingTrap).Build(),
		New(PassDuality, DualityMismatch).Build(),
		New(PassDuality, DualityMismatch).Build(),
	)

	if err := l.ErrOrNil(); err == nil {
		t.Fatal("non-empty list must be an error")
	}
	if !l.Has(NonTerminatingTrap) || l.Has(AmbiguousTransition) {
		t.Error("Has() wrong")
	}
	if got := len(l.ByCode(DualityMismatch)); got != 2 {
		t.Errorf("ByCode(DualityMismatch) = %d entries, want 2", got)
	}
	if got := strings.Count(l.Error(), ";"); got != 2 {
		t.Errorf("joined Error() separators = %d, want 2: %q", got, l.Error())
	}
}
