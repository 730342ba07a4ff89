package validate

import (
	"github.com/sessao/session-core/diag"
	"github.com/sessao/session-core/graph"
)

// deadlock checks that every reachable non-terminal node keeps at least one
// outgoing edge enabled under every assignment of guard truth values.
// Guards are opaque atoms, so a node survives exactly when it has an
// unconditional edge, an unguarded default branch, or a complementary guard
// pair; anything else can be switched off all at once.
func deadlock(g *graph.Graph, reach map[graph.NodeID]bool) diag.List {
	var diags diag.List
	for id := range reach {
		if id == g.Terminal {
			continue
		}
		out := g.Outgoing(id)
		if len(out) == 0 {
			diags = append(diags, diag.New(diag.PassDeadlock, diag.DeadlockRisk).
				Node(int(id)).
				Path(g.PathTo(id)...).
				Detail("state has no outgoing transitions and is not the terminal").
				Build())
			continue
		}
		if !guardExcludable(out) {
			continue
		}
		atoms := make([]string, 0, len(out))
		for _, e := range out {
			atoms = append(atoms, e.Guard.String())
		}
		diags = append(diags, diag.New(diag.PassDeadlock, diag.DeadlockRisk).
			Node(int(id)).
			Path(g.PathTo(id)...).
			Actual(atoms...).
			Detail("all outgoing transitions are guard-excluded when every guard is false").
			Build())
	}
	return diags
}

// guardExcludable reports whether one truth assignment can disable every
// edge at once. Only an all-guarded choice fan without a complementary atom
// pair is excludable: the all-false assignment kills it.
func guardExcludable(out []*graph.Edge) bool {
	for _, e := range out {
		if e.Kind != graph.EdgeChoice || e.Guard == nil {
			return false // unconditional edge always fires
		}
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[i].Guard.Excludes(out[j].Guard) {
				return false // one of the pair holds under any assignment
			}
		}
	}
	return true
}
