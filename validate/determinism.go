package validate

import (
	"slices"

	"github.com/sessao/session-core/diag"
	"github.com/sessao/session-core/graph"
)

// determinism checks that at most one transition can be enabled at every
// node for any assignment of guard and discriminant values.
//
//   - Message edges sharing (sender, receiver) are unconditional and
//     therefore always ambiguous together.
//   - Choice edges must carry pairwise mutually exclusive guards; with
//     opaque atoms that means one negating the other. At most one branch may
//     be unguarded: it is the default, enabled when no guard holds.
//   - Match edges must carry pairwise distinct values and, together with an
//     implicit default, cover the discriminant's domain. Missing coverage is
//     a missing-edge deadlock risk.
func determinism(g *graph.Graph, reach map[graph.NodeID]bool) diag.List {
	var diags diag.List
	for id := range reach {
		diags = append(diags, checkMessages(g, id)...)
		diags = append(diags, checkChoices(g, id)...)
		diags = append(diags, checkMatches(g, id)...)
	}
	return diags
}

func checkMessages(g *graph.Graph, id graph.NodeID) diag.List {
	var diags diag.List
	byPair := make(map[string][]*graph.Edge)
	for _, e := range g.Outgoing(id) {
		if e.Kind == graph.EdgeMessage {
			key := e.Sender + "->" + e.Receiver
			byPair[key] = append(byPair[key], e)
		}
	}
	for _, edges := range byPair {
		if len(edges) < 2 {
			continue
		}
		labels := make([]string, len(edges))
		for i, e := range edges {
			labels[i] = e.Label()
		}
		slices.Sort(labels)
		diags = append(diags, diag.New(diag.PassDeterminism, diag.AmbiguousTransition).
			Node(int(id)).
			Path(g.PathTo(id)...).
			Actual(labels...).
			Detail("%s can emit %d different messages here with nothing to disambiguate them", edges[0].Sender, len(edges)).
			Build())
	}
	return diags
}

func checkChoices(g *graph.Graph, id graph.NodeID) diag.List {
	var edges []*graph.Edge
	for _, e := range g.Outgoing(id) {
		if e.Kind == graph.EdgeChoice {
			edges = append(edges, e)
		}
	}
	if len(edges) < 2 {
		return nil
	}

	var diags diag.List
	report := func(a, b *graph.Edge, detail string) {
		diags = append(diags, diag.New(diag.PassDeterminism, diag.AmbiguousTransition).
			Node(int(id)).
			Path(g.PathTo(id)...).
			Actual(a.Label(), b.Label()).
			Detail("branches %q and %q: %s", a.Branch, b.Branch, detail).
			Build())
	}

	for i := 0; i < len(edges); i++ {
		for j := i + 1; j < len(edges); j++ {
			a, b := edges[i], edges[j]
			switch {
			case a.Guard == nil && b.Guard == nil:
				report(a, b, "both are always enabled")
			case a.Guard == nil || b.Guard == nil:
				// One unguarded default arm is deterministic.
			case a.Guard.Excludes(b.Guard):
				// Complementary atoms, never enabled together.
			case a.Guard.Atom() == b.Guard.Atom():
				report(a, b, "both are enabled whenever "+a.Guard.String()+" holds")
			default:
				report(a, b, "guards "+a.Guard.String()+" and "+b.Guard.String()+
					" are independent atoms and can hold simultaneously")
			}
		}
	}
	return diags
}

func checkMatches(g *graph.Graph, id graph.NodeID) diag.List {
	var edges []*graph.Edge
	for _, e := range g.Outgoing(id) {
		if e.Kind == graph.EdgeMatch {
			edges = append(edges, e)
		}
	}
	if len(edges) == 0 {
		return nil
	}

	var diags diag.List
	seen := make(map[string]bool)
	hasDefault := false
	for _, e := range edges {
		key := e.Value
		if e.Default {
			key = "_"
		}
		if seen[key] {
			diags = append(diags, diag.New(diag.PassDeterminism, diag.AmbiguousTransition).
				Node(int(id)).
				Path(g.PathTo(id)...).
				Actual(e.Label()).
				Detail("duplicate match case %q on %s.%s", key, e.MatchMessage, e.Field).
				Build())
		}
		seen[key] = true
		if e.Default {
			hasDefault = true
		}
	}
	if hasDefault {
		return diags
	}

	// No default arm: the explicit cases must cover the whole domain.
	first := edges[0]
	if first.Domain == nil {
		diags = append(diags, diag.New(diag.PassDeterminism, diag.DeadlockRisk).
			Node(int(id)).
			Path(g.PathTo(id)...).
			Detail("match on %s.%s has an open value domain and no default arm", first.MatchMessage, first.Field).
			Build())
		return diags
	}
	var missing []string
	for _, v := range first.Domain {
		if !seen[v] {
			missing = append(missing, v)
		}
	}
	if len(missing) > 0 {
		diags = append(diags, diag.New(diag.PassDeterminism, diag.DeadlockRisk).
			Node(int(id)).
			Path(g.PathTo(id)...).
			Expected(first.Domain...).
			Actual(covered(seen)...).
			Detail("match on %s.%s is not exhaustive: no transition for %v", first.MatchMessage, first.Field, missing).
			Build())
	}
	return diags
}

func covered(seen map[string]bool) []string {
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}
