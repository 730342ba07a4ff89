package validate

import (
	"slices"

	"github.com/sessao/session-core/diag"
	"github.com/sessao/session-core/graph"
)

// liveness checks that every reachable node lies on a path to the terminal.
// Intentional loops are permitted (a cycle is fine as long as some exit
// path leaves it), but a cycle from which no path reaches the terminal is a
// non-terminating trap and is reported once per trapped cycle.
func liveness(g *graph.Graph, reach map[graph.NodeID]bool) diag.List {
	canExit := reverseReach(g, reach)

	trapped := make(map[graph.NodeID]bool)
	for id := range reach {
		if !canExit[id] {
			trapped[id] = true
		}
	}
	if len(trapped) == 0 {
		return nil
	}

	var diags diag.List
	for _, cycle := range trappedCycles(g, trapped) {
		entry := slices.Min(cycle)
		diags = append(diags, diag.New(diag.PassLiveness, diag.NonTerminatingTrap).
			Node(int(entry)).
			Path(g.PathTo(entry)...).
			Detail("cycle of %d state(s) in phase %q has no path to the terminal", len(cycle), g.Node(entry).Phase).
			Build())
	}
	return diags
}

// reverseReach walks the In edges from the terminal and returns the nodes
// with a path to it.
func reverseReach(g *graph.Graph, reach map[graph.NodeID]bool) map[graph.NodeID]bool {
	canExit := make(map[graph.NodeID]bool, len(reach))
	stack := []graph.NodeID{g.Terminal}
	canExit[g.Terminal] = true
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, eid := range g.Node(n).In {
			from := g.Edge(eid).From
			if reach[from] && !canExit[from] {
				canExit[from] = true
				stack = append(stack, from)
			}
		}
	}
	return canExit
}

// trappedCycles returns the strongly connected components of the trapped
// subgraph that actually contain a cycle. Trapped dead ends without a cycle
// are the deadlock pass's finding, not a trap.
func trappedCycles(g *graph.Graph, trapped map[graph.NodeID]bool) [][]graph.NodeID {
	// Kosaraju over the induced subgraph: forward finish order, then
	// reverse-graph sweeps.
	var order []graph.NodeID
	visited := make(map[graph.NodeID]bool, len(trapped))

	for start := range trapped {
		if visited[start] {
			continue
		}
		// Iterative post-order DFS.
		type frame struct {
			node graph.NodeID
			next int
		}
		stack := []frame{{node: start}}
		visited[start] = true
		for len(stack) > 0 {
			f := &stack[len(stack)-1]
			out := g.Node(f.node).Out
			advanced := false
			for f.next < len(out) {
				to := g.Edge(out[f.next]).To
				f.next++
				if trapped[to] && !visited[to] {
					visited[to] = true
					stack = append(stack, frame{node: to})
					advanced = true
					break
				}
			}
			if !advanced && f.next >= len(out) {
				order = append(order, f.node)
				stack = stack[:len(stack)-1]
			}
		}
	}

	assigned := make(map[graph.NodeID]bool, len(trapped))
	var components [][]graph.NodeID
	for i := len(order) - 1; i >= 0; i-- {
		root := order[i]
		if assigned[root] {
			continue
		}
		var comp []graph.NodeID
		stack := []graph.NodeID{root}
		assigned[root] = true
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			comp = append(comp, n)
			for _, eid := range g.Node(n).In {
				from := g.Edge(eid).From
				if trapped[from] && !assigned[from] {
					assigned[from] = true
					stack = append(stack, from)
				}
			}
		}
		if len(comp) > 1 || hasSelfLoop(g, comp[0]) {
			components = append(components, comp)
		}
	}
	return components
}

func hasSelfLoop(g *graph.Graph, id graph.NodeID) bool {
	for _, e := range g.Outgoing(id) {
		if e.To == id {
			return true
		}
	}
	return false
}
