package validate

import (
	"go.uber.org/zap"

	"github.com/sessao/session-core/diag"
	"github.com/sessao/session-core/graph"
)

// Run executes all four validation passes over a constructed session graph
// and returns every diagnostic found. An empty result means the protocol is
// deterministic, deadlock-free, live, and dual-consistent, and projections
// may be derived from it.
func Run(g *graph.Graph) diag.List {
	reach := g.Reachable()

	var diags diag.List
	diags = append(diags, determinism(g, reach)...)
	diags = append(diags, deadlock(g, reach)...)
	diags = append(diags, liveness(g, reach)...)
	diags = append(diags, duality(g, reach)...)

	Logger().Debug("validation finished",
		zap.String("protocol", g.Protocol.Name),
		zap.Int("reachable_nodes", len(reach)),
		zap.Int("diagnostics", len(diags)))
	return diags
}
