package render

import (
	"fmt"
	"slices"
	"strings"

	"github.com/sessao/session-core/graph"
	"github.com/sessao/session-core/project"
)

// Graph produces Mermaid flowchart syntax for the reachable session graph.
// Start and terminal render as circles, joint states as rectangles; silent
// control-flow edges are dotted.
func Graph(g *graph.Graph) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	reach := g.Reachable()
	ids := make([]graph.NodeID, 0, len(reach))
	for id := range reach {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		switch id {
		case g.Start:
			fmt.Fprintf(&sb, "    n%d((\"start\"))\n", id)
		case g.Terminal:
			fmt.Fprintf(&sb, "    n%d((\"end\"))\n", id)
		default:
			label := fmt.Sprintf("s%d", id)
			if phase := g.Node(id).Phase; phase != "" {
				label = fmt.Sprintf("s%d: %s", id, phase)
			}
			fmt.Fprintf(&sb, "    n%d[\"%s\"]\n", id, label)
		}
	}

	for _, id := range ids {
		for _, e := range g.Outgoing(id) {
			arrow := "-->"
			if e.Silent() {
				arrow = "-.->"
			}
			fmt.Fprintf(&sb, "    n%d %s|\"%s\"| n%d\n", e.From, arrow, escape(e.Label()), e.To)
		}
	}
	return sb.String()
}

// Projection produces Mermaid flowchart syntax for one role's typestate
// automaton. The distinguished Closed state renders once; implicit close
// transitions are elided to keep the chart readable.
func Projection(p *project.Projection) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	fmt.Fprintf(&sb, "    %%%% role %s\n", p.Role)

	for _, st := range p.States {
		if st.Terminal {
			fmt.Fprintf(&sb, "    s%d((\"s%d end\"))\n", st.ID, st.ID)
		} else if st.ID == p.Start {
			fmt.Fprintf(&sb, "    s%d((\"s%d start\"))\n", st.ID, st.ID)
		} else {
			fmt.Fprintf(&sb, "    s%d[\"s%d\"]\n", st.ID, st.ID)
		}
	}

	for _, st := range p.States {
		for _, op := range st.Ops {
			if op.Kind == project.OpClose {
				continue
			}
			next, ok := st.Next(op)
			if !ok {
				continue
			}
			arrow := "-->"
			if op.NonBlocking {
				arrow = "-.->"
			}
			fmt.Fprintf(&sb, "    s%d %s|\"%s\"| s%d\n", st.ID, arrow, escape(op.String()), next)
		}
	}
	return sb.String()
}

func escape(label string) string {
	return strings.ReplaceAll(label, "\"", "'")
}
