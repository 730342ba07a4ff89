package validate

import (
	"slices"

	"github.com/sessao/session-core/diag"
	"github.com/sessao/session-core/graph"
	"github.com/sessao/session-core/ir"
	"github.com/sessao/session-core/project"
)

// duality checks that the roles' local views agree on every send/receive
// pairing. Each role is projected and every merged local state is examined:
//
//   - A role's send obligations (messages it must emit, branches it must
//     select) have to be identical across all global nodes merged into one
//     local state: the role cannot act differently in states it cannot
//     tell apart. Receives may differ: the role just waits and learns from
//     what arrives.
//   - A role obligated to send in one merged node while another merged node
//     expects it to receive, or has already reached the terminal, is a
//     mismatch: the role cannot know whether its send is wanted.
//   - Every reliable message edge must have matching send and receive
//     operations at the corresponding projected states on both sides.
//
// Unreliable exchanges are non-blocking by contract and exempt from the
// obligation checks.
func duality(g *graph.Graph, reach map[graph.NodeID]bool) diag.List {
	var diags diag.List
	for _, role := range g.Protocol.Roles {
		p := project.Build(g, role)
		diags = append(diags, checkObligations(g, role, p)...)
		diags = append(diags, checkPairing(g, reach, role, p)...)
	}
	return diags
}

// obligations returns the blocking actions role must take at global node n:
// reliable sends and choice selections. Sorted for set comparison.
func obligations(g *graph.Graph, n graph.NodeID, role string) []string {
	var out []string
	for _, e := range g.Outgoing(n) {
		switch e.Kind {
		case graph.EdgeMessage:
			if e.Sender == role && e.Channel == ir.Reliable {
				out = append(out, "!"+e.Message+" to "+e.Receiver)
			}
		case graph.EdgeChoice:
			if e.Decider == role {
				out = append(out, "select "+e.Branch)
			}
		}
	}
	slices.Sort(out)
	return out
}

// expectations returns the reliable receives available to role at n.
func expectations(g *graph.Graph, n graph.NodeID, role string) []string {
	var out []string
	for _, e := range g.Outgoing(n) {
		if e.Kind == graph.EdgeMessage && e.Receiver == role && e.Channel == ir.Reliable {
			out = append(out, "?"+e.Message+" from "+e.Sender)
		}
	}
	slices.Sort(out)
	return out
}

func checkObligations(g *graph.Graph, role string, p *project.Projection) diag.List {
	var diags diag.List
	for _, st := range p.States {
		var refNode graph.NodeID = graph.None
		var refObl []string
		for _, n := range st.Nodes {
			obl := obligations(g, n, role)
			if len(obl) == 0 {
				continue
			}
			if refNode == graph.None {
				refNode, refObl = n, obl
				continue
			}
			if !slices.Equal(refObl, obl) {
				diags = append(diags, diag.New(diag.PassDuality, diag.DualityMismatch).
					Node(int(n)).
					Path(g.PathTo(n)...).
					Expected(refObl...).
					Actual(obl...).
					Detail("role %s cannot distinguish this state from node %d but its send obligations differ", role, refNode).
					Build())
			}
		}
		if refNode == graph.None {
			continue
		}
		// Obligated to send, yet a merged node expects a receive instead
		// or may already have ended.
		for _, n := range st.Nodes {
			if len(obligations(g, n, role)) > 0 {
				continue
			}
			if exp := expectations(g, n, role); len(exp) > 0 {
				diags = append(diags, diag.New(diag.PassDuality, diag.DualityMismatch).
					Node(int(n)).
					Path(g.PathTo(n)...).
					Expected(refObl...).
					Actual(exp...).
					Detail("role %s cannot decide between sending (as at node %d) and receiving here", role, refNode).
					Build())
			}
		}
		if slices.Contains(st.Nodes, g.Terminal) {
			diags = append(diags, diag.New(diag.PassDuality, diag.DualityMismatch).
				Node(int(refNode)).
				Path(g.PathTo(refNode)...).
				Expected(refObl...).
				Detail("role %s is still obligated to send although the protocol may already have ended", role).
				Build())
		}
	}
	return diags
}

// checkPairing is an invariant guard, not a protocol check. Projections
// derived from one shared global graph carry an op for every visible edge
// out of a member node, so a reliable message edge always has its send and
// receive at the projected source states and this cannot fire on valid
// projector output. It stays in the pass so a projector regression surfaces
// as a diagnostic here instead of as silently unpaired generated code;
// protocol-level mismatches are checkObligations findings.
func checkPairing(g *graph.Graph, reach map[graph.NodeID]bool, role string, p *project.Projection) diag.List {
	var diags diag.List
	for id := range reach {
		for _, e := range g.Outgoing(id) {
			if e.Kind != graph.EdgeMessage || e.Channel != ir.Reliable {
				continue
			}
			if role != e.Sender && role != e.Receiver {
				continue
			}
			sid, ok := p.StateOf(e.From)
			if !ok {
				continue
			}
			st := p.State(sid)
			want := project.Operation{Kind: project.OpReceive, Peer: e.Sender, Message: e.Message, Channel: e.Channel}
			verb := "receive"
			if role == e.Sender {
				want = project.Operation{Kind: project.OpSend, Peer: e.Receiver, Message: e.Message, Channel: e.Channel}
				verb = "send"
			}
			if _, ok := st.Next(want); !ok {
				diags = append(diags, diag.New(diag.PassDuality, diag.DualityMismatch).
					Node(int(e.From)).
					Path(g.PathTo(e.From)...).
					Expected(want.String()).
					Actual(opStrings(st.Ops)...).
					Detail("role %s has no %s transition for %q at its projected state", role, verb, e.Message).
					Build())
			}
		}
	}
	return diags
}

func opStrings(ops []project.Operation) []string {
	out := make([]string, 0, len(ops))
	for _, op := range ops {
		if op.Kind != project.OpClose {
			out = append(out, op.String())
		}
	}
	return out
}
