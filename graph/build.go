package graph

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sessao/session-core/diag"
	"github.com/sessao/session-core/ir"
)

// Build expands an IR protocol into its session graph. Every control
// construct is encoded structurally: message exchanges as single edges,
// choices and matches as guarded fans, continue as a back edge to the
// memoized phase entry, end as an edge to the shared terminal, and parallel
// composition as the interleaving product of the sub-phase automata.
//
// A reference to an undefined phase is a construction error and aborts
// before validation.
func Build(p *ir.Protocol) (*Graph, error) {
	g := &Graph{Protocol: p, Start: None}
	b := &builder{g: g, p: p, entries: make(map[string]NodeID)}

	g.Terminal = g.newNode("")
	g.Start = b.phase(p.Start)

	if len(b.diags) > 0 {
		return nil, b.diags
	}

	Logger().Debug("session graph built",
		zap.String("protocol", p.Name),
		zap.Int("nodes", g.NumNodes()),
		zap.Int("edges", g.NumEdges()))
	return g, nil
}

type builder struct {
	g       *Graph
	p       *ir.Protocol
	entries map[string]NodeID
	diags   diag.List
}

// parScope is set while building a parallel sub-phase: end routes to the
// local terminal and continue may target only the sub-phase itself.
type parScope struct {
	self     string
	entry    NodeID
	terminal NodeID
}

// phase returns the memoized entry node of a phase, constructing its
// subgraph on first use. Memoizing the entry before the body is built is
// what lets continue form cycles.
func (b *builder) phase(name string) NodeID {
	if id, ok := b.entries[name]; ok {
		return id
	}
	ph := b.p.Phases[name]
	if ph == nil {
		b.diags = append(b.diags, diag.New(diag.PassConstruct, diag.UndefinedPhaseReference).
			Detail("phase %q is not defined", name).
			Build())
		b.entries[name] = None
		return None
	}

	entry := b.g.newNode(name)
	b.entries[name] = entry
	exit := b.steps(ph.Steps, entry, name, nil)
	if exit != None {
		// A phase body that exhausts without continue or end terminates.
		b.flow(exit, b.g.Terminal, "end")
	}
	return entry
}

func (b *builder) steps(steps []ir.Step, cur NodeID, phase string, scope *parScope) NodeID {
	for _, st := range steps {
		if cur == None {
			break // unreachable tail after end/continue
		}
		switch s := st.(type) {
		case *ir.SendStep:
			nxt := b.g.newNode(phase)
			b.g.addEdge(Edge{
				From: cur, To: nxt, Kind: EdgeMessage,
				Sender: s.From, Receiver: s.To, Message: s.Message, Channel: s.Channel,
			})
			cur = nxt

		case *ir.EndStep:
			target := b.g.Terminal
			if scope != nil {
				target = scope.terminal
			}
			b.flow(cur, target, "end")
			cur = None

		case *ir.ContinueStep:
			cur = b.continueTo(s.Target, cur, scope)

		case *ir.ChoiceStep:
			cur = b.fan(cur, phase, scope, len(s.Branches), func(i int) (Edge, []ir.Step) {
				br := s.Branches[i]
				return Edge{Kind: EdgeChoice, Decider: s.Role, Branch: br.Name, Guard: br.Guard}, br.Body
			})

		case *ir.MatchStep:
			observers := b.observersOf(s.Message)
			cur = b.fan(cur, phase, scope, len(s.Arms), func(i int) (Edge, []ir.Step) {
				arm := s.Arms[i]
				return Edge{
					Kind:         EdgeMatch,
					MatchMessage: s.Message,
					Field:        s.Field,
					Value:        arm.Pattern,
					Default:      arm.Default,
					Domain:       s.Domain,
					Observers:    observers,
				}, arm.Body
			})

		case *ir.ParallelStep:
			cur = b.parallel(s, cur, phase)
		}
	}
	return cur
}

func (b *builder) observersOf(message string) []string {
	if schema := b.p.Schemas[message]; schema != nil {
		return schema.Observers
	}
	return nil
}

func (b *builder) continueTo(target string, cur NodeID, scope *parScope) NodeID {
	var entry NodeID
	if scope != nil {
		if target != scope.self {
			b.diags = append(b.diags, diag.New(diag.PassConstruct, diag.UndefinedPhaseReference).
				Detail("continue %q escapes parallel sub-phase %q; parallel branches may only loop on themselves", target, scope.self).
				Build())
			return None
		}
		entry = scope.entry
	} else {
		entry = b.phase(target)
		if entry == None {
			return None
		}
	}
	b.flow(cur, entry, "continue "+target)
	return None
}

// fan expands a choice or match: one edge per alternative out of cur, each
// alternative body built behind it, and fall-through exits joined on a
// shared continuation node. Returns the continuation, or None when every
// alternative ends or continues away.
func (b *builder) fan(cur NodeID, phase string, scope *parScope, n int, alt func(int) (Edge, []ir.Step)) NodeID {
	join := None
	for i := 0; i < n; i++ {
		e, body := alt(i)
		bn := b.g.newNode(phase)
		e.From = cur
		e.To = bn
		b.g.addEdge(e)
		exit := b.steps(body, bn, phase, scope)
		if exit != None {
			if join == None {
				join = b.g.newNode(phase)
			}
			b.flow(exit, join, "join")
		}
	}
	return join
}

// parallel expands a parallel composition into the interleaving product of
// its sub-phase automata. Each sub-phase is first built as an isolated
// template automaton with a local terminal; the product then allows any
// valid interleaving of their independent edges and joins once every
// component has reached its local terminal.
func (b *builder) parallel(s *ir.ParallelStep, cur NodeID, phase string) NodeID {
	entries := make([]NodeID, len(s.Phases))
	terminals := make([]NodeID, len(s.Phases))
	for i, name := range s.Phases {
		ph := b.p.Phases[name]
		if ph == nil {
			b.diags = append(b.diags, diag.New(diag.PassConstruct, diag.UndefinedPhaseReference).
				Detail("parallel sub-phase %q is not defined", name).
				Build())
			return None
		}
		entry := b.g.newNode(name)
		terminal := b.g.newNode(name)
		scope := &parScope{self: name, entry: entry, terminal: terminal}
		exit := b.steps(ph.Steps, entry, name, scope)
		if exit != None {
			b.flow(exit, terminal, "end")
		}
		entries[i] = entry
		terminals[i] = terminal
	}

	cont := b.g.newNode(phase)
	memo := make(map[string]NodeID)

	var product func(vec []NodeID) NodeID
	product = func(vec []NodeID) NodeID {
		key := vecKey(vec)
		if id, ok := memo[key]; ok {
			return id
		}
		id := b.g.newNode(phase)
		memo[key] = id

		done := true
		for i, n := range vec {
			if n != terminals[i] {
				done = false
			}
			// Copy edge ids up front: addEdge grows the arena and would
			// invalidate pointers taken before the recursion.
			out := make([]EdgeID, len(b.g.nodes[n].Out))
			copy(out, b.g.nodes[n].Out)
			for _, eid := range out {
				next := make([]NodeID, len(vec))
				copy(next, vec)
				next[i] = b.g.edges[eid].To
				ce := b.g.edges[eid]
				ce.From = id
				ce.To = product(next)
				b.g.addEdge(ce)
			}
		}
		if done {
			b.flow(id, cont, "join")
		}
		return id
	}

	b.flow(cur, product(entries), "fork")
	return cont
}

func (b *builder) flow(from, to NodeID, label string) {
	b.g.addEdge(Edge{From: from, To: to, Kind: EdgeFlow, Flow: label})
}

func vecKey(vec []NodeID) string {
	var sb strings.Builder
	for i, n := range vec {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(int(n)))
	}
	return sb.String()
}
