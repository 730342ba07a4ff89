package project

import (
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/sessao/session-core/graph"
)

// StateID addresses a state in a role's projection.
type StateID int

// Closed is the distinguished terminal state entered when the underlying
// channel closes. It is not an element of Projection.States; IsTerminal
// reports it terminal and every non-terminal state carries an OpClose
// transition into it.
const Closed StateID = -2

// Projection is one role's local typestate automaton.
type Projection struct {
	Role   string
	States []*State
	Start  StateID

	byNode map[graph.NodeID]StateID
}

// State is an equivalence class of global nodes indistinguishable to the
// role, with the exact set of operations legal there.
type State struct {
	ID StateID
	// Nodes are the member global nodes, sorted. Every reachable global
	// node belongs to exactly one local state.
	Nodes []graph.NodeID
	// Ops are the legal operations, in deterministic order. Non-terminal
	// states include the implicit OpClose.
	Ops []Operation
	// Terminal marks the state where the protocol has ended for this role.
	Terminal bool

	next map[string]StateID
}

// Next returns the state the given operation fires into, if it is legal
// here.
func (s *State) Next(op Operation) (StateID, bool) {
	id, ok := s.next[op.Key()]
	return id, ok
}

// State returns the state with the given id, or nil for Closed and unknown
// ids.
func (p *Projection) State(id StateID) *State {
	if id < 0 || int(id) >= len(p.States) {
		return nil
	}
	return p.States[id]
}

// StateOf returns the local state a global node maps to. The mapping is
// total over reachable nodes and many-to-one.
func (p *Projection) StateOf(n graph.NodeID) (StateID, bool) {
	id, ok := p.byNode[n]
	return id, ok
}

// IsTerminal reports whether the given state is terminal, including the
// distinguished Closed state.
func (p *Projection) IsTerminal(id StateID) bool {
	if id == Closed {
		return true
	}
	if s := p.State(id); s != nil {
		return s.Terminal
	}
	return false
}

// Build derives the projection of one role from the session graph. The
// graph must already be validated; Build itself never fails, it only
// reflects the graph's structure.
func Build(g *graph.Graph, role string) *Projection {
	d := &deriver{g: g, role: role}
	sets := d.determinize()
	sets = d.mergeFixpoint(sets)

	// Deterministic state numbering: by smallest member node.
	sort.Slice(sets, func(i, j int) bool { return sets[i][0] < sets[j][0] })

	p := &Projection{Role: role, byNode: make(map[graph.NodeID]StateID)}
	index := make(map[string]StateID, len(sets))
	for i, set := range sets {
		id := StateID(i)
		index[setKey(set)] = id
		for _, n := range set {
			p.byNode[n] = id
		}
	}

	for i, set := range sets {
		st := &State{ID: StateID(i), Nodes: set, next: make(map[string]StateID)}
		for key, m := range d.moves(set) {
			target := d.closure(m.targets)
			// The fixpoint guarantees the closed target set lies inside
			// exactly one merged state.
			tid := p.byNode[target[0]]
			st.next[key] = tid
			st.Ops = append(st.Ops, m.op)
		}
		sort.Slice(st.Ops, func(a, b int) bool { return st.Ops[a].Key() < st.Ops[b].Key() })
		if len(st.Ops) == 0 && slices.Contains(set, g.Terminal) {
			st.Terminal = true
		}
		if !st.Terminal {
			st.Ops = append(st.Ops, Operation{Kind: OpClose})
			st.next[Operation{Kind: OpClose}.Key()] = Closed
		}
		p.States = append(p.States, st)
	}

	p.Start = p.byNode[g.Start]
	return p
}

type deriver struct {
	g    *graph.Graph
	role string
}

// closure expands a node set over every edge invisible to the role and
// returns it sorted and deduplicated.
func (d *deriver) closure(nodes []graph.NodeID) []graph.NodeID {
	seen := make(map[graph.NodeID]bool, len(nodes))
	stack := append([]graph.NodeID(nil), nodes...)
	for _, n := range nodes {
		seen[n] = true
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range d.g.Outgoing(n) {
			if e.VisibleTo(d.role) {
				continue
			}
			if !seen[e.To] {
				seen[e.To] = true
				stack = append(stack, e.To)
			}
		}
	}
	out := make([]graph.NodeID, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

type move struct {
	op      Operation
	targets []graph.NodeID
}

// moves groups the role-visible edges out of a member set by the local
// operation they fire.
func (d *deriver) moves(set []graph.NodeID) map[string]*move {
	out := make(map[string]*move)
	for _, n := range set {
		for _, e := range d.g.Outgoing(n) {
			if !e.VisibleTo(d.role) {
				continue
			}
			op := fromEdge(e, d.role)
			key := op.Key()
			m := out[key]
			if m == nil {
				m = &move{op: op}
				out[key] = m
			}
			m.targets = append(m.targets, e.To)
		}
	}
	return out
}

// determinize runs the subset construction from the start closure.
func (d *deriver) determinize() [][]graph.NodeID {
	start := d.closure([]graph.NodeID{d.g.Start})
	seen := map[string]bool{setKey(start): true}
	queue := [][]graph.NodeID{start}
	var sets [][]graph.NodeID

	for len(queue) > 0 {
		set := queue[0]
		queue = queue[1:]
		sets = append(sets, set)
		for _, m := range d.moves(set) {
			next := d.closure(m.targets)
			if key := setKey(next); !seen[key] {
				seen[key] = true
				queue = append(queue, next)
			}
		}
	}
	return sets
}

// mergeFixpoint unions subset-construction states until the collection is a
// true partition of the reachable nodes and every transition target lies in
// a single class. Overlap arises when distinct visible histories converge
// on shared global nodes; those histories are indistinguishable to the role
// and must collapse.
func (d *deriver) mergeFixpoint(sets [][]graph.NodeID) [][]graph.NodeID {
	for {
		if !d.mergeOnce(&sets) {
			return sets
		}
	}
}

func (d *deriver) mergeOnce(sets *[][]graph.NodeID) bool {
	// Overlapping member sets collapse.
	owner := make(map[graph.NodeID]int)
	for i, set := range *sets {
		for _, n := range set {
			if j, ok := owner[n]; ok && j != i {
				d.merge(sets, i, j)
				return true
			}
			owner[n] = i
		}
	}

	// A transition whose closed target set spans two classes collapses
	// them: the role cannot distinguish where it landed.
	for _, set := range *sets {
		for _, m := range d.moves(set) {
			target := d.closure(m.targets)
			first := -1
			for _, n := range target {
				j, ok := owner[n]
				if !ok {
					continue
				}
				if first == -1 {
					first = j
				} else if first != j {
					d.merge(sets, first, j)
					return true
				}
			}
		}
	}
	return false
}

func (d *deriver) merge(sets *[][]graph.NodeID, i, j int) {
	if i > j {
		i, j = j, i
	}
	s := *sets
	union := append(append([]graph.NodeID(nil), s[i]...), s[j]...)
	slices.Sort(union)
	union = slices.Compact(union)
	s[i] = union
	s[j] = s[len(s)-1]
	*sets = s[:len(s)-1]
}

func setKey(set []graph.NodeID) string {
	var sb strings.Builder
	for i, n := range set {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(int(n)))
	}
	return sb.String()
}
