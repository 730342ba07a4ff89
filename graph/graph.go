package graph

import (
	"slices"
	"strings"

	"github.com/sessao/session-core/ir"
)

// NodeID addresses a node in the graph arena.
type NodeID int

// EdgeID addresses an edge in the graph arena.
type EdgeID int

// None is the absent node id.
const None NodeID = -1

// EdgeKind discriminates edge labels.
type EdgeKind uint8

const (
	// EdgeMessage is a message exchange (sender, receiver, message, channel).
	EdgeMessage EdgeKind = iota
	// EdgeChoice is one branch of a role's choice, optionally guarded.
	EdgeChoice
	// EdgeMatch is one case of a match on an observed message field.
	EdgeMatch
	// EdgeFlow is silent control flow: end, continue, fork, join. Flow
	// edges carry no communication and are invisible to every role.
	EdgeFlow
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeMessage:
		return "message"
	case EdgeChoice:
		return "choice"
	case EdgeMatch:
		return "match"
	case EdgeFlow:
		return "flow"
	}
	return "unknown"
}

// Edge is a labeled transition between joint protocol states. Which label
// fields are meaningful depends on Kind.
type Edge struct {
	ID   EdgeID
	From NodeID
	To   NodeID
	Kind EdgeKind

	// EdgeMessage
	Sender   string
	Receiver string
	Message  string
	Channel  ir.Channel

	// EdgeChoice
	Decider string
	Branch  string
	Guard   *ir.Guard

	// EdgeMatch
	MatchMessage string
	Field        string
	Value        string
	Default      bool
	Domain       []string // finite discriminant domain, nil when open
	Observers    []string // roles that exchanged the discriminant message

	// EdgeFlow
	Flow string
}

// Silent reports whether the edge carries no communication.
func (e *Edge) Silent() bool { return e.Kind == EdgeFlow }

// VisibleTo reports whether the given role observes this edge firing:
// messages are visible to their sender and receiver, choice edges to the
// deciding role only, match edges to the roles that exchanged the
// discriminant message, flow edges to nobody.
func (e *Edge) VisibleTo(role string) bool {
	switch e.Kind {
	case EdgeMessage:
		return role == e.Sender || role == e.Receiver
	case EdgeChoice:
		return role == e.Decider
	case EdgeMatch:
		return slices.Contains(e.Observers, role)
	}
	return false
}

// Label renders the edge in human-readable form for diagnostics.
func (e *Edge) Label() string {
	switch e.Kind {
	case EdgeMessage:
		l := e.Sender + "->" + e.Receiver + ": " + e.Message
		if e.Channel == ir.Unreliable {
			l += " (unreliable)"
		}
		return l
	case EdgeChoice:
		l := "@" + e.Decider + " " + e.Branch
		if e.Guard != nil {
			l += " [" + e.Guard.String() + "]"
		}
		return l
	case EdgeMatch:
		v := e.Value
		if e.Default {
			v = "_"
		}
		return "match " + e.MatchMessage + "." + e.Field + " = " + v
	case EdgeFlow:
		return e.Flow
	}
	return "?"
}

// Node is a joint protocol state.
type Node struct {
	ID    NodeID
	Phase string // phase context, for diagnostics
	Out   []EdgeID
	In    []EdgeID
}

// Graph is the session graph arena. It is immutable after Build returns.
type Graph struct {
	Protocol *ir.Protocol
	Start    NodeID
	Terminal NodeID

	nodes []Node
	edges []Edge
}

// NumNodes returns the arena node count, including nodes kept only as
// parallel-expansion templates.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// NumEdges returns the arena edge count.
func (g *Graph) NumEdges() int { return len(g.edges) }

// Node returns the node with the given id.
func (g *Graph) Node(id NodeID) *Node { return &g.nodes[id] }

// Edge returns the edge with the given id.
func (g *Graph) Edge(id EdgeID) *Edge { return &g.edges[id] }

// Outgoing returns the outgoing edges of a node.
func (g *Graph) Outgoing(id NodeID) []*Edge {
	out := make([]*Edge, len(g.nodes[id].Out))
	for i, eid := range g.nodes[id].Out {
		out[i] = &g.edges[eid]
	}
	return out
}

// Reachable returns the set of nodes reachable from Start. Parallel
// expansion leaves template sub-automata in the arena that are not part of
// the protocol's state space; every analysis restricts itself to this set.
func (g *Graph) Reachable() map[NodeID]bool {
	seen := make(map[NodeID]bool, len(g.nodes))
	stack := []NodeID{g.Start}
	seen[g.Start] = true
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, eid := range g.nodes[n].Out {
			to := g.edges[eid].To
			if !seen[to] {
				seen[to] = true
				stack = append(stack, to)
			}
		}
	}
	return seen
}

// PathTo returns the labels of a shortest edge path from Start to the given
// node, for diagnostic rendering. Silent join edges are elided.
func (g *Graph) PathTo(id NodeID) []string {
	if id == g.Start {
		return []string{"start"}
	}

	prev := make(map[NodeID]EdgeID)
	seen := map[NodeID]bool{g.Start: true}
	queue := []NodeID{g.Start}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if n == id {
			break
		}
		for _, eid := range g.nodes[n].Out {
			to := g.edges[eid].To
			if !seen[to] {
				seen[to] = true
				prev[to] = eid
				queue = append(queue, to)
			}
		}
	}
	if !seen[id] {
		return nil
	}

	var labels []string
	for n := id; n != g.Start; {
		e := &g.edges[prev[n]]
		if !(e.Kind == EdgeFlow && (e.Flow == "join" || e.Flow == "fork")) {
			labels = append(labels, e.Label())
		}
		n = e.From
	}
	slices.Reverse(labels)
	if len(labels) == 0 {
		return []string{"start"}
	}
	return labels
}

// PathString renders PathTo as a single arrow-joined string.
func (g *Graph) PathString(id NodeID) string {
	return strings.Join(g.PathTo(id), " -> ")
}

func (g *Graph) newNode(phase string) NodeID {
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, Node{ID: id, Phase: phase})
	return id
}

func (g *Graph) addEdge(e Edge) EdgeID {
	e.ID = EdgeID(len(g.edges))
	g.edges = append(g.edges, e)
	g.nodes[e.From].Out = append(g.nodes[e.From].Out, e.ID)
	g.nodes[e.To].In = append(g.nodes[e.To].In, e.ID)
	return e.ID
}
