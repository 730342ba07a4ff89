package project

import (
	"strings"

	"github.com/sessao/session-core/graph"
	"github.com/sessao/session-core/ir"
)

// OpKind classifies a local operation.
type OpKind uint8

const (
	// OpSend transmits a message to a peer role.
	OpSend OpKind = iota
	// OpReceive accepts a message from a peer role.
	OpReceive
	// OpSelect picks a branch of a choice this role decides.
	OpSelect
	// OpCase observes a discriminant value of a message this role has seen.
	OpCase
	// OpClose observes the underlying channel closing. Always legal at
	// non-terminal states; transitions into the Closed state.
	OpClose
)

func (k OpKind) String() string {
	switch k {
	case OpSend:
		return "send"
	case OpReceive:
		return "receive"
	case OpSelect:
		return "select"
	case OpCase:
		return "case"
	case OpClose:
		return "close"
	}
	return "unknown"
}

// Operation is one legal action at a local state. Which fields are
// meaningful depends on Kind.
type Operation struct {
	Kind    OpKind
	Peer    string // send/receive counterpart
	Message string // send/receive schema, or match discriminant message
	Channel ir.Channel
	Branch  string // OpSelect
	Guard   *ir.Guard
	Field   string // OpCase
	Value   string
	Default bool
	// NonBlocking marks operations on unreliable channels: no delivery or
	// ordering guarantee, and generators may implement them fire-and-forget.
	NonBlocking bool
}

// Key is the canonical identity of the operation within one state. Two
// edges firing the same local operation share a key and therefore a
// transition.
func (o Operation) Key() string {
	var b strings.Builder
	b.WriteString(o.Kind.String())
	b.WriteByte('|')
	switch o.Kind {
	case OpSend, OpReceive:
		b.WriteString(o.Peer)
		b.WriteByte('|')
		b.WriteString(o.Message)
		b.WriteByte('|')
		b.WriteString(o.Channel.String())
	case OpSelect:
		b.WriteString(o.Branch)
	case OpCase:
		b.WriteString(o.Message)
		b.WriteByte('.')
		b.WriteString(o.Field)
		b.WriteByte('=')
		if o.Default {
			b.WriteString("_")
		} else {
			b.WriteString(o.Value)
		}
	}
	return b.String()
}

// String renders the operation for diagnostics and tooling.
func (o Operation) String() string {
	switch o.Kind {
	case OpSend:
		s := "!" + o.Message + " to " + o.Peer
		if o.NonBlocking {
			s += " (unreliable)"
		}
		return s
	case OpReceive:
		s := "?" + o.Message + " from " + o.Peer
		if o.NonBlocking {
			s += " (unreliable)"
		}
		return s
	case OpSelect:
		s := "select " + o.Branch
		if o.Guard != nil {
			s += " [" + o.Guard.String() + "]"
		}
		return s
	case OpCase:
		v := o.Value
		if o.Default {
			v = "_"
		}
		return "case " + o.Message + "." + o.Field + "=" + v
	case OpClose:
		return "close"
	}
	return "?"
}

// fromEdge converts a role-visible session graph edge into the local
// operation it fires for that role.
func fromEdge(e *graph.Edge, role string) Operation {
	switch e.Kind {
	case graph.EdgeMessage:
		op := Operation{
			Message:     e.Message,
			Channel:     e.Channel,
			NonBlocking: e.Channel == ir.Unreliable,
		}
		if role == e.Sender {
			op.Kind = OpSend
			op.Peer = e.Receiver
		} else {
			op.Kind = OpReceive
			op.Peer = e.Sender
		}
		return op
	case graph.EdgeChoice:
		return Operation{Kind: OpSelect, Branch: e.Branch, Guard: e.Guard}
	case graph.EdgeMatch:
		return Operation{
			Kind:    OpCase,
			Message: e.MatchMessage,
			Field:   e.Field,
			Value:   e.Value,
			Default: e.Default,
		}
	}
	return Operation{}
}
