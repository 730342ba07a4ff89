package codemodel

import (
	"fmt"

	"github.com/sessao/session-core/graph"
	"github.com/sessao/session-core/ir"
	"github.com/sessao/session-core/project"
)

// Model exposes the validated projections of one protocol to code
// generators. It is immutable and safe for concurrent readers.
type Model struct {
	graph       *graph.Graph
	projections map[string]*project.Projection
	roles       []string
}

// New assembles the model from a validated graph and its per-role
// projections. Callers must only invoke it after validation passed.
func New(g *graph.Graph, projections map[string]*project.Projection) *Model {
	roles := make([]string, len(g.Protocol.Roles))
	copy(roles, g.Protocol.Roles)
	return &Model{graph: g, projections: projections, roles: roles}
}

// Protocol returns the protocol name.
func (m *Model) Protocol() string { return m.graph.Protocol.Name }

// Roles returns the declared roles in declaration order.
func (m *Model) Roles() []string {
	out := make([]string, len(m.roles))
	copy(out, m.roles)
	return out
}

// Schema returns a message schema by name, for generators that emit message
// types alongside the state machine.
func (m *Model) Schema(message string) *ir.Schema {
	return m.graph.Protocol.Schemas[message]
}

// Projection returns a role's full projection, for consumers that want the
// automaton wholesale (visualizers, documentation generators).
func (m *Model) Projection(role string) (*project.Projection, error) {
	p, ok := m.projections[role]
	if !ok {
		return nil, fmt.Errorf("unknown role %q", role)
	}
	return p, nil
}

// StatesFor returns all state ids of a role's projection, starting with the
// initial state.
func (m *Model) StatesFor(role string) ([]project.StateID, error) {
	p, err := m.Projection(role)
	if err != nil {
		return nil, err
	}
	ids := make([]project.StateID, 0, len(p.States))
	ids = append(ids, p.Start)
	for _, s := range p.States {
		if s.ID != p.Start {
			ids = append(ids, s.ID)
		}
	}
	return ids, nil
}

// OperationsAt returns the operations legal at a state. The result is a
// pure lookup; mutating it does not affect the model.
func (m *Model) OperationsAt(role string, state project.StateID) ([]project.Operation, error) {
	p, err := m.Projection(role)
	if err != nil {
		return nil, err
	}
	s := p.State(state)
	if s == nil {
		return nil, fmt.Errorf("role %q has no state %d", role, state)
	}
	ops := make([]project.Operation, len(s.Ops))
	copy(ops, s.Ops)
	return ops, nil
}

// Transition returns the state an operation fires into.
func (m *Model) Transition(role string, state project.StateID, op project.Operation) (project.StateID, error) {
	p, err := m.Projection(role)
	if err != nil {
		return 0, err
	}
	s := p.State(state)
	if s == nil {
		return 0, fmt.Errorf("role %q has no state %d", role, state)
	}
	next, ok := s.Next(op)
	if !ok {
		return 0, fmt.Errorf("operation %q is not legal at state %d of role %q", op.String(), state, role)
	}
	return next, nil
}

// IsTerminal reports whether a state is terminal for a role, including the
// distinguished Closed state.
func (m *Model) IsTerminal(role string, state project.StateID) bool {
	p, ok := m.projections[role]
	if !ok {
		return false
	}
	return p.IsTerminal(state)
}
