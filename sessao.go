package sessao

import (
	"go.uber.org/zap"

	"github.com/sessao/session-core/ast"
	"github.com/sessao/session-core/codemodel"
	"github.com/sessao/session-core/diag"
	"github.com/sessao/session-core/graph"
	"github.com/sessao/session-core/ir"
	"github.com/sessao/session-core/project"
	"github.com/sessao/session-core/validate"
)

// Result is the outcome of one compile invocation. Diagnostics is empty on
// success; Model is nil unless validation fully succeeded, and generators
// receiving no model must refuse to emit code rather than guess.
type Result struct {
	Protocol    *ir.Protocol
	Graph       *graph.Graph
	Diagnostics diag.List
	Model       *codemodel.Model
}

// Valid reports whether the protocol passed construction and all four
// validation passes.
func (r *Result) Valid() bool {
	return r != nil && len(r.Diagnostics) == 0 && r.Model != nil
}

// Option configures a compile invocation.
type Option func(*config)

type config struct {
	logger *zap.Logger
}

// WithLogger routes construction and validation logging to the given
// logger. The default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// Compile runs the full pipeline on a parsed protocol: IR building, session
// graph construction, the four validation passes, and per-role projection.
//
// Construction errors (malformed IR, undefined phase references) abort
// before validation, since the passes assume a well-formed graph.
// Validation errors are collected exhaustively; if any are present the
// returned error is the diagnostic list and no model is produced. The
// computation is pure: retrying without changing the input cannot change
// the result.
func Compile(p *ast.Protocol, opts ...Option) (*Result, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger != nil {
		graph.SetLogger(cfg.logger)
		validate.SetLogger(cfg.logger)
	}

	res := &Result{}

	proto, err := ir.Build(p)
	if err != nil {
		res.Diagnostics = err.(diag.List)
		return res, err
	}
	res.Protocol = proto

	g, err := graph.Build(proto)
	if err != nil {
		res.Diagnostics = err.(diag.List)
		return res, err
	}
	res.Graph = g

	if diags := validate.Run(g); len(diags) > 0 {
		res.Diagnostics = diags
		return res, diags
	}

	projections := make(map[string]*project.Projection, len(proto.Roles))
	for _, role := range proto.Roles {
		projections[role] = project.Build(g, role)
	}
	res.Model = codemodel.New(g, projections)
	return res, nil
}
