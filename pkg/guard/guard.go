package guard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/acartag7/callguard/pkg/audit"
	"github.com/acartag7/callguard/pkg/contract"
	"github.com/acartag7/callguard/pkg/envelope"
	"github.com/acartag7/callguard/pkg/pipeline"
	"github.com/acartag7/callguard/pkg/policy"
	"github.com/acartag7/callguard/pkg/session"
)

// Mode controls how Guard.Run reacts to a denial.
type Mode int

const (
	// ModeEnforce raises Denied and never calls the executor.
	ModeEnforce Mode = iota
	// ModeObserve emits a call_would_deny audit event but executes the
	// call anyway, letting an operator watch what a policy would do
	// before switching it on.
	ModeObserve
)

// Executor runs a tool call's actual side effects and returns its
// rendered text output.
type Executor func(ctx context.Context, e envelope.Envelope) (string, error)

// Guard is the facade the rest of an agent integration talks to: it wires
// together a registry, a pipeline, an audit sink, and a policy version,
// and exposes the two entrypoints (Run, and by extension an adapter's
// pre/post hooks) documented for the governance core.
type Guard struct {
	Mode          Mode
	Registry      *envelope.ToolRegistry
	Pipeline      *pipeline.Pipeline
	Sink          audit.Sink
	PolicyVersion *string // nil for a purely programmatic guard
}

// Option configures a Guard at construction time.
type Option func(*Guard)

// WithMode sets the enforcement mode.
func WithMode(m Mode) Option { return func(g *Guard) { g.Mode = m } }

// WithSink sets the audit sink.
func WithSink(s audit.Sink) Option { return func(g *Guard) { g.Sink = s } }

// WithBeforeHook registers a before-hook.
func WithBeforeHook(h contract.Hook) Option {
	return func(g *Guard) { g.Pipeline.BeforeHooks = append(g.Pipeline.BeforeHooks, h) }
}

// WithAfterHook registers an after-hook.
func WithAfterHook(h contract.Hook) Option {
	return func(g *Guard) { g.Pipeline.AfterHooks = append(g.Pipeline.AfterHooks, h) }
}

// WithPreContract registers a programmatic pre-contract.
func WithPreContract(c contract.Contract) Option {
	return func(g *Guard) { g.Pipeline.PreContracts = append(g.Pipeline.PreContracts, c) }
}

// WithPostContract registers a programmatic post-contract.
func WithPostContract(c contract.Contract) Option {
	return func(g *Guard) { g.Pipeline.PostContracts = append(g.Pipeline.PostContracts, c) }
}

// WithLimits sets the scalar pipeline limits.
func WithLimits(l pipeline.Limits) Option {
	return func(g *Guard) { g.Pipeline.Limits = l }
}

// New builds a Guard with an empty pipeline and a stdout sink, applying
// opts in order.
func New(opts ...Option) *Guard {
	reg := envelope.NewToolRegistry()
	reg.RegisterDefaults()
	g := &Guard{
		Mode:     ModeEnforce,
		Registry: reg,
		Pipeline: &pipeline.Pipeline{},
		Sink:     audit.NewStdoutSink(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// FromYAML builds a Guard whose pre/post contracts and session limits are
// compiled from a policy bundle, stamping every audit event it emits with
// the bundle's content hash as policy_version.
func FromYAML(bundlePath string, opts ...Option) (*Guard, error) {
	cb, err := policy.LoadBundleFile(bundlePath)
	if err != nil {
		return nil, fmt.Errorf("guard: loading policy: %w", err)
	}
	contracts, limits := cb.Compile()

	g := New(opts...)
	g.PolicyVersion = &cb.Hash
	for _, c := range contracts {
		switch c.Kind {
		case contract.KindPre:
			g.Pipeline.PreContracts = append(g.Pipeline.PreContracts, c)
		case contract.KindPost:
			g.Pipeline.PostContracts = append(g.Pipeline.PostContracts, c)
		}
	}
	g.Pipeline.Limits = pipeline.Limits{
		MaxAttempts:       derefOr(limits.MaxAttempts, 0),
		MaxExecutions:     derefOr(limits.MaxExecutions, 0),
		MaxToolExecutions: limits.MaxToolExecutions,
	}
	return g, nil
}

func derefOr(p *int, fallback int) int {
	if p == nil {
		return fallback
	}
	return *p
}

// FromTemplate builds a Guard from a named built-in template. No
// templates are bundled; any name returns an "unknown template" error.
func FromTemplate(name string, opts ...Option) (*Guard, error) {
	return nil, fmt.Errorf("guard: unknown template %q", name)
}

// NewEnvelope builds an Envelope for toolName, classifying its side effect
// from the Guard's own tool registry so callers don't need to know or
// duplicate that classification themselves.
func (g *Guard) NewEnvelope(toolName string, toolInput map[string]any, callID string, timestamp time.Time, sessionID, environment string, principal envelope.Principal) envelope.Envelope {
	return envelope.New(toolName, toolInput, callID, timestamp, sessionID, g.Registry.SideEffectFor(toolName), environment, principal)
}

// Run builds an envelope's governance decision, runs the executor when
// allowed (or, in observe mode, when denied), and runs the post-execution
// pass after a successful execution. An executor failure is emitted as
// call_error (reason "cancelled" when ctx is done) and returned wrapped.
func (g *Guard) Run(ctx context.Context, s *session.Session, e envelope.Envelope, exec Executor) (string, error) {
	decision, current := g.Pipeline.PreExecute(s, e)

	for _, h := range decision.HooksEvaluated {
		if h.Action == "modify" {
			g.emit(ctx, audit.NewEvent(current.ToolName(), audit.ActionModify, "input modified by before-hook on "+h.Tool, g.PolicyVersion), current, decision)
		}
	}

	if !decision.Allow {
		if g.Mode == ModeObserve {
			g.emit(ctx, audit.NewEvent(current.ToolName(), audit.ActionWouldDeny, decision.Reason, g.PolicyVersion), current, decision)
		} else {
			g.emit(ctx, audit.NewEvent(current.ToolName(), audit.ActionDeny, decision.Reason, g.PolicyVersion), current, decision)
			return "", &Denied{Reason: decision.Reason, DecisionSource: decision.DecisionSource, DecisionName: decision.DecisionName}
		}
	}

	output, err := exec(ctx, current)
	s.RecordExecution(current, err == nil)
	if err != nil {
		reason := err.Error()
		if ctx.Err() != nil {
			reason = "cancelled"
		}
		g.emit(ctx, audit.NewEvent(current.ToolName(), audit.ActionError, reason, g.PolicyVersion), current, decision)
		return "", fmt.Errorf("guard: executor: %w", err)
	}
	if decision.Allow {
		g.emit(ctx, audit.NewEvent(current.ToolName(), audit.ActionAllow, "", g.PolicyVersion), current, decision)
	}

	post := g.Pipeline.PostExecute(current, output)
	for _, w := range post.Warnings {
		slog.Warn("post-execute warning", "tool_name", current.ToolName(), "reason", w)
	}
	return output, nil
}

func (g *Guard) emit(ctx context.Context, ev audit.Event, e envelope.Envelope, d pipeline.Decision) {
	ev.DecisionSource = d.DecisionSource
	ev.DecisionName = d.DecisionName
	ev.HooksEvaluated = d.HooksEvaluated
	ev.ContractsEvaluated = d.ContractsEvaluated
	principal := e.Principal()
	ev.Principal = &principal
	g.safeSinkEmit(ctx, ev)
}

func (g *Guard) safeSinkEmit(ctx context.Context, ev audit.Event) {
	if g.Sink == nil {
		return
	}
	if err := g.Sink.Emit(ctx, ev); err != nil {
		slog.Error("audit sink emit failed", "action", ev.Action, "call_id", ev.CallID, "error", err)
	}
}
