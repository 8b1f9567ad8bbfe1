// Package pipeline implements the ordered governance evaluation the rest
// of callguard builds on: rate/attempt limits, hooks, pre/post/session
// contracts, and per-tool limits, in the one order that determines what a
// call is allowed to do.
package pipeline

import (
	"github.com/acartag7/callguard/pkg/audit"
	"github.com/acartag7/callguard/pkg/contract"
	"github.com/acartag7/callguard/pkg/envelope"
	"github.com/acartag7/callguard/pkg/session"
)

// Limits are the scalar ceilings enforced directly by the pipeline,
// outside of any contract.
type Limits struct {
	MaxAttempts       int // 0 means unlimited
	MaxExecutions     int
	MaxToolExecutions map[string]int
}

// Decision is the outcome of a pre-execution pass.
type Decision struct {
	Allow              bool
	Reason             string
	DecisionSource     string // "attempt_limit", "hook", "precondition", "session_contract", "operation_limit", or "" when allowed
	DecisionName       string
	HooksEvaluated     []audit.HookEvaluation
	ContractsEvaluated []audit.ContractEvaluation
}

// Pipeline holds every registered hook and contract plus the scalar
// limits, and runs the ordered pre/post evaluation passes against a
// session and a proposed call.
type Pipeline struct {
	BeforeHooks     []contract.Hook
	AfterHooks      []contract.Hook
	PreContracts    []contract.Contract
	SessionContract func(s *session.Session, e envelope.Envelope) contract.Verdict
	PostContracts   []contract.Contract
	Limits          Limits
}

// PreExecute runs the seven-step ordered check before a call is allowed to
// execute: attempt limit, before-hooks, pre-contracts, session contract,
// execution limit, per-tool limit, then allow. Every hook and contract
// evaluated is recorded in evaluation order, including the one that
// short-circuits; the limit steps are reported only through the decision's
// source and name.
func (p *Pipeline) PreExecute(s *session.Session, e envelope.Envelope) (Decision, envelope.Envelope) {
	d := Decision{Allow: true, HooksEvaluated: []audit.HookEvaluation{}, ContractsEvaluated: []audit.ContractEvaluation{}}

	attempt := s.BeginAttempt()
	if p.Limits.MaxAttempts > 0 && attempt > p.Limits.MaxAttempts {
		d.Allow = false
		d.Reason = "attempt limit exceeded"
		d.DecisionSource = "attempt_limit"
		d.DecisionName = "max_attempts"
		return d, e
	}

	current := e
	for _, hook := range p.BeforeHooks {
		if !hook.Matches(current) {
			continue
		}
		decision := hook.Before(current)
		d.HooksEvaluated = append(d.HooksEvaluated, audit.HookEvaluation{
			Tool: hook.Tool, When: "before", Action: hookActionName(decision.Action),
		})
		switch decision.Action {
		case contract.HookDeny:
			d.Allow = false
			d.Reason = decision.Reason
			d.DecisionSource = "hook"
			d.DecisionName = hook.Tool
			return d, current
		case contract.HookModify:
			current = current.WithToolInput(decision.ToolInput)
		}
	}

	for _, c := range p.PreContracts {
		v := c.CheckPre(current)
		d.ContractsEvaluated = append(d.ContractsEvaluated, audit.ContractEvaluation{ID: c.ID, Passed: v.OK, Reason: v.Reason})
		if !v.OK {
			d.Allow = false
			d.Reason = v.Reason
			d.DecisionSource = "precondition"
			d.DecisionName = c.ID
			return d, current
		}
	}

	if p.SessionContract != nil {
		v := p.SessionContract(s, current)
		d.ContractsEvaluated = append(d.ContractsEvaluated, audit.ContractEvaluation{ID: "session", Passed: v.OK, Reason: v.Reason})
		if !v.OK {
			d.Allow = false
			d.Reason = v.Reason
			d.DecisionSource = "session_contract"
			d.DecisionName = "session"
			return d, current
		}
	}

	if p.Limits.MaxExecutions > 0 && s.ExecutionCount() >= p.Limits.MaxExecutions {
		d.Allow = false
		d.Reason = "execution limit exceeded"
		d.DecisionSource = "operation_limit"
		d.DecisionName = "max_tool_calls"
		return d, current
	}

	if n, ok := p.Limits.MaxToolExecutions[current.ToolName()]; ok && s.ToolExecutionCount(current.ToolName()) >= n {
		d.Allow = false
		d.Reason = "per-tool execution limit exceeded for " + current.ToolName()
		d.DecisionSource = "operation_limit"
		d.DecisionName = "max_calls_per_tool:" + current.ToolName()
		return d, current
	}

	return d, current
}

// PostResult is the observation-only outcome of a post-execution pass.
// It never blocks; it only produces warnings for the audit trail.
type PostResult struct {
	Warnings           []string
	ContractsEvaluated []audit.ContractEvaluation
	HooksEvaluated     []audit.HookEvaluation
}

// PostExecute runs post-contracts (producing warnings only) followed by
// after-hooks (whose results are ignored). It is called whenever an
// execution actually took place.
func (p *Pipeline) PostExecute(e envelope.Envelope, outputText string) PostResult {
	res := PostResult{ContractsEvaluated: []audit.ContractEvaluation{}, HooksEvaluated: []audit.HookEvaluation{}}

	for _, c := range p.PostContracts {
		v := c.CheckPost(e, outputText)
		res.ContractsEvaluated = append(res.ContractsEvaluated, audit.ContractEvaluation{ID: c.ID, Passed: v.OK, Reason: v.Reason})
		if !v.OK {
			res.Warnings = append(res.Warnings, warningFor(e, v.Reason))
		}
	}

	for _, hook := range p.AfterHooks {
		if !hook.Matches(e) || hook.After == nil {
			continue
		}
		decision := hook.After(e)
		res.HooksEvaluated = append(res.HooksEvaluated, audit.HookEvaluation{
			Tool: hook.Tool, When: "after", Action: hookActionName(decision.Action),
		})
	}

	return res
}

func warningFor(e envelope.Envelope, reason string) string {
	if e.SideEffect() == envelope.SideEffectNone {
		return reason + " (consider retrying with different input)"
	}
	return reason + " (tool already executed; side effects may already have occurred)"
}

func hookActionName(a contract.HookAction) string {
	switch a {
	case contract.HookAllow:
		return "allow"
	case contract.HookDeny:
		return "deny"
	case contract.HookModify:
		return "modify"
	default:
		return "unknown"
	}
}
