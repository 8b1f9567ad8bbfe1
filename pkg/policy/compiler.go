package policy

import (
	"github.com/acartag7/callguard/pkg/contract"
	"github.com/acartag7/callguard/pkg/envelope"
	"github.com/acartag7/callguard/pkg/session"
)

// SessionLimits is the compiled, merged form of every session-type
// contract's limits in a bundle.
type SessionLimits struct {
	MaxAttempts       *int
	MaxExecutions     *int
	MaxToolExecutions map[string]int
}

// Compile lowers a validated bundle into programmatic contracts. Pre and
// post contracts become contract.Contract values indistinguishable from
// ones built directly with contract.NewPreContract/NewPostContract;
// session-type contracts are instead merged into a single SessionLimits,
// since the pipeline enforces session ceilings as counters rather than
// per-call predicate contracts.
func (cb *CompiledBundle) Compile() ([]contract.Contract, SessionLimits) {
	var contracts []contract.Contract
	limits := SessionLimits{MaxToolExecutions: map[string]int{}}

	for _, spec := range cb.Bundle.Contracts {
		spec := spec
		switch spec.Type {
		case "pre":
			contracts = append(contracts, contract.NewPreContract(spec.ID, cb.preFunc(spec)))
		case "post":
			contracts = append(contracts, contract.NewPostContract(spec.ID, cb.postFunc(spec)))
		case "session":
			mergeLimits(&limits, spec.Limits)
		}
	}
	return contracts, limits
}

func (cb *CompiledBundle) preFunc(spec ContractSpec) contract.PreFunc {
	return func(e envelope.Envelope) contract.Verdict {
		if spec.When == nil {
			return contract.Pass()
		}
		result := Evaluate(EvalContext{Envelope: e}, *spec.When, cb.regex)
		if result.Truthy() {
			return contract.Fail(reasonFor(spec, result))
		}
		return contract.Pass()
	}
}

func (cb *CompiledBundle) postFunc(spec ContractSpec) contract.PostFunc {
	return func(e envelope.Envelope, output string) contract.Verdict {
		if spec.When == nil {
			return contract.Pass()
		}
		result := Evaluate(EvalContext{Envelope: e, OutputText: &output}, *spec.When, cb.regex)
		if result.Truthy() {
			return contract.Fail(reasonFor(spec, result))
		}
		return contract.Pass()
	}
}

func reasonFor(spec ContractSpec, result EvalResult) string {
	if result.IsError() {
		return result.Error()
	}
	if spec.Then != nil {
		return spec.Then.Reason
	}
	return "policy contract " + spec.ID + " denied the call"
}

func mergeLimits(dst *SessionLimits, src *LimitsSpec) {
	if src == nil {
		return
	}
	if src.MaxAttempts != nil && (dst.MaxAttempts == nil || *src.MaxAttempts < *dst.MaxAttempts) {
		dst.MaxAttempts = src.MaxAttempts
	}
	if src.MaxExecutions != nil && (dst.MaxExecutions == nil || *src.MaxExecutions < *dst.MaxExecutions) {
		dst.MaxExecutions = src.MaxExecutions
	}
	for tool, n := range src.MaxToolExecutions {
		if existing, ok := dst.MaxToolExecutions[tool]; !ok || n < existing {
			dst.MaxToolExecutions[tool] = n
		}
	}
}

// Check evaluates the merged session limits against the
// current session state for a proposed call, returning a contract.Verdict
// consistent with a programmatic session contract's shape.
func (l SessionLimits) Check(s *session.Session, e envelope.Envelope) contract.Verdict {
	if l.MaxAttempts != nil && s.AttemptCount() > *l.MaxAttempts {
		return contract.Fail("session attempt limit exceeded")
	}
	if l.MaxExecutions != nil && s.ExecutionCount() >= *l.MaxExecutions {
		return contract.Fail("session execution limit exceeded")
	}
	if n, ok := l.MaxToolExecutions[e.ToolName()]; ok && s.ToolExecutionCount(e.ToolName()) >= n {
		return contract.Fail("per-tool execution limit exceeded for " + e.ToolName())
	}
	return contract.Pass()
}
