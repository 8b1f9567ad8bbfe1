package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acartag7/callguard/pkg/contract"
	"github.com/acartag7/callguard/pkg/envelope"
	"github.com/acartag7/callguard/pkg/session"
)

func call(tool string) envelope.Envelope {
	return envelope.New(tool, map[string]any{"x": 1}, "c1", time.Now(), "s1", envelope.SideEffectIrreversible, "prod", envelope.Principal{ID: "a"})
}

func TestAttemptLimitIsStrictlyGreaterThan(t *testing.T) {
	p := &Pipeline{Limits: Limits{MaxAttempts: 2}}
	s := session.New("s1")

	d1, _ := p.PreExecute(s, call("Bash"))
	assert.True(t, d1.Allow)
	d2, _ := p.PreExecute(s, call("Bash"))
	assert.True(t, d2.Allow)
	d3, _ := p.PreExecute(s, call("Bash"))
	assert.False(t, d3.Allow)
	assert.Equal(t, "attempt_limit", d3.DecisionSource)
}

func TestBeforeHookDenyShortCircuits(t *testing.T) {
	p := &Pipeline{
		BeforeHooks: []contract.Hook{{
			Before: func(e envelope.Envelope) contract.HookDecision { return contract.DenyDecision("blocked by hook") },
		}},
		PreContracts: []contract.Contract{contract.NewPreContract("never-runs", func(e envelope.Envelope) contract.Verdict {
			t.Fatal("pre-contract should not run after hook deny")
			return contract.Pass()
		})},
	}
	s := session.New("s1")
	d, _ := p.PreExecute(s, call("Bash"))
	assert.False(t, d.Allow)
	assert.Equal(t, "hook", d.DecisionSource)
	assert.Equal(t, "blocked by hook", d.Reason)
}

func TestBeforeHookModifyReplacesInputForDownstreamSteps(t *testing.T) {
	p := &Pipeline{
		BeforeHooks: []contract.Hook{{
			Before: func(e envelope.Envelope) contract.HookDecision {
				return contract.ModifyDecision(map[string]any{"x": 2})
			},
		}},
		PreContracts: []contract.Contract{contract.NewPreContract("check", func(e envelope.Envelope) contract.Verdict {
			if e.ToolInput()["x"] == 2 {
				return contract.Pass()
			}
			return contract.Fail("input was not modified")
		})},
	}
	s := session.New("s1")
	d, out := p.PreExecute(s, call("Bash"))
	assert.True(t, d.Allow)
	assert.Equal(t, 2, out.ToolInput()["x"])
}

func TestPreContractDenyBeforeSessionContract(t *testing.T) {
	sessionCalled := false
	p := &Pipeline{
		PreContracts: []contract.Contract{contract.NewPreContract("deny-all", func(e envelope.Envelope) contract.Verdict {
			return contract.Fail("denied by pre-contract")
		})},
		SessionContract: func(s *session.Session, e envelope.Envelope) contract.Verdict {
			sessionCalled = true
			return contract.Pass()
		},
	}
	s := session.New("s1")
	d, _ := p.PreExecute(s, call("Bash"))
	assert.False(t, d.Allow)
	assert.Equal(t, "precondition", d.DecisionSource)
	assert.False(t, sessionCalled)
}

func TestExecutionLimitIsGreaterOrEqual(t *testing.T) {
	p := &Pipeline{Limits: Limits{MaxExecutions: 1}}
	s := session.New("s1")
	s.RecordExecution(call("Bash"), true)

	d, _ := p.PreExecute(s, call("Bash"))
	assert.False(t, d.Allow)
	assert.Equal(t, "max_tool_calls", d.DecisionName)
}

func TestPerToolLimitIsGreaterOrEqual(t *testing.T) {
	p := &Pipeline{Limits: Limits{MaxToolExecutions: map[string]int{"Bash": 1}}}
	s := session.New("s1")
	s.RecordExecution(call("Bash"), true)

	d, _ := p.PreExecute(s, call("Bash"))
	assert.False(t, d.Allow)
	assert.Equal(t, "operation_limit", d.DecisionSource)
	assert.Equal(t, "max_calls_per_tool:Bash", d.DecisionName)

	other, _ := p.PreExecute(s, call("Write"))
	assert.True(t, other.Allow)
}

func TestPostExecuteNeverBlocksAndPhrasesBySideEffect(t *testing.T) {
	p := &Pipeline{
		PostContracts: []contract.Contract{contract.NewPostContract("flag", func(e envelope.Envelope, out string) contract.Verdict {
			return contract.Fail("suspicious output")
		})},
	}

	noneEffect := envelope.New("Read", nil, "c1", time.Now(), "s1", envelope.SideEffectNone, "prod", envelope.Principal{ID: "a"})
	res := p.PostExecute(noneEffect, "x")
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "retrying")

	irreversible := call("Bash")
	res2 := p.PostExecute(irreversible, "x")
	require.Len(t, res2.Warnings, 1)
	assert.Contains(t, res2.Warnings[0], "already executed")
}

func TestAfterHooksRunAndResultsAreIgnored(t *testing.T) {
	ran := false
	p := &Pipeline{
		AfterHooks: []contract.Hook{{
			After: func(e envelope.Envelope) contract.HookDecision {
				ran = true
				return contract.DenyDecision("irrelevant")
			},
		}},
	}
	res := p.PostExecute(call("Bash"), "x")
	assert.True(t, ran)
	assert.Empty(t, res.Warnings)
}
