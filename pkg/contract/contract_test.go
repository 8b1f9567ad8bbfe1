package contract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acartag7/callguard/pkg/envelope"
	"github.com/acartag7/callguard/pkg/session"
)

func testEnvelope(tool string) envelope.Envelope {
	return envelope.New(tool, map[string]any{"path": "/etc/passwd"}, "c1", time.Now(), "s1", envelope.SideEffectIrreversible, "prod", envelope.Principal{ID: "agent"})
}

func TestPreContractCheck(t *testing.T) {
	c := NewPreContract("no-etc", func(e envelope.Envelope) Verdict {
		if e.ToolInput()["path"] == "/etc/passwd" {
			return Fail("refuses to touch /etc/passwd")
		}
		return Pass()
	})

	require.Equal(t, KindPre, c.Kind)
	v := c.CheckPre(testEnvelope("Read"))
	assert.False(t, v.OK)
	assert.Equal(t, "refuses to touch /etc/passwd", v.Reason)
}

func TestPostContractCheck(t *testing.T) {
	c := NewPostContract("no-secrets-in-output", func(e envelope.Envelope, output string) Verdict {
		if output == "leaked" {
			return Fail("output leaked a secret")
		}
		return Pass()
	})
	require.Equal(t, KindPost, c.Kind)
	assert.True(t, c.CheckPost(testEnvelope("Read"), "fine").OK)
	assert.False(t, c.CheckPost(testEnvelope("Read"), "leaked").OK)
}

func TestSessionContractCheck(t *testing.T) {
	c := NewSessionContract("max-bash", func(s *session.Session, e envelope.Envelope) Verdict {
		if s.ToolExecutionCount("Bash") >= 2 {
			return Fail("too many bash calls")
		}
		return Pass()
	})
	require.Equal(t, KindSession, c.Kind)

	s := session.New("s1")
	assert.True(t, c.CheckSession(s, testEnvelope("Bash")).OK)
	s.RecordExecution(testEnvelope("Bash"), true)
	s.RecordExecution(testEnvelope("Bash"), true)
	assert.False(t, c.CheckSession(s, testEnvelope("Bash")).OK)
}

func TestHookWildcardAndPredicate(t *testing.T) {
	h := Hook{Tool: "", When: func(e envelope.Envelope) bool { return e.ToolName() == "Bash" }}
	assert.True(t, h.Matches(testEnvelope("Bash")))
	assert.False(t, h.Matches(testEnvelope("Read")))

	scoped := Hook{Tool: "Read"}
	assert.True(t, scoped.Matches(testEnvelope("Read")))
	assert.False(t, scoped.Matches(testEnvelope("Bash")))
}

func TestHookDecisions(t *testing.T) {
	assert.Equal(t, HookAllow, AllowDecision().Action)
	d := DenyDecision("nope")
	assert.Equal(t, HookDeny, d.Action)
	assert.Equal(t, "nope", d.Reason)

	m := ModifyDecision(map[string]any{"path": "/tmp/safe"})
	assert.Equal(t, HookModify, m.Action)
	assert.Equal(t, "/tmp/safe", m.ToolInput["path"])
}
