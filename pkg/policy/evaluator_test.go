package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/acartag7/callguard/pkg/envelope"
)

func mustExpr(t *testing.T, doc string) Expr {
	t.Helper()
	var e Expr
	require.NoError(t, yaml.Unmarshal([]byte(doc), &e))
	return e
}

func testCtx() EvalContext {
	e := envelope.New("Bash", map[string]any{
		"command": "rm -rf /",
		"file":    map[string]any{"path": "/etc/passwd"},
	}, "c1", time.Now(), "s1", envelope.SideEffectIrreversible, "prod", envelope.Principal{
		ID:     "agent-1",
		Claims: map[string]any{"role": "admin"},
	})
	return EvalContext{Envelope: e}
}

func TestEvaluateLeafEquals(t *testing.T) {
	expr := mustExpr(t, "tool.name:\n  equals: Bash\n")
	r := Evaluate(testCtx(), expr, newRegexCache())
	assert.True(t, r.Truthy())
}

func TestEvaluateLeafNotEquals(t *testing.T) {
	expr := mustExpr(t, "environment:\n  not_equals: dev\n")
	r := Evaluate(testCtx(), expr, newRegexCache())
	assert.True(t, r.Truthy())
}

func TestEvaluateMissingSelectorIsFalseExceptExists(t *testing.T) {
	expr := mustExpr(t, "args.nonexistent:\n  equals: x\n")
	r := Evaluate(testCtx(), expr, newRegexCache())
	assert.False(t, r.Truthy())

	existsExpr := mustExpr(t, "args.nonexistent:\n  exists: false\n")
	r2 := Evaluate(testCtx(), existsExpr, newRegexCache())
	assert.True(t, r2.Truthy())

	existsTrueExpr := mustExpr(t, "args.nonexistent:\n  exists: true\n")
	r3 := Evaluate(testCtx(), existsTrueExpr, newRegexCache())
	assert.False(t, r3.Truthy())
}

func TestEvaluateNestedArgsPath(t *testing.T) {
	expr := mustExpr(t, "args.file.path:\n  contains: /etc/passwd\n")
	r := Evaluate(testCtx(), expr, newRegexCache())
	assert.True(t, r.Truthy())
}

func TestEvaluatePrincipalClaims(t *testing.T) {
	expr := mustExpr(t, "principal.claims.role:\n  equals: admin\n")
	r := Evaluate(testCtx(), expr, newRegexCache())
	assert.True(t, r.Truthy())
}

func TestEvaluateTypeMismatchIsPolicyError(t *testing.T) {
	expr := mustExpr(t, "args.command:\n  gt: 5\n")
	r := Evaluate(testCtx(), expr, newRegexCache())
	assert.True(t, r.IsError())
	assert.True(t, r.Truthy(), "a PolicyError must be truthy at the top level")
}

func TestPolicyErrorPropagatesThroughAll(t *testing.T) {
	expr := mustExpr(t, `
all:
  - tool.name: {equals: Bash}
  - args.command: {gt: 5}
`)
	r := Evaluate(testCtx(), expr, newRegexCache())
	assert.True(t, r.IsError())
}

func TestPolicyErrorPropagatesThroughAny(t *testing.T) {
	expr := mustExpr(t, `
any:
  - environment: {equals: dev}
  - args.command: {gt: 5}
`)
	r := Evaluate(testCtx(), expr, newRegexCache())
	assert.True(t, r.IsError())
}

func TestPolicyErrorPropagatesThroughNot(t *testing.T) {
	expr := mustExpr(t, "not:\n  args.command:\n    gt: 5\n")
	r := Evaluate(testCtx(), expr, newRegexCache())
	assert.True(t, r.IsError())
}

func TestAllIsFalseWhenAChildIsFalseWithoutError(t *testing.T) {
	expr := mustExpr(t, `
all:
  - environment: {equals: dev}
  - tool.name: {equals: Bash}
`)
	r := Evaluate(testCtx(), expr, newRegexCache())
	assert.False(t, r.IsError())
	assert.False(t, r.Truthy())
}

func TestAllErrorWinsOverEarlierFalseSibling(t *testing.T) {
	expr := mustExpr(t, `
all:
  - environment: {equals: dev}
  - args.command: {gt: 5}
`)
	r := Evaluate(testCtx(), expr, newRegexCache())
	assert.True(t, r.IsError())
}

func TestAnyErrorWinsOverEarlierTrueSibling(t *testing.T) {
	expr := mustExpr(t, `
any:
  - environment: {equals: prod}
  - args.command: {gt: 5}
`)
	r := Evaluate(testCtx(), expr, newRegexCache())
	assert.True(t, r.IsError())
}

func TestMatchesUsesPrecompiledRegex(t *testing.T) {
	cache := newRegexCache()
	require.NoError(t, cache.precompile("^rm"))
	expr := mustExpr(t, "args.command:\n  matches: \"^rm\"\n")
	r := Evaluate(testCtx(), expr, cache)
	assert.True(t, r.Truthy())
}

func TestMatchesWithoutPrecompiledRegexIsPolicyError(t *testing.T) {
	expr := mustExpr(t, "args.command:\n  matches: \"^rm\"\n")
	r := Evaluate(testCtx(), expr, newRegexCache())
	assert.True(t, r.IsError())
}

func TestInOperator(t *testing.T) {
	expr := mustExpr(t, "tool.name:\n  in: [Bash, Write]\n")
	r := Evaluate(testCtx(), expr, newRegexCache())
	assert.True(t, r.Truthy())
}
