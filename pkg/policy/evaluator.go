package policy

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/acartag7/callguard/pkg/envelope"
)

// EvalResult is the tri-state outcome of evaluating an expression:
// true, false, or a PolicyError carrying a human-readable message. It is
// deliberately not a Go error — a PolicyError is data that propagates
// through the boolean operators and is itself a valid evaluation outcome.
type EvalResult struct {
	value    bool
	isError  bool
	errorMsg string
}

func True() EvalResult  { return EvalResult{value: true} }
func False() EvalResult { return EvalResult{value: false} }
func PolicyErr(format string, args ...any) EvalResult {
	return EvalResult{isError: true, errorMsg: fmt.Sprintf(format, args...)}
}

func (r EvalResult) IsError() bool    { return r.isError }
func (r EvalResult) Error() string    { return r.errorMsg }
func (r EvalResult) Bool() bool       { return r.value }

// Truthy is how a top-level result is interpreted by a contract: an error
// is treated as "condition met" (fail closed, deny side), matching a
// plain true.
func (r EvalResult) Truthy() bool {
	if r.isError {
		return true
	}
	return r.value
}

// EvalContext bundles everything a selector may resolve against.
type EvalContext struct {
	Envelope   envelope.Envelope
	OutputText *string // nil unless evaluating a post-contract
}

// regexCache holds precompiled regular expressions for "matches" and
// "matches_any" operators, keyed by pattern, populated once at load time
// so evaluation never compiles a regex on the hot path.
type regexCache struct {
	mu    sync.RWMutex
	cache map[string]*regexp.Regexp
}

func newRegexCache() *regexCache {
	return &regexCache{cache: make(map[string]*regexp.Regexp)}
}

func (c *regexCache) precompile(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.cache[pattern] = re
	c.mu.Unlock()
	return nil
}

func (c *regexCache) get(pattern string) (*regexp.Regexp, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	re, ok := c.cache[pattern]
	return re, ok
}

// resolved wraps a selector's resolution: present is false both when the
// selector had no value and when it resolved to nil, per the rule that a
// present-but-nil value counts as absent for both comparisons and `exists`.
type resolved struct {
	value   any
	present bool
}

func resolveSelector(ctx EvalContext, selector string) resolved {
	switch {
	case selector == "environment":
		return resolved{value: ctx.Envelope.Environment(), present: true}
	case selector == "tool.name":
		return resolved{value: ctx.Envelope.ToolName(), present: true}
	case selector == "output.text":
		if ctx.OutputText == nil {
			return resolved{present: false}
		}
		return resolved{value: *ctx.OutputText, present: true}
	case strings.HasPrefix(selector, "args."):
		path := strings.TrimPrefix(selector, "args.")
		return lookupPath(ctx.Envelope.ToolInput(), path)
	case selector == "principal.id":
		return resolved{value: ctx.Envelope.Principal().ID, present: true}
	case strings.HasPrefix(selector, "principal.claims."):
		key := strings.TrimPrefix(selector, "principal.claims.")
		v, ok := ctx.Envelope.Principal().Claims[key]
		if !ok {
			return resolved{present: false}
		}
		return resolved{value: v, present: true}
	case strings.HasPrefix(selector, "principal."):
		return resolved{present: false} // unrecognized principal field
	default:
		return resolved{present: false}
	}
}

// lookupPath walks a dotted path (e.g. "file.path") through nested maps.
// A present-but-nil value at the end of the path is reported as absent,
// per the grammar's missing-value rule.
func lookupPath(m map[string]any, path string) resolved {
	parts := strings.Split(path, ".")
	var cur any = m
	for _, part := range parts {
		asMap, ok := cur.(map[string]any)
		if !ok {
			return resolved{present: false}
		}
		v, ok := asMap[part]
		if !ok {
			return resolved{present: false}
		}
		cur = v
	}
	if cur == nil {
		return resolved{present: false}
	}
	return resolved{value: cur, present: true}
}

// Evaluate walks the expression tree and returns its tri-state result.
func Evaluate(ctx EvalContext, expr Expr, cache *regexCache) EvalResult {
	if len(expr.All) > 0 {
		return evalAll(ctx, expr.All, cache)
	}
	if len(expr.Any) > 0 {
		return evalAny(ctx, expr.Any, cache)
	}
	if expr.Not != nil {
		return evalNot(ctx, *expr.Not, cache)
	}
	if expr.IsLeaf() {
		return evalLeaf(ctx, expr, cache)
	}
	return PolicyErr("empty expression node")
}

// evalAll evaluates every child regardless of an intermediate false result:
// a PolicyError anywhere in the list must win over a false sibling, so a
// false short-circuit cannot be taken before every child has been checked
// for an error.
func evalAll(ctx EvalContext, children []Expr, cache *regexCache) EvalResult {
	sawError := false
	allTrue := true
	for _, c := range children {
		r := Evaluate(ctx, c, cache)
		if r.IsError() {
			sawError = true
			continue
		}
		if !r.Bool() {
			allTrue = false
		}
	}
	if sawError {
		return PolicyErr("error encountered while evaluating \"all\"")
	}
	if !allTrue {
		return False()
	}
	return True()
}

// evalAny mirrors evalAll's fail-closed discipline: a PolicyError anywhere
// in the list wins over a true sibling.
func evalAny(ctx EvalContext, children []Expr, cache *regexCache) EvalResult {
	sawError := false
	anyTrue := false
	for _, c := range children {
		r := Evaluate(ctx, c, cache)
		if r.IsError() {
			sawError = true
			continue
		}
		if r.Bool() {
			anyTrue = true
		}
	}
	if sawError {
		return PolicyErr("error encountered while evaluating \"any\"")
	}
	if anyTrue {
		return True()
	}
	return False()
}

func evalNot(ctx EvalContext, child Expr, cache *regexCache) EvalResult {
	r := Evaluate(ctx, child, cache)
	if r.IsError() {
		return r
	}
	if r.Bool() {
		return False()
	}
	return True()
}

func evalLeaf(ctx EvalContext, expr Expr, cache *regexCache) EvalResult {
	res := resolveSelector(ctx, expr.Selector)

	if expr.Operator == "exists" {
		want, ok := expr.Operand.(bool)
		if !ok {
			return PolicyErr("operator \"exists\" requires a boolean operand for selector %q", expr.Selector)
		}
		return boolResult(res.present == want)
	}

	if !res.present {
		return False()
	}

	switch expr.Operator {
	case "equals":
		return equalityResult(res.value, expr.Operand, true)
	case "not_equals":
		return equalityResult(res.value, expr.Operand, false)
	case "in":
		return membershipResult(res.value, expr.Operand, true)
	case "not_in":
		return membershipResult(res.value, expr.Operand, false)
	case "contains":
		return containsResult(res.value, expr.Operand)
	case "contains_any":
		return containsAnyResult(res.value, expr.Operand)
	case "starts_with":
		return stringPredicateResult(res.value, expr.Operand, strings.HasPrefix)
	case "ends_with":
		return stringPredicateResult(res.value, expr.Operand, strings.HasSuffix)
	case "matches":
		return matchesResult(res.value, expr.Operand, cache)
	case "matches_any":
		return matchesAnyResult(res.value, expr.Operand, cache)
	case "gt", "gte", "lt", "lte":
		return compareResult(res.value, expr.Operand, expr.Operator)
	default:
		return PolicyErr("unknown operator %q for selector %q", expr.Operator, expr.Selector)
	}
}

func boolResult(b bool) EvalResult {
	if b {
		return True()
	}
	return False()
}

func equalityResult(value, operand any, wantEqual bool) EvalResult {
	eq := fmt.Sprintf("%v", value) == fmt.Sprintf("%v", operand) && sameKind(value, operand)
	return boolResult(eq == wantEqual)
}

// sameKind guards against "5" (string) equalling 5 (int) by coincidence of
// %v formatting.
func sameKind(a, b any) bool {
	switch a.(type) {
	case string:
		_, ok := b.(string)
		return ok
	case bool:
		_, ok := b.(bool)
		return ok
	default:
		_, aIsNum := toFloat(a)
		_, bIsNum := toFloat(b)
		return aIsNum && bIsNum
	}
}

func membershipResult(value, operand any, wantIn bool) EvalResult {
	list, ok := operand.([]any)
	if !ok {
		return PolicyErr("operator expects a list operand, got %T", operand)
	}
	found := false
	for _, item := range list {
		if sameKind(value, item) && fmt.Sprintf("%v", value) == fmt.Sprintf("%v", item) {
			found = true
			break
		}
	}
	return boolResult(found == wantIn)
}

func containsResult(value, operand any) EvalResult {
	s, ok := value.(string)
	if !ok {
		return PolicyErr("operator \"contains\" requires a string value, got %T", value)
	}
	sub, ok := operand.(string)
	if !ok {
		return PolicyErr("operator \"contains\" requires a string operand, got %T", operand)
	}
	return boolResult(strings.Contains(s, sub))
}

func containsAnyResult(value, operand any) EvalResult {
	s, ok := value.(string)
	if !ok {
		return PolicyErr("operator \"contains_any\" requires a string value, got %T", value)
	}
	list, ok := operand.([]any)
	if !ok {
		return PolicyErr("operator \"contains_any\" requires a list operand, got %T", operand)
	}
	for _, item := range list {
		sub, ok := item.(string)
		if !ok {
			return PolicyErr("operator \"contains_any\" requires string operand entries")
		}
		if strings.Contains(s, sub) {
			return True()
		}
	}
	return False()
}

func stringPredicateResult(value, operand any, pred func(s, prefix string) bool) EvalResult {
	s, ok := value.(string)
	if !ok {
		return PolicyErr("operator requires a string value, got %T", value)
	}
	sub, ok := operand.(string)
	if !ok {
		return PolicyErr("operator requires a string operand, got %T", operand)
	}
	return boolResult(pred(s, sub))
}

func matchesResult(value, operand any, cache *regexCache) EvalResult {
	s, ok := value.(string)
	if !ok {
		return PolicyErr("operator \"matches\" requires a string value, got %T", value)
	}
	pattern, ok := operand.(string)
	if !ok {
		return PolicyErr("operator \"matches\" requires a string operand, got %T", operand)
	}
	re, ok := cache.get(pattern)
	if !ok {
		return PolicyErr("regex %q was not precompiled", pattern)
	}
	return boolResult(re.MatchString(s))
}

func matchesAnyResult(value, operand any, cache *regexCache) EvalResult {
	s, ok := value.(string)
	if !ok {
		return PolicyErr("operator \"matches_any\" requires a string value, got %T", value)
	}
	list, ok := operand.([]any)
	if !ok {
		return PolicyErr("operator \"matches_any\" requires a list operand, got %T", operand)
	}
	for _, item := range list {
		pattern, ok := item.(string)
		if !ok {
			return PolicyErr("operator \"matches_any\" requires string operand entries")
		}
		re, ok := cache.get(pattern)
		if !ok {
			return PolicyErr("regex %q was not precompiled", pattern)
		}
		if re.MatchString(s) {
			return True()
		}
	}
	return False()
}

func compareResult(value, operand any, op string) EvalResult {
	v, ok := toFloat(value)
	if !ok {
		return PolicyErr("operator %q requires a numeric value, got %T", op, value)
	}
	o, ok := toFloat(operand)
	if !ok {
		return PolicyErr("operator %q requires a numeric operand, got %T", op, operand)
	}
	switch op {
	case "gt":
		return boolResult(v > o)
	case "gte":
		return boolResult(v >= o)
	case "lt":
		return boolResult(v < o)
	case "lte":
		return boolResult(v <= o)
	default:
		return PolicyErr("unknown comparison operator %q", op)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
