package contract

import "github.com/acartag7/callguard/pkg/envelope"

// HookAction is the action a hook asks the pipeline to take.
type HookAction int

const (
	HookAllow HookAction = iota
	HookDeny
	HookModify
)

// HookDecision is the result of running a before- or after-hook.
type HookDecision struct {
	Action    HookAction
	Reason    string
	ToolInput map[string]any // only meaningful when Action == HookModify
}

// AllowDecision lets the call proceed unchanged.
func AllowDecision() HookDecision { return HookDecision{Action: HookAllow} }

// DenyDecision blocks the call, short-circuiting the pipeline.
func DenyDecision(reason string) HookDecision { return HookDecision{Action: HookDeny, Reason: reason} }

// ModifyDecision replaces the call's tool input for every downstream step,
// including the executor itself.
func ModifyDecision(toolInput map[string]any) HookDecision {
	return HookDecision{Action: HookModify, ToolInput: toolInput}
}

// HookFunc is the callback a hook runs against a call.
type HookFunc func(e envelope.Envelope) HookDecision

// Hook pairs a before (and optionally after) callback with the tool name
// it applies to. An empty Tool matches every tool, following the
// wildcard-hook convention.
type Hook struct {
	Tool   string
	When   func(e envelope.Envelope) bool
	Before HookFunc
	After  HookFunc
}

// Matches reports whether the hook applies to e, honoring both the tool
// name wildcard and the optional predicate.
func (h Hook) Matches(e envelope.Envelope) bool {
	if h.Tool != "" && h.Tool != e.ToolName() {
		return false
	}
	if h.When != nil && !h.When(e) {
		return false
	}
	return true
}
