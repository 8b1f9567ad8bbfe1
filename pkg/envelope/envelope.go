// Package envelope defines the immutable record of a proposed tool call and
// the registry mapping tool names to their side-effect classification.
package envelope

import (
	"maps"
	"time"
)

// SideEffect classifies the consequence of actually executing a tool call.
type SideEffect string

const (
	// SideEffectNone means the tool call has no observable effect on the
	// world beyond returning data (a pure read).
	SideEffectNone SideEffect = "none"
	// SideEffectIdempotent means repeating the call leaves the world in
	// the same state as calling it once.
	SideEffectIdempotent SideEffect = "idempotent"
	// SideEffectReversible means the call changes state but the change
	// can be undone.
	SideEffectReversible SideEffect = "reversible"
	// SideEffectIrreversible means the call changes state in a way that
	// cannot be undone.
	SideEffectIrreversible SideEffect = "irreversible"
)

// Principal identifies who (or what) is making the tool call.
type Principal struct {
	ID     string         `json:"id"`
	Claims map[string]any `json:"claims"`
}

// clone returns a copy of p with its own Claims map, defending the envelope
// against a caller that adds, replaces or deletes claims in a map it still
// holds. Nested maps or slices held as claim values are shared, not copied.
func (p Principal) clone() Principal {
	out := Principal{ID: p.ID, Claims: make(map[string]any, len(p.Claims))}
	maps.Copy(out.Claims, p.Claims)
	return out
}

// Envelope is the immutable record of one proposed tool call. Nothing in
// the package exposes a setter for it after construction; callers that want
// a modified envelope must build a new one (see WithToolInput).
type Envelope struct {
	toolName    string
	toolInput   map[string]any
	callID      string
	timestamp   time.Time
	sessionID   string
	sideEffect  SideEffect
	environment string
	principal   Principal
}

// New builds an Envelope, copying the tool input and principal claims maps
// it is handed so that later changes to the top-level keys of the caller's
// maps cannot reach back into it. Nested maps or slices inside those values
// are shared with the caller.
func New(toolName string, toolInput map[string]any, callID string, timestamp time.Time, sessionID string, sideEffect SideEffect, environment string, principal Principal) Envelope {
	input := make(map[string]any, len(toolInput))
	maps.Copy(input, toolInput)
	return Envelope{
		toolName:    toolName,
		toolInput:   input,
		callID:      callID,
		timestamp:   timestamp,
		sessionID:   sessionID,
		sideEffect:  sideEffect,
		environment: environment,
		principal:   principal.clone(),
	}
}

func (e Envelope) ToolName() string        { return e.toolName }
func (e Envelope) CallID() string          { return e.callID }
func (e Envelope) Timestamp() time.Time    { return e.timestamp }
func (e Envelope) SessionID() string       { return e.sessionID }
func (e Envelope) SideEffect() SideEffect  { return e.sideEffect }
func (e Envelope) Environment() string     { return e.environment }
func (e Envelope) Principal() Principal    { return e.principal.clone() }

// ToolInput returns a defensive copy of the call's input arguments.
func (e Envelope) ToolInput() map[string]any {
	out := make(map[string]any, len(e.toolInput))
	maps.Copy(out, e.toolInput)
	return out
}

// WithToolInput returns a new Envelope identical to e except for its
// tool input. Used by before-hooks that modify the call before it reaches
// contracts and the executor.
func (e Envelope) WithToolInput(input map[string]any) Envelope {
	e.toolInput = make(map[string]any, len(input))
	maps.Copy(e.toolInput, input)
	return e
}

// BashCommand returns the "command" argument when the tool name is exactly
// "Bash", matching the convention that the Bash tool carries its command
// line under that key.
func (e Envelope) BashCommand() (string, bool) {
	if e.toolName != "Bash" {
		return "", false
	}
	v, ok := e.toolInput["command"]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// ToDict renders the envelope as a JSON-friendly map, matching the field
// names used across the rest of the audit and policy surface.
func (e Envelope) ToDict() map[string]any {
	return map[string]any{
		"tool_name":   e.toolName,
		"tool_input":  e.ToolInput(),
		"call_id":     e.callID,
		"timestamp":   e.timestamp.UTC().Format(time.RFC3339Nano),
		"session_id":  e.sessionID,
		"side_effect": string(e.sideEffect),
		"environment": e.environment,
		"principal": map[string]any{
			"id":     e.principal.ID,
			"claims": e.principal.clone().Claims,
		},
	}
}
