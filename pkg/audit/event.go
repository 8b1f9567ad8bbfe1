// Package audit defines the structured audit event emitted for every
// governed call and the sinks that can receive it.
package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/acartag7/callguard/pkg/envelope"
)

// Action is the decision recorded on an audit event.
type Action string

const (
	ActionAllow     Action = "call_allow"
	ActionDeny      Action = "call_deny"
	ActionWouldDeny Action = "call_would_deny"
	ActionModify    Action = "call_modify"
	ActionError     Action = "call_error"
)

// ContractEvaluation records one contract's id and outcome, in the order
// it was evaluated.
type ContractEvaluation struct {
	ID     string `json:"id"`
	Passed bool   `json:"passed"`
	Reason string `json:"reason,omitempty"`
}

// HookEvaluation records one hook's outcome, in the order it ran.
type HookEvaluation struct {
	Tool   string `json:"tool"`
	When   string `json:"when"`
	Action string `json:"action"`
}

// Event is the structured record written for every decision the pipeline
// makes, matching the wire contract every sink must reproduce verbatim.
type Event struct {
	CallID             string                `json:"call_id"`
	ToolName           string                `json:"tool_name"`
	Action             Action                `json:"action"`
	Reason             string                `json:"reason"`
	Timestamp          time.Time             `json:"timestamp"`
	PolicyVersion      *string               `json:"policy_version"`
	Principal          *envelope.Principal   `json:"principal,omitempty"`
	DecisionSource     string                `json:"decision_source,omitempty"`
	DecisionName       string                `json:"decision_name,omitempty"`
	HooksEvaluated     []HookEvaluation      `json:"hooks_evaluated"`
	ContractsEvaluated []ContractEvaluation  `json:"contracts_evaluated"`
	Metadata           map[string]any        `json:"metadata,omitempty"`
}

// NewEvent builds an Event with a fresh call id and the current UTC time,
// and with the slice fields initialized (never nil) so they marshal as
// `[]` rather than `null`.
func NewEvent(toolName string, action Action, reason string, policyVersion *string) Event {
	return Event{
		CallID:             uuid.New().String(),
		ToolName:           toolName,
		Action:             action,
		Reason:             reason,
		Timestamp:          time.Now().UTC(),
		PolicyVersion:      policyVersion,
		HooksEvaluated:     []HookEvaluation{},
		ContractsEvaluated: []ContractEvaluation{},
	}
}

// MarshalJSONL renders the event as a single JSON line, UTF-8, LF
// terminated, matching the JSONL framing every file/HTTP sink uses.
func (e Event) MarshalJSONL() ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}
