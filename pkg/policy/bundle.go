// Package policy implements the declarative YAML policy engine: the
// bundle grammar, JSON-Schema validation, deterministic hashing, the
// selector/operator expression evaluator, and compilation down to the
// same contract.Contract interface programmatic contracts use.
package policy

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// SupportedAPIVersion is the only api_version this loader accepts.
const SupportedAPIVersion = "callguard/v1"

// Bundle is the parsed form of a policy YAML document, before compilation.
type Bundle struct {
	APIVersion string         `yaml:"api_version" json:"api_version"`
	Contracts  []ContractSpec `yaml:"contracts" json:"contracts"`
}

// ContractSpec is one contract entry in a bundle.
type ContractSpec struct {
	ID   string `yaml:"id" json:"id"`
	Type string `yaml:"type" json:"type"` // "pre", "post", or "session"

	// When is the condition tree. For pre/post contracts it is evaluated
	// against the call (and, for post, the output); when it evaluates
	// truthy the contract denies with Then.Reason. Absent for session
	// contracts, which instead carry Limits.
	When *Expr `yaml:"when,omitempty" json:"when,omitempty"`

	Then *ThenSpec `yaml:"then,omitempty" json:"then,omitempty"`

	Limits *LimitsSpec `yaml:"limits,omitempty" json:"limits,omitempty"`
}

// ThenSpec is the action a pre/post contract takes when its condition
// matches.
type ThenSpec struct {
	Action string `yaml:"action" json:"action"` // currently only "deny"
	Reason string `yaml:"reason" json:"reason"`
}

// LimitsSpec is the set of session-scoped ceilings a session contract
// enforces.
type LimitsSpec struct {
	MaxAttempts       *int           `yaml:"max_attempts,omitempty" json:"max_attempts,omitempty"`
	MaxExecutions     *int           `yaml:"max_executions,omitempty" json:"max_executions,omitempty"`
	MaxToolExecutions map[string]int `yaml:"max_tool_executions,omitempty" json:"max_tool_executions,omitempty"`
	Reason            string         `yaml:"reason,omitempty" json:"reason,omitempty"`
}

// Expr is a node in the selector/operator/boolean expression tree.
//
// A leaf is written as a single-key mapping whose key is the selector and
// whose value is itself a single-key mapping of operator to operand:
//
//	tool.name:
//	  equals: Bash
//
// A boolean node is written with exactly one of the reserved keys "all",
// "any", or "not":
//
//	all:
//	  - tool.name: {equals: Bash}
//	  - environment: {equals: prod}
//
// Exactly one of Selector (leaf) or All/Any/Not (boolean) is populated
// after unmarshaling.
type Expr struct {
	Selector string
	Operator string
	Operand  any

	All []Expr
	Any []Expr
	Not *Expr
}

// UnmarshalYAML implements custom decoding for the dynamic-key leaf shape
// the grammar requires; yaml.v3's struct tags cannot express "the key
// name is itself data".
func (e *Expr) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("policy: expression node must be a mapping, got %v", node.Kind)
	}
	if len(node.Content) != 2 {
		return fmt.Errorf("policy: expression node must have exactly one key, got %d", len(node.Content)/2)
	}
	key := node.Content[0].Value
	value := node.Content[1]

	switch key {
	case "all":
		var children []Expr
		if err := value.Decode(&children); err != nil {
			return fmt.Errorf("policy: decoding \"all\": %w", err)
		}
		e.All = children
		return nil
	case "any":
		var children []Expr
		if err := value.Decode(&children); err != nil {
			return fmt.Errorf("policy: decoding \"any\": %w", err)
		}
		e.Any = children
		return nil
	case "not":
		var child Expr
		if err := value.Decode(&child); err != nil {
			return fmt.Errorf("policy: decoding \"not\": %w", err)
		}
		e.Not = &child
		return nil
	default:
		// key is the selector; value must itself be a single-key mapping
		// of operator -> operand.
		if value.Kind != yaml.MappingNode || len(value.Content) != 2 {
			return fmt.Errorf("policy: selector %q must map to a single operator", key)
		}
		e.Selector = key
		e.Operator = value.Content[0].Value
		var operand any
		if err := value.Content[1].Decode(&operand); err != nil {
			return fmt.Errorf("policy: decoding operand for selector %q: %w", key, err)
		}
		e.Operand = operand
		return nil
	}
}

// IsLeaf reports whether e is a selector/operator leaf rather than a
// boolean composition node.
func (e Expr) IsLeaf() bool {
	return e.Selector != ""
}
