// Package gate defines the human-approval protocol shapes an external
// collaborator may implement to pause a call pending an async approval
// decision. The workflow's mechanics are out of scope for this module;
// Policy exists only so the pipeline has a named seam to call into.
package gate

import (
	"context"
	"errors"

	"github.com/acartag7/callguard/pkg/envelope"
)

// ErrNotImplemented is returned by the package's stub implementations.
var ErrNotImplemented = errors.New("gate: human-approval workflow not implemented")

// PendingApproval represents a call awaiting a human decision.
type PendingApproval struct {
	CallID  string
	Call    envelope.Envelope
	Pending bool
}

// Policy decides whether a call needs human approval before it may
// execute, and how to resolve a pending approval once a decision is
// made.
type Policy interface {
	RequiresApproval(ctx context.Context, e envelope.Envelope) (bool, error)
	Submit(ctx context.Context, e envelope.Envelope) (PendingApproval, error)
	Resolve(ctx context.Context, callID string) (approved bool, err error)
}

// NoGate never requires approval; it is the default when no Policy is
// configured.
type NoGate struct{}

func (NoGate) RequiresApproval(ctx context.Context, e envelope.Envelope) (bool, error) {
	return false, nil
}

func (NoGate) Submit(ctx context.Context, e envelope.Envelope) (PendingApproval, error) {
	return PendingApproval{}, ErrNotImplemented
}

func (NoGate) Resolve(ctx context.Context, callID string) (bool, error) {
	return false, ErrNotImplemented
}
