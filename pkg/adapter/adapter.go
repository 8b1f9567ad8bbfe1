// Package adapter provides the two entrypoints an agent framework's hook
// system calls into: OnPreToolUse and OnPostToolUse, wrapping a Guard's
// Run so a framework integration only ever has to know about those two
// calls, not the pipeline underneath them. Framework-specific callback
// shapes (the concrete agent SDK's types) remain the framework adapter's
// own concern and are not implemented here.
package adapter

import (
	"context"

	"github.com/acartag7/callguard/pkg/envelope"
	"github.com/acartag7/callguard/pkg/guard"
	"github.com/acartag7/callguard/pkg/session"
)

// Adapter pairs a Guard with the session a framework integration is
// currently running calls against.
type Adapter struct {
	Guard   *guard.Guard
	Session *session.Session
}

// New builds an Adapter over g for calls belonging to s.
func New(g *guard.Guard, s *session.Session) *Adapter {
	return &Adapter{Guard: g, Session: s}
}

// OnPreToolUse runs governance for a proposed call and the underlying
// tool execution together, since this module's Guard.Run couples the two
// steps; a framework whose hook points are split pre/post should instead
// call Guard.Run directly with its own executor rather than going through
// this convenience wrapper.
func (a *Adapter) OnPreToolUse(ctx context.Context, e envelope.Envelope, exec guard.Executor) (string, error) {
	return a.Guard.Run(ctx, a.Session, e, exec)
}

// OnPostToolUse is a no-op seam for frameworks whose hook lifecycle
// exposes a separate post-call callback; Guard.Run already invokes the
// post-execution pass, so there is nothing further to do here. It exists
// so an adapter has a stable two-entrypoint shape to implement against.
func (a *Adapter) OnPostToolUse(ctx context.Context, e envelope.Envelope, output string) {}
