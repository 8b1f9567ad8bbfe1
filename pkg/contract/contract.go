package contract

import (
	"github.com/acartag7/callguard/pkg/envelope"
	"github.com/acartag7/callguard/pkg/session"
)

// Kind distinguishes the three contract shapes a Contract can wrap. Keeping
// this as an explicit tag (rather than relying on which closure field is
// non-nil) makes the pipeline's dispatch exhaustive and obvious at a
// glance.
type Kind int

const (
	KindPre Kind = iota
	KindPost
	KindSession
)

// PreFunc evaluates a proposed call before execution.
type PreFunc func(e envelope.Envelope) Verdict

// PostFunc evaluates a call's outcome after execution. outputText is the
// tool's rendered output, when available.
type PostFunc func(e envelope.Envelope, outputText string) Verdict

// SessionFunc evaluates session-level state (counters, history) rather
// than any single call.
type SessionFunc func(s *session.Session, e envelope.Envelope) Verdict

// Contract is an explicit tagged variant over the three contract shapes.
// The source material expressed these as duck-typed decorated callables;
// here construction goes through NewPreContract/NewPostContract/
// NewSessionContract so the kind and id are always paired with the right
// closure type.
type Contract struct {
	ID      string
	Kind    Kind
	pre     PreFunc
	post    PostFunc
	session SessionFunc
}

// NewPreContract builds a pre-execution contract.
func NewPreContract(id string, fn PreFunc) Contract {
	return Contract{ID: id, Kind: KindPre, pre: fn}
}

// NewPostContract builds a post-execution contract.
func NewPostContract(id string, fn PostFunc) Contract {
	return Contract{ID: id, Kind: KindPost, post: fn}
}

// NewSessionContract builds a session-level contract.
func NewSessionContract(id string, fn SessionFunc) Contract {
	return Contract{ID: id, Kind: KindSession, session: fn}
}

// CheckPre runs the contract's pre-execution check. Callers must only
// invoke this on a KindPre contract.
func (c Contract) CheckPre(e envelope.Envelope) Verdict {
	return c.pre(e)
}

// CheckPost runs the contract's post-execution check. Callers must only
// invoke this on a KindPost contract.
func (c Contract) CheckPost(e envelope.Envelope, outputText string) Verdict {
	return c.post(e, outputText)
}

// CheckSession runs the contract's session-level check. Callers must only
// invoke this on a KindSession contract.
func (c Contract) CheckSession(s *session.Session, e envelope.Envelope) Verdict {
	return c.session(s, e)
}
