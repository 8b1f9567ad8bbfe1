// Package contract defines the pre/post/session contract shapes and the
// before/after hook shapes evaluated by the governance pipeline.
package contract

// Verdict is the uniform result returned by a contract check.
type Verdict struct {
	OK     bool
	Reason string
}

// Pass returns a satisfied verdict.
func Pass() Verdict {
	return Verdict{OK: true}
}

// Fail returns an unsatisfied verdict carrying the reason a reviewer or
// audit event should surface.
func Fail(reason string) Verdict {
	return Verdict{OK: false, Reason: reason}
}
