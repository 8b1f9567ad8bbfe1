// Package guard provides the top-level facade: construction, hook and
// contract registration, and the Run wrapper around a tool executor that
// the rest of callguard's components compose under.
package guard

import "fmt"

// Denied is returned by Run in enforce mode when the governance pipeline
// blocks a call.
type Denied struct {
	Reason         string
	DecisionSource string
	DecisionName   string
}

func (e *Denied) Error() string {
	return fmt.Sprintf("call denied (%s:%s): %s", e.DecisionSource, e.DecisionName, e.Reason)
}
