// Package cost defines the CostModel protocol an external collaborator
// may plug into a pipeline to estimate the cost of a call. Cost modeling
// semantics are out of scope for this module; only the interface shape is
// carried so a caller can supply one without callguard needing to know
// its internals.
package cost

import "github.com/acartag7/callguard/pkg/envelope"

// Model estimates the cost of executing a proposed call.
type Model interface {
	EstimateCost(e envelope.Envelope) float64
}

// DefaultModel always reports zero cost; it exists so a Guard can be
// constructed without a real cost model configured.
type DefaultModel struct{}

func (DefaultModel) EstimateCost(e envelope.Envelope) float64 { return 0 }
