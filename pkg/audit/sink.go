package audit

import "context"

// Sink receives every audit event the pipeline emits. Emit may return an
// error; the Guard logs it and it never changes a governance decision.
type Sink interface {
	Emit(ctx context.Context, event Event) error
}

// SinkFunc adapts a plain function to the Sink interface.
type SinkFunc func(ctx context.Context, event Event) error

func (f SinkFunc) Emit(ctx context.Context, event Event) error { return f(ctx, event) }

// MultiSink fans one event out to several sinks, not stopping on
// individual failures, and returns the first error encountered.
type MultiSink struct {
	Sinks []Sink
}

func (m MultiSink) Emit(ctx context.Context, event Event) error {
	var firstErr error
	for _, s := range m.Sinks {
		if err := s.Emit(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
