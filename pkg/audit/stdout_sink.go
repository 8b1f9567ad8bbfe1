package audit

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
)

// StdoutSink writes each event as one JSON line to a writer, defaulting to
// os.Stdout. Matches the logger convention of one write per event under a
// lock, guaranteeing lines from concurrent callers never interleave.
type StdoutSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewStdoutSink writes to os.Stdout.
func NewStdoutSink() *StdoutSink {
	return NewStdoutSinkWithWriter(os.Stdout)
}

// NewStdoutSinkWithWriter writes to w, allowing injection for tests.
func NewStdoutSinkWithWriter(w io.Writer) *StdoutSink {
	if w == nil {
		w = os.Stdout
	}
	return &StdoutSink{w: w}
}

func (s *StdoutSink) Emit(ctx context.Context, event Event) error {
	line, err := event.MarshalJSONL()
	if err != nil {
		return fmt.Errorf("audit: marshal event: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.w.Write(line)
	return err
}
