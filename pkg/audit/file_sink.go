package audit

import (
	"context"
	"fmt"
	"os"
	"sync"
)

// FileSink appends one JSON line per event to a file on disk, opening the
// file anew for each emit so a long-running process never holds a stale
// file descriptor across log rotation.
type FileSink struct {
	mu   sync.Mutex
	path string
}

// NewFileSink writes JSONL records to path, creating it if necessary.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

func (s *FileSink) Emit(ctx context.Context, event Event) error {
	line, err := event.MarshalJSONL()
	if err != nil {
		return fmt.Errorf("audit: marshal event: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("audit: open %s: %w", s.path, err)
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("audit: write %s: %w", s.path, err)
	}
	return nil
}
