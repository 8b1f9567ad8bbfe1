// Package session tracks per-session call counters and history. All
// mutating methods are safe for concurrent use by multiple goroutines
// evaluating calls against the same session, matching the governance
// pipeline's requirement that limit checks be atomic with respect to
// concurrent callers.
package session

import (
	"sync"

	"github.com/acartag7/callguard/pkg/envelope"
)

// Record is one completed entry in a session's call history.
type Record struct {
	Envelope envelope.Envelope
	Executed bool
}

// Session holds the mutable state shared across calls made within one
// agent run: how many calls have been attempted, how many actually
// executed, and a per-tool execution tally.
type Session struct {
	mu              sync.Mutex
	id              string
	attemptCount    int
	executionCount  int
	toolExecutions  map[string]int
	history         []Record
}

// New returns an empty session with the given id.
func New(id string) *Session {
	return &Session{id: id, toolExecutions: make(map[string]int)}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// AttemptCount returns the number of calls attempted so far.
func (s *Session) AttemptCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attemptCount
}

// ExecutionCount returns the number of calls that actually executed.
func (s *Session) ExecutionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.executionCount
}

// ToolExecutionCount returns how many times toolName has executed in this
// session.
func (s *Session) ToolExecutionCount(toolName string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.toolExecutions[toolName]
}

// CallCount is an alias for AttemptCount, matching the source material's
// call_count convention.
func (s *Session) CallCount() int {
	return s.AttemptCount()
}

// BeginAttempt increments the attempt counter and returns the new count.
// It is called once per call, before any limit check consults it.
func (s *Session) BeginAttempt() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attemptCount++
	return s.attemptCount
}

// RecordExecution appends a completed call to the session's history and,
// if executed is true, increments the execution counters. It must be
// called under the same external serialization the pipeline already
// provides per call, but is itself safe to call concurrently across
// sessions (or, defensively, the same session).
func (s *Session) RecordExecution(e envelope.Envelope, executed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, Record{Envelope: e, Executed: executed})
	if executed {
		s.executionCount++
		s.toolExecutions[e.ToolName()]++
	}
}

// History returns a copy of the recorded calls in order.
func (s *Session) History() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.history))
	copy(out, s.history)
	return out
}

// Snapshot is a serializable projection of session state, used by
// SessionStore implementations to persist and restore sessions across
// process boundaries.
type Snapshot struct {
	ID             string         `json:"id"`
	AttemptCount   int            `json:"attempt_count"`
	ExecutionCount int            `json:"execution_count"`
	ToolExecutions map[string]int `json:"tool_executions"`
}

// Snapshot captures the session's current counters (history is not
// persisted; it is intended for in-process audit review only).
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	tools := make(map[string]int, len(s.toolExecutions))
	for k, v := range s.toolExecutions {
		tools[k] = v
	}
	return Snapshot{
		ID:             s.id,
		AttemptCount:   s.attemptCount,
		ExecutionCount: s.executionCount,
		ToolExecutions: tools,
	}
}

// Restore overwrites the session's counters from a previously captured
// snapshot. History is not restored.
func (s *Session) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attemptCount = snap.AttemptCount
	s.executionCount = snap.ExecutionCount
	s.toolExecutions = make(map[string]int, len(snap.ToolExecutions))
	for k, v := range snap.ToolExecutions {
		s.toolExecutions[k] = v
	}
}
