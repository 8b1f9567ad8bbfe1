package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/acartag7/callguard/pkg/envelope"
)

func TestBeginAttemptIncrements(t *testing.T) {
	s := New("s1")
	assert.Equal(t, 1, s.BeginAttempt())
	assert.Equal(t, 2, s.BeginAttempt())
	assert.Equal(t, 2, s.AttemptCount())
}

func TestRecordExecutionTracksPerTool(t *testing.T) {
	s := New("s1")
	e := envelope.New("Bash", nil, "c1", time.Now(), "s1", envelope.SideEffectIrreversible, "dev", envelope.Principal{ID: "x"})

	s.RecordExecution(e, true)
	s.RecordExecution(e, false)

	assert.Equal(t, 1, s.ExecutionCount())
	assert.Equal(t, 1, s.ToolExecutionCount("Bash"))
	assert.Len(t, s.History(), 2)
}

func TestConcurrentBeginAttemptIsAtomic(t *testing.T) {
	s := New("s1")
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.BeginAttempt()
		}()
	}
	wg.Wait()
	assert.Equal(t, 100, s.AttemptCount())
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := New("s1")
	e := envelope.New("Write", nil, "c1", time.Now(), "s1", envelope.SideEffectIdempotent, "dev", envelope.Principal{ID: "x"})
	s.BeginAttempt()
	s.RecordExecution(e, true)

	snap := s.Snapshot()
	restored := New("s1")
	restored.Restore(snap)

	assert.Equal(t, s.AttemptCount(), restored.AttemptCount())
	assert.Equal(t, s.ExecutionCount(), restored.ExecutionCount())
	assert.Equal(t, s.ToolExecutionCount("Write"), restored.ToolExecutionCount("Write"))
}
