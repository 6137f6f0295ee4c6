package replay

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionLifecycle(t *testing.T) {
	t.Parallel()

	r := NewRecorder(nil)
	r.StartSession("s1", "run-1", "build a calculator", "t1")

	s, ok := r.Session("s1")
	require.True(t, ok)
	assert.Equal(t, "running", s.Status)
	assert.True(t, s.EndedAt.IsZero())

	r.EndSession("s1", "completed")
	s, _ = r.Session("s1")
	assert.Equal(t, "completed", s.Status)
	assert.False(t, s.EndedAt.IsZero())
}

func TestEndUnknownSessionIsNoop(t *testing.T) {
	t.Parallel()

	r := NewRecorder(nil)
	r.EndSession("missing", "completed")
	_, ok := r.Session("missing")
	assert.False(t, ok)
}

func TestRecordKeepsOrder(t *testing.T) {
	t.Parallel()

	r := NewRecorder(nil)
	r.StartSession("s1", "run-1", "goal", "t0")
	r.Record("s1", EventAgentStart, "Supervisor", nil, 0)
	r.Record("s1", EventAgentComplete, "Supervisor", map[string]any{"round": 1}, 120*time.Millisecond)
	r.Record("s1", EventConsensus, "", map[string]any{"reached": true}, 0)

	events := r.Events("s1")
	require.Len(t, events, 3)
	assert.Equal(t, EventAgentStart, events[0].Type)
	assert.Equal(t, EventAgentComplete, events[1].Type)
	assert.Equal(t, float64(120), events[1].DurationMS)
	assert.Equal(t, EventConsensus, events[2].Type)
}

func TestEventsReturnsCopy(t *testing.T) {
	t.Parallel()

	r := NewRecorder(nil)
	r.Record("s1", EventAgentStart, "Dev", nil, 0)

	events := r.Events("s1")
	events[0].AgentName = "mutated"
	assert.Equal(t, "Dev", r.Events("s1")[0].AgentName)
}

func TestRecordBeforeStartIsKept(t *testing.T) {
	t.Parallel()

	r := NewRecorder(nil)
	r.Record("early", EventAgentError, "Tester", nil, 0)
	assert.Len(t, r.Events("early"), 1)
}

func TestConcurrentRecording(t *testing.T) {
	t.Parallel()

	r := NewRecorder(nil)
	r.StartSession("s1", "run-1", "goal", "t1")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Record("s1", EventAgentComplete, "Dev", nil, 0)
		}()
	}
	wg.Wait()

	assert.Len(t, r.Events("s1"), 20)
}

func TestSessionsNewestFirst(t *testing.T) {
	t.Parallel()

	r := NewRecorder(nil)
	r.StartSession("old", "run-1", "goal", "t0")
	time.Sleep(2 * time.Millisecond)
	r.StartSession("new", "run-2", "goal", "t1")

	sessions := r.Sessions()
	require.Len(t, sessions, 2)
	assert.Equal(t, "new", sessions[0].ID)
}
