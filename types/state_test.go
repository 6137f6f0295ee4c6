package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunState(t *testing.T) {
	t.Parallel()
	s := NewRunState("build a todo app")

	assert.NotEmpty(t, s.RunID)
	assert.Equal(t, "build a todo app", s.Goal)
	assert.Equal(t, "t0", s.Mode)
	assert.Equal(t, 0, s.Step)
	assert.Empty(t, s.Messages)
	assert.Empty(t, s.Errors)
	assert.NotNil(t, s.Artifacts)
}

func TestNewRunState_Options(t *testing.T) {
	t.Parallel()
	s := NewRunState("goal", WithMode("t1"), WithBudget(25))

	assert.Equal(t, "t1", s.Mode)
	assert.Equal(t, 25.0, s.Budget)
}

func TestNewRunState_UniqueRunIDs(t *testing.T) {
	t.Parallel()
	a := NewRunState("goal")
	b := NewRunState("goal")
	assert.NotEqual(t, a.RunID, b.RunID)
}

func TestRunState_NextStep(t *testing.T) {
	t.Parallel()
	s := NewRunState("goal")
	for i := 1; i <= 5; i++ {
		s.NextStep()
		assert.Equal(t, i, s.Step)
	}
}

func TestRunState_AddMessage(t *testing.T) {
	t.Parallel()
	s := NewRunState("goal")
	s.AddMessage(NewAssistantMessage("hello").WithName("dev"))
	s.AddMessage(NewUserMessage("world"))

	require.Len(t, s.Messages, 2)
	assert.Equal(t, "hello", s.Messages[0].Content)
	assert.Equal(t, "dev", s.Messages[0].Name)
	assert.False(t, s.Messages[0].Timestamp.IsZero())

	last, ok := s.LastMessage()
	require.True(t, ok)
	assert.Equal(t, "world", last.Content)
}

func TestRunState_LastMessage_Empty(t *testing.T) {
	t.Parallel()
	s := NewRunState("goal")
	_, ok := s.LastMessage()
	assert.False(t, ok)
}

func TestRunState_AddError(t *testing.T) {
	t.Parallel()
	s := NewRunState("goal")
	s.AddError(ErrorTypeNodeExecution, "boom", map[string]any{"node": "dev", "retries": 0})

	require.Len(t, s.Errors, 1)
	assert.Equal(t, ErrorTypeNodeExecution, s.Errors[0].Type)
	assert.Equal(t, "boom", s.Errors[0].Message)
	assert.Equal(t, "dev", s.Errors[0].Details["node"])
}

func TestRunState_ArtifactOverwrite(t *testing.T) {
	t.Parallel()
	s := NewRunState("goal")
	s.AddArtifact("k", "first")
	s.AddArtifact("k", "second")

	v, ok := s.Artifact("k")
	require.True(t, ok)
	assert.Equal(t, "second", v)
	// Artifact writes never touch the message or error logs.
	assert.Empty(t, s.Messages)
	assert.Empty(t, s.Errors)
}

func TestRunState_AddCost(t *testing.T) {
	t.Parallel()
	s := NewRunState("goal")
	s.AddCost(0.5)
	s.AddCost(0.25)
	assert.InDelta(t, 0.75, s.BudgetUsed, 1e-9)
}

func TestRunState_Phase(t *testing.T) {
	t.Parallel()
	s := NewRunState("goal", WithMode("t1"))
	s.NextStep()
	s.NextStep()
	assert.Equal(t, "t1_step_2", s.Phase())
}

func TestRunState_Snapshot_Isolated(t *testing.T) {
	t.Parallel()
	s := NewRunState("goal")
	s.AddMessage(NewAssistantMessage("one"))
	s.AddArtifact("k", 1)

	snap := s.Snapshot()
	s.AddMessage(NewAssistantMessage("two"))
	s.AddArtifact("k", 2)
	s.AddArtifact("extra", true)

	assert.Len(t, snap.Messages, 1)
	assert.Equal(t, 1, snap.Artifacts["k"])
	assert.NotContains(t, snap.Artifacts, "extra")
}
