package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrorRecord is one structured entry in a run's error log. Records are
// append-only: they are never removed or reordered, and conditional edges
// may use them as a branching signal.
type ErrorRecord struct {
	Type    string         `json:"type"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error types recorded by the orchestration core.
const (
	ErrorTypeNodeExecution = "node_execution"
	ErrorTypeGraphCycle    = "graph_cycle"
	ErrorTypeGraphTimeout  = "graph_timeout"
)

// RunState is the single source of truth for one run. It is created once by
// the caller, mutated exclusively by the node currently executing, and
// discarded when the run ends. RunID, Goal, and Mode are immutable after
// construction; Messages and Errors are append-only; Artifacts writes are
// last-write-wins per key.
type RunState struct {
	RunID string `json:"run_id"`
	Goal  string `json:"goal"`
	Mode  string `json:"mode"`

	Messages  []Message      `json:"messages"`
	Errors    []ErrorRecord  `json:"errors"`
	Artifacts map[string]any `json:"artifacts"`

	Step       int     `json:"step"`
	Budget     float64 `json:"budget"`
	BudgetUsed float64 `json:"budget_used"`

	CreatedAt time.Time `json:"created_at"`
}

// RunStateOption customizes a RunState at construction time.
type RunStateOption func(*RunState)

// WithMode sets the pipeline mode tag.
func WithMode(mode string) RunStateOption {
	return func(s *RunState) { s.Mode = mode }
}

// WithBudget sets the advisory cost ceiling.
func WithBudget(budget float64) RunStateOption {
	return func(s *RunState) { s.Budget = budget }
}

// NewRunState creates a RunState for the given goal with a fresh run ID.
func NewRunState(goal string, opts ...RunStateOption) *RunState {
	s := &RunState{
		RunID:     uuid.New().String(),
		Goal:      goal,
		Mode:      "t0",
		Artifacts: make(map[string]any),
		Budget:    10.0,
		CreatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NextStep increments the step counter. Executors call this exactly once per
// node attempt, before invoking the node, so failed attempts remain visible
// in the count.
func (s *RunState) NextStep() {
	s.Step++
}

// AddMessage appends a message to the conversation history and returns the
// state for chaining.
func (s *RunState) AddMessage(msg Message) *RunState {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	s.Messages = append(s.Messages, msg)
	return s
}

// LastMessage returns the most recently appended message, or false when the
// history is empty.
func (s *RunState) LastMessage() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// AddError appends a structured error record.
func (s *RunState) AddError(errType, message string, details map[string]any) *RunState {
	s.Errors = append(s.Errors, ErrorRecord{
		Type:    errType,
		Message: message,
		Details: details,
	})
	return s
}

// AddArtifact stores a structured result under the given key. A later write
// to the same key fully replaces the value.
func (s *RunState) AddArtifact(key string, value any) *RunState {
	if s.Artifacts == nil {
		s.Artifacts = make(map[string]any)
	}
	s.Artifacts[key] = value
	return s
}

// Artifact retrieves an artifact by key.
func (s *RunState) Artifact(key string) (any, bool) {
	v, ok := s.Artifacts[key]
	return v, ok
}

// AddCost adds a cost delta to the running budget total. The core never
// compares BudgetUsed against Budget; the counters are advisory telemetry
// for callers.
func (s *RunState) AddCost(cost float64) {
	s.BudgetUsed += cost
}

// Phase returns a label of the form "<mode>_step_<n>" for reports.
func (s *RunState) Phase() string {
	return fmt.Sprintf("%s_step_%d", s.Mode, s.Step)
}

// Snapshot returns a serializable copy of the state for collaborators
// (persistence, HTTP surfaces). The copy shares no slices or maps with the
// live state.
func (s *RunState) Snapshot() RunState {
	cp := *s
	cp.Messages = append([]Message(nil), s.Messages...)
	cp.Errors = append([]ErrorRecord(nil), s.Errors...)
	cp.Artifacts = make(map[string]any, len(s.Artifacts))
	for k, v := range s.Artifacts {
		cp.Artifacts[k] = v
	}
	return cp
}
