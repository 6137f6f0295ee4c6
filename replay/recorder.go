package replay

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// EventType labels one timeline entry.
type EventType string

const (
	EventAgentStart      EventType = "agent_start"
	EventAgentComplete   EventType = "agent_complete"
	EventAgentError      EventType = "agent_error"
	EventConsensus       EventType = "consensus_vote"
	EventPolicyViolation EventType = "policy_violation"
)

// Event is one entry in a session timeline.
type Event struct {
	SessionID  string         `json:"session_id"`
	Type       EventType      `json:"type"`
	AgentName  string         `json:"agent_name,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
	DurationMS float64        `json:"duration_ms,omitempty"`
}

// Session is the header record for one recorded run.
type Session struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	Goal      string    `json:"goal"`
	Pipeline  string    `json:"pipeline"`
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at,omitempty"`
}

// Recorder keeps session timelines in memory. Safe for concurrent use.
type Recorder struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	events   map[string][]Event
	logger   *zap.Logger
}

// NewRecorder creates an empty recorder.
func NewRecorder(logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		sessions: make(map[string]*Session),
		events:   make(map[string][]Event),
		logger:   logger.With(zap.String("component", "session_replay")),
	}
}

// StartSession opens a session. Restarting an existing ID replaces its
// header but keeps previously recorded events.
func (r *Recorder) StartSession(sessionID, runID, goal, pipeline string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionID] = &Session{
		ID:        sessionID,
		RunID:     runID,
		Goal:      goal,
		Pipeline:  pipeline,
		Status:    "running",
		StartedAt: time.Now(),
	}
}

// Record appends one event to a session timeline. Events for unknown
// sessions are kept too, so late registration does not lose data.
func (r *Recorder) Record(sessionID string, eventType EventType, agentName string, data map[string]any, duration time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[sessionID] = append(r.events[sessionID], Event{
		SessionID:  sessionID,
		Type:       eventType,
		AgentName:  agentName,
		Data:       data,
		Timestamp:  time.Now(),
		DurationMS: float64(duration.Milliseconds()),
	})
}

// EndSession closes a session with a final status.
func (r *Recorder) EndSession(sessionID, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return
	}
	s.Status = status
	s.EndedAt = time.Now()
}

// Session returns a copy of one session header.
func (r *Recorder) Session(sessionID string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Sessions lists all session headers, newest first.
func (r *Recorder) Sessions() []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out
}

// Events returns a copy of one session's timeline in recording order.
func (r *Recorder) Events(sessionID string) []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Event(nil), r.events[sessionID]...)
}
