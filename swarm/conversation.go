package swarm

import (
	"fmt"
	"strings"
	"time"
)

// Entry is one record in a swarm session's shared conversation log.
type Entry struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	AgentName string         `json:"agent_name"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Conversation is the append-only cross-round history kept by the
// coordinator, independent of RunState.Messages.
type Conversation struct {
	history []Entry
}

// NewConversation creates an empty conversation log.
func NewConversation() *Conversation {
	return &Conversation{}
}

// Add appends an entry, stamping it with the current time.
func (c *Conversation) Add(role, content, agentName string, metadata map[string]any) {
	c.history = append(c.history, Entry{
		Role:      role,
		Content:   content,
		AgentName: agentName,
		Timestamp: time.Now(),
		Metadata:  metadata,
	})
}

// Len returns the number of entries.
func (c *Conversation) Len() int {
	return len(c.history)
}

// ContextWindow renders the most recent limit entries as "[agent]: content"
// lines for prompt construction.
func (c *Conversation) ContextWindow(limit int) string {
	recent := c.history
	if limit > 0 && len(recent) > limit {
		recent = recent[len(recent)-limit:]
	}
	lines := make([]string, 0, len(recent))
	for _, e := range recent {
		lines = append(lines, fmt.Sprintf("[%s]: %s", e.AgentName, e.Content))
	}
	return strings.Join(lines, "\n")
}

// Snapshot returns a copy of the full history.
func (c *Conversation) Snapshot() []Entry {
	return append([]Entry(nil), c.history...)
}
