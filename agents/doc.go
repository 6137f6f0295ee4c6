// Package agents provides the prompt-driven workers that run as graph nodes
// or swarm members. Every agent shares the same execution shape: build a
// system prompt from its persona, append a task-specific user prompt, route
// the conversation through the model router, and fold the reply back into
// the run state.
package agents
