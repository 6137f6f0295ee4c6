// Package replay records per-session event timelines for debugging and
// auditing agent runs.
package replay
