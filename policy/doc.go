// Package policy scans model output and generated code for banned phrases
// and dangerous patterns.
package policy
