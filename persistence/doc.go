// Package persistence stores completed run snapshots. Two stores ship: an
// in-memory store for tests and single-process setups, and a Redis store
// with per-run TTLs.
package persistence
