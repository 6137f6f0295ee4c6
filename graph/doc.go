// Package graph implements the step executor at the heart of hive: a
// registry of named nodes connected by directed, optionally conditioned
// edges, walked one node at a time from a start node.
//
// Traversal is deterministic and single-threaded. Edges are evaluated in
// registration order and the first satisfied edge wins, which gives callers
// priority-encoded branching ("go to the repair node if the last test
// failed, else continue") without a rule engine. Cycle detection and a
// wall-clock ceiling are recorded into the RunState error log rather than
// raised, so the caller always gets a usable state back.
package graph
