// Package swarm implements the round-based multi-agent consensus loop: a
// fixed ordered list of nodes runs repeatedly against a shared RunState, one
// vote is derived from each node's latest output, and a consensus strategy
// decides when the swarm is done.
//
// The vote derivation is deliberately heuristic: agents only need to emit a
// natural-language outcome message ("tests passed", "fixed", ...), and the
// coordinator bridges that free text to a boolean signal. Loose coupling over
// strict contracts.
package swarm
