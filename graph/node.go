package graph

import (
	"context"

	"github.com/projecthive/hive/types"
)

// Node is the single capability the executor depends on: given a RunState,
// produce a new RunState. Concrete nodes usually wrap agents, but the
// executor never assumes that.
type Node interface {
	// Name returns the node's unique registration name.
	Name() string
	// Execute consumes the state and returns the (possibly mutated) state.
	Execute(ctx context.Context, state *types.RunState) (*types.RunState, error)
}

// NodeFunc is the function form of a node body.
type NodeFunc func(ctx context.Context, state *types.RunState) (*types.RunState, error)

// FuncNode adapts a plain function into a Node.
type FuncNode struct {
	name string
	fn   NodeFunc
}

// NewFuncNode creates a node backed by fn.
func NewFuncNode(name string, fn NodeFunc) *FuncNode {
	return &FuncNode{name: name, fn: fn}
}

func (n *FuncNode) Name() string { return n.name }

func (n *FuncNode) Execute(ctx context.Context, state *types.RunState) (*types.RunState, error) {
	return n.fn(ctx, state)
}

// Condition guards an edge. A nil condition always fires.
type Condition func(state *types.RunState) bool

// Edge is a directed link between two registered nodes.
type Edge struct {
	Source    string
	Target    string
	Condition Condition
}
