package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/projecthive/hive/agents"
	"github.com/projecthive/hive/graph"
	"github.com/projecthive/hive/healing"
	"github.com/projecthive/hive/types"
)

// ModeVelocity tags run states produced by the Velocity pipeline.
const ModeVelocity = "t0"

// Velocity is the rapid-prototyping pipeline. The flow is
// Supervisor -> Architect -> Dev -> Tester, with a repair detour through the
// Debugger when the tester records a failure. The engine's revisit guard
// bounds the detour to one repair round.
type Velocity struct {
	engine *graph.Engine
	budget float64
	logger *zap.Logger
}

// NewVelocity wires the agent graph.
func NewVelocity(router agents.Completer, heal *healing.Engine, cfg Config, logger *zap.Logger, opts ...graph.Option) (*Velocity, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	supervisor := agents.NewSupervisor(router, logger)
	architect := agents.NewArchitect(router, logger)
	dev := agents.NewDev(router, logger)
	tester := agents.NewTester(router, logger)
	debugger := agents.NewDebugger(router, heal, logger)

	opts = append(opts, graph.WithLogger(logger))
	engine := graph.NewEngine(opts...)

	for _, node := range []graph.Node{supervisor, architect, dev, tester, debugger} {
		if err := engine.AddNode(node); err != nil {
			return nil, fmt.Errorf("velocity pipeline: %w", err)
		}
	}

	edges := []struct {
		source, target string
		condition      graph.Condition
	}{
		{supervisor.Name(), architect.Name(), nil},
		{architect.Name(), dev.Name(), nil},
		{dev.Name(), tester.Name(), nil},
		{tester.Name(), debugger.Name(), testsFailed},
		{debugger.Name(), tester.Name(), nil},
	}
	for _, e := range edges {
		if err := engine.AddEdge(e.source, e.target, e.condition); err != nil {
			return nil, fmt.Errorf("velocity pipeline: %w", err)
		}
	}

	return &Velocity{
		engine: engine,
		budget: cfg.Budget,
		logger: logger.With(zap.String("pipeline", ModeVelocity)),
	}, nil
}

// Run executes the pipeline for one goal and returns the final state.
func (v *Velocity) Run(ctx context.Context, goal string) (*types.RunState, error) {
	state := newRunState(goal, ModeVelocity, v.budget)
	v.logger.Info("pipeline starting", zap.String("run_id", state.RunID), zap.String("goal", goal))
	return v.engine.Execute(ctx, state)
}

// testsFailed gates the repair detour: it fires only when the tester has
// recorded an explicit negative verdict.
func testsFailed(state *types.RunState) bool {
	raw, ok := state.Artifact(agents.ArtifactTestsPassed)
	if !ok {
		return false
	}
	passed, ok := raw.(bool)
	return ok && !passed
}
