package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/projecthive/hive/agents"
	"github.com/projecthive/hive/graph"
	"github.com/projecthive/hive/healing"
	"github.com/projecthive/hive/policy"
	"github.com/projecthive/hive/swarm"
	"github.com/projecthive/hive/types"
)

// ModeFortress tags run states produced by the Fortress pipeline.
const ModeFortress = "t1"

// Fortress runs the full agent roster as a swarm under the configured
// consensus strategy, then scans the final output and the generated code
// against the policy engine. Violations land in the state's error log; the
// pipeline itself never fails a run for a policy hit.
type Fortress struct {
	coordinator *swarm.Coordinator
	policy      *policy.Engine
	budget      float64
	logger      *zap.Logger
}

// NewFortress wires the swarm and the policy scanner.
func NewFortress(router agents.Completer, heal *healing.Engine, cfg Config, logger *zap.Logger, opts ...swarm.CoordinatorOption) (*Fortress, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	roster := []graph.Node{
		agents.NewSupervisor(router, logger),
		agents.NewArchitect(router, logger),
		agents.NewDev(router, logger),
		agents.NewTester(router, logger),
		agents.NewDebugger(router, heal, logger),
	}

	coordinator, err := swarm.NewCoordinator(swarm.Config{
		Agents:       roster,
		Strategy:     cfg.Strategy,
		MaxRounds:    cfg.MaxRounds,
		ArbiterIndex: cfg.ArbiterIndex,
	}, logger, opts...)
	if err != nil {
		return nil, fmt.Errorf("fortress pipeline: %w", err)
	}

	return &Fortress{
		coordinator: coordinator,
		policy:      policy.NewEngine(logger),
		budget:      cfg.Budget,
		logger:      logger.With(zap.String("pipeline", ModeFortress)),
	}, nil
}

// Conversation exposes the swarm's cross-round log.
func (f *Fortress) Conversation() *swarm.Conversation {
	return f.coordinator.Conversation()
}

// Run executes the swarm for one goal, applies the policy scans, and
// returns the final state.
func (f *Fortress) Run(ctx context.Context, goal string) (*types.RunState, error) {
	state := newRunState(goal, ModeFortress, f.budget)
	f.logger.Info("pipeline starting", zap.String("run_id", state.RunID), zap.String("goal", goal))

	state, err := f.coordinator.Orchestrate(ctx, state)
	if err != nil {
		return state, err
	}

	f.scan(state)
	return state, nil
}

// scan checks the last message and every generated file, appending one
// error record per violation.
func (f *Fortress) scan(state *types.RunState) {
	var violations []policy.Violation
	if last, ok := state.LastMessage(); ok {
		violations = f.policy.CheckOutput(last.Content)
	}

	if raw, ok := state.Artifact(agents.ArtifactGeneratedCode); ok {
		if files, ok := raw.(map[string]string); ok {
			for _, code := range files {
				violations = append(violations, f.policy.CheckCode(code)...)
			}
		}
	}

	for _, v := range violations {
		details := map[string]any{"severity": string(v.Severity)}
		for k, val := range v.Details {
			details[k] = val
		}
		state.AddError(v.Code, v.Message, details)
	}

	if len(violations) > 0 {
		f.logger.Warn("policy violations recorded",
			zap.String("run_id", state.RunID),
			zap.Int("count", len(violations)),
		)
	}
}
