package pipeline

import (
	"github.com/projecthive/hive/swarm"
	"github.com/projecthive/hive/types"
)

// Config carries the tunables the pipelines take from the service
// configuration. The zero value keeps package defaults.
type Config struct {
	// Strategy picks the fortress consensus rule. Empty selects majority.
	Strategy swarm.Strategy
	// MaxRounds caps fortress rounds. Zero selects swarm.DefaultMaxRounds.
	MaxRounds int
	// ArbiterIndex is the 1-based ManagerDecides arbiter position in the
	// fortress roster. Zero means no arbiter.
	ArbiterIndex int
	// Budget is the advisory budget seeded into each run's state. Zero
	// keeps the state default.
	Budget float64
}

// newRunState seeds the state for one pipeline execution.
func newRunState(goal, mode string, budget float64) *types.RunState {
	opts := []types.RunStateOption{types.WithMode(mode)}
	if budget > 0 {
		opts = append(opts, types.WithBudget(budget))
	}
	return types.NewRunState(goal, opts...)
}
