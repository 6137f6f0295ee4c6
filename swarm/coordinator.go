package swarm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/projecthive/hive/graph"
	"github.com/projecthive/hive/types"
)

// DefaultMaxRounds bounds a swarm session when the config leaves it unset.
const DefaultMaxRounds = 5

// successTokens are the case-insensitive substrings that turn a node's
// latest output into a positive vote.
var successTokens = []string{"tests passed", "syntax ok", "fixed", "success"}

// RoundMetrics receives per-round telemetry. Implemented by
// internal/metrics.Collector; nil disables recording.
type RoundMetrics interface {
	RecordSwarmRound(strategy string, consensus bool)
}

// Config describes a swarm session: the ordered node list, the consensus
// strategy, and the round ceiling.
type Config struct {
	// Agents run once per round, in order, each seeing the previous one's
	// mutations. Must be non-empty.
	Agents []graph.Node
	// Strategy picks the consensus rule for each round's vote list.
	Strategy Strategy
	// MaxRounds caps the number of rounds. Must be >= 1; 0 selects
	// DefaultMaxRounds.
	MaxRounds int
	// ArbiterIndex designates the deciding voter for ManagerDecides as a
	// 1-based position in Agents. Zero (the zero value) means no arbiter,
	// and ManagerDecides degenerates to majority.
	ArbiterIndex int
}

// Coordinator runs a swarm session. It keeps a conversation log across
// rounds and stops early once consensus is reached.
type Coordinator struct {
	config       Config
	conversation *Conversation
	metrics      RoundMetrics
	logger       *zap.Logger
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithMetrics attaches a round metrics sink.
func WithMetrics(m RoundMetrics) CoordinatorOption {
	return func(c *Coordinator) { c.metrics = m }
}

// NewCoordinator validates the config and creates a coordinator.
func NewCoordinator(config Config, logger *zap.Logger, opts ...CoordinatorOption) (*Coordinator, error) {
	if len(config.Agents) == 0 {
		return nil, types.NewError(types.ErrEmptySwarm, "swarm requires at least one agent")
	}
	if config.MaxRounds < 0 {
		return nil, types.NewError(types.ErrInvalidRounds, fmt.Sprintf("max rounds must be >= 1, got %d", config.MaxRounds))
	}
	if config.MaxRounds == 0 {
		config.MaxRounds = DefaultMaxRounds
	}
	if config.Strategy == "" {
		config.Strategy = MajorityVote
	}
	if config.ArbiterIndex < 0 || config.ArbiterIndex > len(config.Agents) {
		return nil, types.NewError(types.ErrInvalidArbiter,
			fmt.Sprintf("arbiter index must be 0 (none) or 1..%d, got %d", len(config.Agents), config.ArbiterIndex))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Coordinator{
		config:       config,
		conversation: NewConversation(),
		logger:       logger.With(zap.String("component", "swarm_coordinator")),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Conversation exposes the cross-round log for prompt construction and
// session replay.
func (c *Coordinator) Conversation() *Conversation {
	return c.conversation
}

// Orchestrate runs up to MaxRounds rounds. Each round invokes every agent
// once, sequentially, derives a vote from its latest appended message, and
// evaluates the round's votes under the configured strategy. On consensus
// the state is returned immediately. Exhausting the rounds without consensus
// is a soft condition: the state comes back with no extra error record, and
// callers must inspect errors or artifacts to see why. A failing agent
// aborts the session: the error propagates, no retry here.
func (c *Coordinator) Orchestrate(ctx context.Context, state *types.RunState) (*types.RunState, error) {
	agentNames := make([]string, len(c.config.Agents))
	for i, a := range c.config.Agents {
		agentNames[i] = a.Name()
	}
	c.logger.Info("swarm started",
		zap.String("run_id", state.RunID),
		zap.Strings("agents", agentNames),
		zap.String("strategy", string(c.config.Strategy)),
		zap.Int("max_rounds", c.config.MaxRounds),
	)

	for round := 1; round <= c.config.MaxRounds; round++ {
		c.logger.Info("swarm round",
			zap.String("run_id", state.RunID),
			zap.Int("round", round),
		)

		votes := make([]string, 0, len(c.config.Agents))
		for _, agent := range c.config.Agents {
			if err := ctx.Err(); err != nil {
				return state, err
			}

			var err error
			state, err = agent.Execute(ctx, state)
			if err != nil {
				return state, fmt.Errorf("agent %s failed in round %d: %w", agent.Name(), round, err)
			}

			content := ""
			if last, ok := state.LastMessage(); ok {
				content = last.Content
			}

			c.conversation.Add("assistant", content, agent.Name(), map[string]any{"round": round})
			votes = append(votes, deriveVote(content))
		}

		consensus := EvaluateWithArbiter(c.config.Strategy, votes, c.config.ArbiterIndex-1)
		if c.metrics != nil {
			c.metrics.RecordSwarmRound(string(c.config.Strategy), consensus)
		}
		if consensus {
			c.logger.Info("swarm consensus reached",
				zap.String("run_id", state.RunID),
				zap.Int("round", round),
			)
			return state, nil
		}
	}

	c.logger.Warn("swarm max rounds reached without consensus",
		zap.String("run_id", state.RunID),
	)
	return state, nil
}

// deriveVote maps a node's latest output to a vote token. A recognized
// success substring yields "success"; everything else yields "no-consensus",
// which is outside the acceptance vocabulary.
func deriveVote(content string) string {
	lower := strings.ToLower(content)
	for _, token := range successTokens {
		if strings.Contains(lower, token) {
			return "success"
		}
	}
	return "no-consensus"
}
