package agents

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/projecthive/hive/internal/ctxkeys"
	"github.com/projecthive/hive/llm"
	"github.com/projecthive/hive/types"
)

// Artifact keys shared between agents and pipelines.
const (
	ArtifactPlan          = "plan"
	ArtifactManifest      = "manifest"
	ArtifactGeneratedCode = "generated_code"
	ArtifactTestsPassed   = "tests_passed"
	ArtifactTestOutput    = "test_output"
)

// Completer routes a conversation to a model backend. Satisfied by
// *llm.Router.
type Completer interface {
	Route(ctx context.Context, state *types.RunState, messages []types.Message) (*llm.ChatResponse, error)
}

// Config is an agent's persona. It renders into the system prompt.
type Config struct {
	Name         string
	Role         string
	Goal         string
	Backstory    string
	Constraints  []string
	Capabilities []string
	Tools        []string
}

// hooks are the two points where concrete agents differ.
type hooks struct {
	// userPrompt renders the task prompt for the current state.
	userPrompt func(state *types.RunState) string
	// processResponse may rewrite the reply and update artifacts. The
	// returned string becomes the logged assistant message.
	processResponse func(content string, state *types.RunState) string
}

// BaseAgent implements graph.Node for one persona.
type BaseAgent struct {
	config Config
	router Completer
	hooks  hooks
	logger *zap.Logger
}

func newBaseAgent(config Config, router Completer, logger *zap.Logger, h hooks) *BaseAgent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BaseAgent{
		config: config,
		router: router,
		hooks:  h,
		logger: logger.With(zap.String("agent", config.Name)),
	}
}

// Name returns the agent's node name.
func (a *BaseAgent) Name() string { return a.config.Name }

// Execute routes the agent's prompt through the model router and appends
// the processed reply to the state's message log.
func (a *BaseAgent) Execute(ctx context.Context, state *types.RunState) (*types.RunState, error) {
	logger := a.logger
	if taskID, ok := ctxkeys.TaskID(ctx); ok {
		logger = logger.With(zap.String("task_id", taskID))
	}
	logger.Info("agent starting",
		zap.String("run_id", state.RunID),
		zap.Int("step", state.Step),
	)

	messages := make([]types.Message, 0, len(state.Messages)+2)
	messages = append(messages, types.NewSystemMessage(a.systemPrompt()))
	messages = append(messages, state.Messages...)
	messages = append(messages, types.NewUserMessage(a.hooks.userPrompt(state)))

	resp, err := a.router.Route(ctx, state, messages)
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", a.config.Name, err)
	}

	content := strings.TrimSpace(resp.Content)
	if a.hooks.processResponse != nil {
		content = a.hooks.processResponse(content, state)
	}

	state.AddMessage(types.NewAssistantMessage(content).
		WithName(a.config.Name).
		WithMetadata(map[string]any{
			"provider":   resp.Provider,
			"model":      resp.Model,
			"latency_ms": resp.Latency.Milliseconds(),
		}))

	logger.Info("agent finished",
		zap.String("run_id", state.RunID),
		zap.Int("step", state.Step),
	)
	return state, nil
}

// systemPrompt renders the persona.
func (a *BaseAgent) systemPrompt() string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a %s.\n", a.config.Name, a.config.Role)
	fmt.Fprintf(&b, "GOAL: %s", a.config.Goal)
	if a.config.Backstory != "" {
		fmt.Fprintf(&b, "\nBACKSTORY: %s", a.config.Backstory)
	}
	if len(a.config.Capabilities) > 0 {
		b.WriteString("\nCAPABILITIES:")
		for _, c := range a.config.Capabilities {
			fmt.Fprintf(&b, "\n- %s", c)
		}
	}
	if len(a.config.Constraints) > 0 {
		b.WriteString("\nCONSTRAINTS:")
		for _, c := range a.config.Constraints {
			fmt.Fprintf(&b, "\n- %s", c)
		}
	}
	if len(a.config.Tools) > 0 {
		fmt.Fprintf(&b, "\nTOOLS AVAILABLE: %s", strings.Join(a.config.Tools, ", "))
	}
	return b.String()
}
