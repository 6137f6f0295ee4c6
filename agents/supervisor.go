package agents

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/projecthive/hive/types"
)

// NewSupervisor creates the planning agent. It breaks the run goal into a
// numbered list of development steps and stores it as the plan artifact.
func NewSupervisor(router Completer, logger *zap.Logger) *BaseAgent {
	config := Config{
		Name: "Supervisor",
		Role: "orchestrator",
		Goal: "Break the overall goal into concrete, sequential development steps.",
		Constraints: []string{
			"Keep steps between 3 and 7",
			"Each step should be unambiguous",
		},
	}
	return newBaseAgent(config, router, logger, hooks{
		userPrompt: func(state *types.RunState) string {
			return fmt.Sprintf("User goal: %s\n\nProduce a numbered list of development steps to achieve this goal.\nEach step should be one short sentence.", state.Goal)
		},
		processResponse: func(content string, state *types.RunState) string {
			state.AddArtifact(ArtifactPlan, content)
			return content
		},
	})
}
