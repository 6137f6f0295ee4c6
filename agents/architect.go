package agents

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/projecthive/hive/types"
)

// NewArchitect creates the design agent. It turns the supervisor's plan
// into a file layout and stores it as the manifest artifact.
func NewArchitect(router Completer, logger *zap.Logger) *BaseAgent {
	config := Config{
		Name: "Architect",
		Role: "software architect",
		Goal: "Design a minimal but extensible file and component layout.",
		Constraints: []string{
			"Prefer small, focused modules",
			"Focus on clarity over cleverness",
		},
	}
	return newBaseAgent(config, router, logger, hooks{
		userPrompt: func(state *types.RunState) string {
			plan, _ := state.Artifact(ArtifactPlan)
			return fmt.Sprintf("Overall goal: %s\n\nHigh-level plan:\n%v\n\nDesign a minimal architecture for this.\nReturn a markdown list of files and their responsibilities.", state.Goal, plan)
		},
		processResponse: func(content string, state *types.RunState) string {
			state.AddArtifact(ArtifactManifest, content)
			return content
		},
	})
}
