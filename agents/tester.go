package agents

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/projecthive/hive/types"
)

// NewTester creates the review agent. It asks the model for a logic review
// of the generated code and records the verdict in the tests-passed and
// test-output artifacts. Its reply starts with "TESTS PASSED" or
// "TESTS FAILED", which the swarm vote derivation keys on.
func NewTester(router Completer, logger *zap.Logger) *BaseAgent {
	config := Config{
		Name:      "Tester",
		Role:      "QA engineer",
		Goal:      "Validate code syntax and logic.",
		Backstory: "You are a meticulous tester. You check both syntax and logic.",
		Constraints: []string{
			"Check syntax errors",
			"Review logic flaws",
		},
	}
	return newBaseAgent(config, router, logger, hooks{
		userPrompt: func(state *types.RunState) string {
			files := codeArtifact(state)
			if len(files) == 0 {
				return "No code found to test."
			}
			return fmt.Sprintf("Review the following code for logical errors:\n%s\n1. Does the code achieve the goal: %q?\n2. Are there any obvious bugs?\n3. Respond with \"LOGIC PASS\" if it looks good, or \"LOGIC FAIL\" with reasons.", renderCodeContext(files), state.Goal)
		},
		processResponse: func(content string, state *types.RunState) string {
			upper := strings.ToUpper(content)
			passed := strings.Contains(upper, "LOGIC PASS") && !strings.Contains(upper, "FAIL")

			state.AddArtifact(ArtifactTestsPassed, passed)
			state.AddArtifact(ArtifactTestOutput, content)

			if passed {
				return fmt.Sprintf("TESTS PASSED. %s", preview(content, 100))
			}
			state.AddError("test_failure", "logic review failed", map[string]any{
				"output": preview(content, 200),
			})
			return fmt.Sprintf("TESTS FAILED. %s", preview(content, 100))
		},
	})
}
