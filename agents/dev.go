package agents

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/projecthive/hive/types"
)

// NewDev creates the implementation agent. It writes code for the
// architect's manifest, extracting fenced code blocks from the reply into
// the generated-code artifact.
func NewDev(router Completer, logger *zap.Logger) *BaseAgent {
	config := Config{
		Name:      "Dev",
		Role:      "senior software developer",
		Goal:      "Implement the designed files as working code.",
		Backstory: "You write small, correct programs and nothing else.",
		Constraints: []string{
			"Return each file as a fenced code block",
			"Name each file on the fence info line, e.g. ```python main.py",
			"No commentary outside the code blocks",
		},
	}
	return newBaseAgent(config, router, logger, hooks{
		userPrompt: func(state *types.RunState) string {
			manifest, _ := state.Artifact(ArtifactManifest)
			return fmt.Sprintf("Overall goal: %s\n\nArchitecture manifest:\n%v\n\nWrite the complete code for every file in the manifest.", state.Goal, manifest)
		},
		processResponse: func(content string, state *types.RunState) string {
			files := extractCodeBlocks(content)
			if len(files) == 0 {
				state.AddError("code_generation", "no code blocks in dev response", map[string]any{
					"preview": preview(content, 200),
				})
				return content
			}
			state.AddArtifact(ArtifactGeneratedCode, files)

			names := make([]string, 0, len(files))
			for name := range files {
				names = append(names, name)
			}
			sort.Strings(names)
			return fmt.Sprintf("Generated %d file(s): %s", len(files), strings.Join(names, ", "))
		},
	})
}

// preview truncates s to at most n bytes, backing up to a rune boundary so
// multi-byte characters are never split.
func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
