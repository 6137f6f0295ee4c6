package agents

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/projecthive/hive/healing"
	"github.com/projecthive/hive/types"
)

const noOpPrefix = "NO_OP"

// NewDebugger creates the repair agent. When the tester recorded a failure
// it diagnoses the failure log through the healing engine, prompts the model
// with the generated fix instruction, and patches the generated-code
// artifact with the reply. With nothing to fix it answers NO_OP without
// touching the artifacts.
func NewDebugger(router Completer, engine *healing.Engine, logger *zap.Logger) *BaseAgent {
	if engine == nil {
		engine = healing.NewEngine(logger)
	}
	config := Config{
		Name:      "Debugger",
		Role:      "senior debugger and code fixer",
		Goal:      "Analyze error logs, understand root causes, and apply fixes.",
		Backstory: "You are an expert debugger. You don't guess; you analyze the failure, identify the exact line, and provide surgical fixes.",
		Constraints: []string{
			"Return ONLY the fixed code block",
			"Do not explain unless necessary",
			"Maintain existing code structure",
		},
		Capabilities: []string{
			"Fix syntax errors",
			"Resolve import errors",
			"Fix logic bugs",
		},
	}
	return newBaseAgent(config, router, logger, hooks{
		userPrompt: func(state *types.RunState) string {
			if passed, ok := state.Artifact(ArtifactTestsPassed); ok {
				if p, ok := passed.(bool); ok && p {
					return noOpPrefix + ": tests passed, no action required."
				}
			}
			files := codeArtifact(state)
			_, code, ok := firstCodeFile(files)
			if !ok {
				return noOpPrefix + ": no code found to debug."
			}

			errorLog := "unknown error"
			if out, ok := state.Artifact(ArtifactTestOutput); ok {
				if s, ok := out.(string); ok && s != "" {
					errorLog = s
				}
			}

			diag := engine.Diagnose(errorLog, code)
			return diag.FixPrompt
		},
		processResponse: func(content string, state *types.RunState) string {
			if strings.HasPrefix(content, noOpPrefix) {
				return content
			}

			files := codeArtifact(state)
			filename, _, ok := firstCodeFile(files)
			if !ok {
				return "Could not apply fix: no source file found."
			}

			fixed := content
			if blocks := extractCodeBlocks(content); len(blocks) > 0 {
				_, fixed, _ = firstCodeFile(blocks)
			}

			patched := make(map[string]string, len(files))
			for name, code := range files {
				patched[name] = code
			}
			patched[filename] = fixed
			state.AddArtifact(ArtifactGeneratedCode, patched)

			// Drop the stale verdict: it described the pre-patch code. A
			// later tester pass, where the pipeline schedules one, starts
			// from a clean slate.
			delete(state.Artifacts, ArtifactTestsPassed)
			delete(state.Artifacts, ArtifactTestOutput)

			return fmt.Sprintf("Applied fix to %q. Ready for re-test.", filename)
		},
	})
}
