package agents

import (
	"fmt"
	"sort"
	"strings"

	"github.com/projecthive/hive/types"
)

const defaultFilename = "generated_app.py"

// extractCodeBlocks parses fenced code blocks out of a model reply. When a
// fence's info line carries a second token with a dot in it (```python
// main.py), that token names the file; otherwise files get generated names.
func extractCodeBlocks(content string) map[string]string {
	files := make(map[string]string)
	lines := strings.Split(content, "\n")

	inBlock := false
	var name string
	var body []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			if inBlock {
				if code := strings.TrimSpace(strings.Join(body, "\n")); code != "" {
					files[name] = code
				}
				inBlock = false
				continue
			}
			inBlock = true
			body = body[:0]
			name = blockName(strings.TrimPrefix(trimmed, "```"), len(files))
			continue
		}
		if inBlock {
			body = append(body, line)
		}
	}
	return files
}

func blockName(info string, index int) string {
	fields := strings.Fields(info)
	if len(fields) >= 2 && strings.Contains(fields[1], ".") {
		return fields[1]
	}
	if index == 0 {
		return defaultFilename
	}
	return fmt.Sprintf("generated_app_%d.py", index+1)
}

// codeArtifact reads the generated-code map out of the state, tolerating a
// missing or mistyped artifact.
func codeArtifact(state *types.RunState) map[string]string {
	raw, ok := state.Artifact(ArtifactGeneratedCode)
	if !ok {
		return nil
	}
	files, ok := raw.(map[string]string)
	if !ok {
		return nil
	}
	return files
}

// firstCodeFile returns the lexicographically first generated file, which
// keeps the debugger deterministic across runs.
func firstCodeFile(files map[string]string) (string, string, bool) {
	if len(files) == 0 {
		return "", "", false
	}
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names[0], files[names[0]], true
}

// renderCodeContext renders the code map for inclusion in a prompt.
func renderCodeContext(files map[string]string) string {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "\n--- FILE: %s ---\n```\n%s\n```\n", name, files[name])
	}
	return b.String()
}
