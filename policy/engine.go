package policy

import (
	"strings"

	"go.uber.org/zap"
)

// Severity ranks a violation.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Violation codes.
const (
	CodeBannedKeyword    = "banned_keyword"
	CodeDangerousPattern = "dangerous_code_pattern"
)

// Violation is one policy finding.
type Violation struct {
	Code     string         `json:"code"`
	Message  string         `json:"message"`
	Severity Severity       `json:"severity"`
	Details  map[string]any `json:"details,omitempty"`
}

// Phrases that must never appear in conversational output.
var bannedOutputKeywords = []string{
	"drop database",
	"rm -rf",
	"format c:",
	"key=",
	"delete all files",
	"wipe disk",
}

// Substrings that flag generated code as dangerous. Matching is fail-safe:
// a hit in a comment or string literal still counts.
var bannedCodePatterns = []string{
	"os.system",
	"shell=True",
	"subprocess",
	"eval(",
	"exec(",
	"compile(",
	"__import__",
	"os.remove",
	"os.unlink",
	"os.rmdir",
	"shutil.rmtree",
	"rm -rf",
	"del /f",
	"socket.socket",
	"telnetlib",
	"platform.system",
	"getpass.getuser",
}

// Engine performs the output and code scans.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates a policy engine.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger.With(zap.String("component", "policy_engine"))}
}

// CheckOutput scans conversational text for banned phrases
// (case-insensitive) and returns one violation per hit.
func (e *Engine) CheckOutput(text string) []Violation {
	var violations []Violation
	lower := strings.ToLower(text)
	for _, kw := range bannedOutputKeywords {
		if strings.Contains(lower, kw) {
			violations = append(violations, Violation{
				Code:     CodeBannedKeyword,
				Message:  "output contains banned phrase: " + kw,
				Severity: SeverityHigh,
				Details:  map[string]any{"keyword": kw},
			})
		}
	}
	return violations
}

// CheckCode scans generated code for dangerous patterns (case-sensitive
// substring match) and returns one violation per hit.
func (e *Engine) CheckCode(code string) []Violation {
	var violations []Violation
	for _, p := range bannedCodePatterns {
		if strings.Contains(code, p) {
			violations = append(violations, Violation{
				Code:     CodeDangerousPattern,
				Message:  "code contains dangerous pattern: " + p,
				Severity: SeverityCritical,
				Details:  map[string]any{"pattern": p},
			})
		}
	}
	if len(violations) > 0 {
		e.logger.Warn("code policy violations found", zap.Int("count", len(violations)))
	}
	return violations
}
