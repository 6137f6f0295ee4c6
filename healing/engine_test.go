package healing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		log  string
		want ErrorKind
	}{
		{"syntax", "SyntaxError: invalid syntax at line 5", KindSyntax},
		{"indentation", "IndentationError: unexpected indent", KindSyntax},
		{"import", "ModuleNotFoundError: No module named 'requests'", KindImport},
		{"timeout", "TimeoutError: operation timed out", KindTimeout},
		{"time limit", "process killed: time limit exceeded", KindTimeout},
		{"assertion", "AssertionError: expected 4, got 5", KindLogic},
		{"generic failure", "2 tests failed", KindLogic},
		{"mismatch", "output MISMATCH on case 3", KindLogic},
		{"unknown", "segmentation fault (core dumped)", KindUnknown},
		{"empty", "", KindUnknown},
	}

	c := NewClassifier()
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := c.Classify(tt.log)
			assert.Equal(t, tt.want, got.Kind)
			assert.Equal(t, tt.log, got.Message)
		})
	}
}

func TestClassifySyntaxBeatsLogic(t *testing.T) {
	t.Parallel()

	// A syntax failure often also says "failed"; the specific kind wins.
	c := NewClassifier()
	got := c.Classify("build failed: SyntaxError near token")
	assert.Equal(t, KindSyntax, got.Kind)
}

func TestRepairPrompt(t *testing.T) {
	t.Parallel()

	prompt := RepairPrompt(KindSyntax, "def f(:", "SyntaxError")
	assert.Contains(t, prompt, "def f(:")
	assert.Contains(t, prompt, "SyntaxError")
	assert.Contains(t, prompt, "Fix the syntax error")

	fallback := RepairPrompt(ErrorKind("bogus"), "x", "y")
	assert.Contains(t, fallback, "safe and minimal")
}

func TestDiagnose(t *testing.T) {
	t.Parallel()

	e := NewEngine(nil)
	diag := e.Diagnose("ImportError: cannot import name", "import missing_pkg")

	require.Equal(t, KindImport, diag.Kind)
	assert.Contains(t, diag.FixPrompt, "import missing_pkg")
	assert.Contains(t, diag.FixPrompt, "Fix the import error")
	assert.Contains(t, diag.Details, "matched")
}
