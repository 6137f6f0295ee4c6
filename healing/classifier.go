package healing

import "regexp"

// ErrorKind buckets a failure log into a repair category.
type ErrorKind string

const (
	KindSyntax  ErrorKind = "syntax"
	KindImport  ErrorKind = "import"
	KindLogic   ErrorKind = "logic"
	KindTimeout ErrorKind = "timeout"
	KindUnknown ErrorKind = "unknown"
)

// Analysis is the result of classifying one failure log.
type Analysis struct {
	Kind    ErrorKind
	Message string
	Details string
}

type pattern struct {
	kind ErrorKind
	re   *regexp.Regexp
}

// Ordered: the first matching pattern wins, so the more specific kinds come
// before the generic logic-failure catches.
var patterns = []pattern{
	{KindSyntax, regexp.MustCompile(`(?i)SyntaxError`)},
	{KindSyntax, regexp.MustCompile(`(?i)IndentationError`)},
	{KindSyntax, regexp.MustCompile(`(?i)TabError`)},
	{KindImport, regexp.MustCompile(`(?i)ImportError`)},
	{KindImport, regexp.MustCompile(`(?i)ModuleNotFoundError`)},
	{KindTimeout, regexp.MustCompile(`(?i)TimeoutError`)},
	{KindTimeout, regexp.MustCompile(`(?i)time limit exceeded`)},
	{KindLogic, regexp.MustCompile(`(?i)AssertionError`)},
	{KindLogic, regexp.MustCompile(`(?i)failed`)},
	{KindLogic, regexp.MustCompile(`(?i)mismatch`)},
}

// Classifier maps failure logs to error kinds via a fixed pattern table.
type Classifier struct{}

// NewClassifier creates a classifier.
func NewClassifier() *Classifier { return &Classifier{} }

// Classify returns the first matching kind, or KindUnknown.
func (c *Classifier) Classify(errorLog string) Analysis {
	for _, p := range patterns {
		if p.re.MatchString(errorLog) {
			return Analysis{
				Kind:    p.kind,
				Message: errorLog,
				Details: "matched " + p.re.String(),
			}
		}
	}
	return Analysis{Kind: KindUnknown, Message: errorLog, Details: "no pattern matched"}
}
