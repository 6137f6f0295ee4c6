package healing

import "go.uber.org/zap"

// Diagnosis couples a classified failure with its repair prompt.
type Diagnosis struct {
	Kind      ErrorKind
	Message   string
	Details   string
	FixPrompt string
}

// Engine runs classification and repair-prompt generation as one step.
type Engine struct {
	classifier *Classifier
	logger     *zap.Logger
}

// NewEngine creates a healing engine.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		classifier: NewClassifier(),
		logger:     logger.With(zap.String("component", "healing_engine")),
	}
}

// Diagnose classifies the failure log and builds the fix prompt for the
// given code.
func (e *Engine) Diagnose(errorLog, code string) Diagnosis {
	analysis := e.classifier.Classify(errorLog)
	e.logger.Info("diagnosed failure",
		zap.String("kind", string(analysis.Kind)),
		zap.String("details", analysis.Details),
	)
	return Diagnosis{
		Kind:      analysis.Kind,
		Message:   analysis.Message,
		Details:   analysis.Details,
		FixPrompt: RepairPrompt(analysis.Kind, code, analysis.Message),
	}
}
