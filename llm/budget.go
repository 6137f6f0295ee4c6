package llm

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"

	"github.com/projecthive/hive/types"
)

// Per-token USD pricing by provider. Local inference is free.
var defaultPricing = map[string]float64{
	"openai": 0.000002,
	"ollama": 0,
}

// BudgetTracker estimates completion costs and applies them to a run's
// advisory budget counters. The core never halts on budget exhaustion;
// callers compare Budget and BudgetUsed themselves.
type BudgetTracker struct {
	pricing map[string]float64
	logger  *zap.Logger

	encOnce sync.Once
	enc     *tiktoken.Tiktoken
}

// NewBudgetTracker creates a tracker with default pricing.
func NewBudgetTracker(logger *zap.Logger) *BudgetTracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	pricing := make(map[string]float64, len(defaultPricing))
	for k, v := range defaultPricing {
		pricing[k] = v
	}
	return &BudgetTracker{
		pricing: pricing,
		logger:  logger.With(zap.String("component", "budget_tracker")),
	}
}

// SetPrice overrides the per-token price for a provider.
func (b *BudgetTracker) SetPrice(provider string, perToken float64) {
	b.pricing[provider] = perToken
}

// EstimateCost converts a response's token usage into USD. When the
// provider reported no usage, tokens are estimated from the content.
func (b *BudgetTracker) EstimateCost(resp *ChatResponse) float64 {
	tokens := resp.Usage.TotalTokens
	if tokens == 0 {
		tokens = b.EstimateTokens(resp.Content)
	}
	return float64(tokens) * b.pricing[resp.Provider]
}

// EstimateTokens counts tokens with the cl100k_base encoding, falling back
// to the chars/4 heuristic when the encoding is unavailable (e.g. offline).
func (b *BudgetTracker) EstimateTokens(text string) int {
	b.encOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			b.logger.Warn("tiktoken encoding unavailable, using heuristic", zap.Error(err))
			return
		}
		b.enc = enc
	})
	if b.enc != nil {
		return len(b.enc.Encode(text, nil, nil))
	}
	return len(text) / 4
}

// Apply estimates the response's cost and adds it to the state's running
// total.
func (b *BudgetTracker) Apply(state *types.RunState, resp *ChatResponse) {
	cost := b.EstimateCost(resp)
	state.AddCost(cost)
	b.logger.Info("budget updated",
		zap.String("run_id", state.RunID),
		zap.Float64("delta", cost),
		zap.Float64("used", state.BudgetUsed),
		zap.Float64("budget", state.Budget),
	)
}
