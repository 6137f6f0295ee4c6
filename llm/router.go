package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/projecthive/hive/types"
)

// PII heuristics: requests matching either pattern never leave the local
// provider. Coarse on purpose; the policy layer does the deeper scanning.
var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?\d[\d\s\-()]{7,}\d`)
)

// RouterConfig configures provider selection.
type RouterConfig struct {
	// CloudModel is the model requested from the cloud provider.
	CloudModel string
	// LocalModel is the model requested from the local provider.
	LocalModel string
	// RequestsPerSecond rate-limits outbound completions (0 = unlimited).
	RequestsPerSecond float64
	// Burst is the rate limiter burst size.
	Burst int
}

// DefaultRouterConfig returns sensible defaults.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CloudModel:        "gpt-4o",
		LocalModel:        "llama3",
		RequestsPerSecond: 5,
		Burst:             10,
	}
}

// CompletionMetrics receives per-completion telemetry. Implemented by
// internal/metrics.Collector; nil disables recording.
type CompletionMetrics interface {
	RecordLLMRequest(provider, status string)
	AddLLMCost(provider string, usd float64)
}

// ResponseCache stores completion responses keyed by request digest.
// Satisfied by *cache.Cache; nil disables response caching.
type ResponseCache interface {
	GetJSON(ctx context.Context, key string, dest any) error
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Router picks a provider per request: the local provider when the request
// contains PII or no cloud provider is configured, the cloud provider
// otherwise, with a fallback to local when the primary call fails.
type Router struct {
	cloud   Provider // may be nil
	local   Provider
	config  RouterConfig
	budget  *BudgetTracker
	limiter *rate.Limiter
	metrics CompletionMetrics
	cache   ResponseCache
	logger  *zap.Logger
}

// SetMetrics attaches a completion telemetry sink.
func (r *Router) SetMetrics(m CompletionMetrics) { r.metrics = m }

// SetCache enables response caching. Identical model+message requests
// within the cache TTL are served from the cache without touching a
// provider or the budget.
func (r *Router) SetCache(c ResponseCache) { r.cache = c }

// NewRouter creates a router. The local provider is required (it is the
// fallback of last resort); cloud may be nil when no API key is configured.
func NewRouter(cloud, local Provider, config RouterConfig, budget *BudgetTracker, logger *zap.Logger) (*Router, error) {
	if local == nil {
		return nil, types.NewError(types.ErrProviderUnavailable, "router requires a local provider")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	var limiter *rate.Limiter
	if config.RequestsPerSecond > 0 {
		burst := config.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), burst)
	}
	return &Router{
		cloud:   cloud,
		local:   local,
		config:  config,
		budget:  budget,
		limiter: limiter,
		logger:  logger.With(zap.String("component", "llm_router")),
	}, nil
}

// Route sends messages to the selected provider and applies the resulting
// cost to the state's budget counters. The state's own history is used when
// messages is nil.
func (r *Router) Route(ctx context.Context, state *types.RunState, messages []types.Message) (*ChatResponse, error) {
	if messages == nil {
		messages = state.Messages
	}

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	provider, model := r.selectProvider(messages)

	var key string
	if r.cache != nil {
		key = requestDigest(model, messages)
		var cached ChatResponse
		if err := r.cache.GetJSON(ctx, key, &cached); err == nil {
			cached.Latency = time.Since(start)
			if r.metrics != nil {
				r.metrics.RecordLLMRequest(cached.Provider, "cached")
			}
			return &cached, nil
		}
	}

	req := &ChatRequest{Model: model, Messages: messages}
	resp, err := provider.Completion(ctx, req)
	if err != nil && r.metrics != nil {
		r.metrics.RecordLLMRequest(provider.Name(), "error")
	}
	if err != nil && provider != r.local {
		r.logger.Error("primary provider failed, falling back to local",
			zap.String("run_id", state.RunID),
			zap.String("provider", provider.Name()),
			zap.Error(err),
		)
		req.Model = r.config.LocalModel
		resp, err = r.local.Completion(ctx, req)
	}
	if err != nil {
		return nil, types.NewError(types.ErrProviderUnavailable, "all providers failed").
			WithCause(err).
			WithProvider(provider.Name())
	}

	resp.Latency = time.Since(start)
	if r.metrics != nil {
		r.metrics.RecordLLMRequest(resp.Provider, "success")
		if r.budget != nil {
			r.metrics.AddLLMCost(resp.Provider, r.budget.EstimateCost(resp))
		}
	}
	if r.budget != nil {
		r.budget.Apply(state, resp)
	}
	if r.cache != nil {
		if err := r.cache.SetJSON(ctx, key, resp, 0); err != nil {
			r.logger.Debug("response cache write failed", zap.Error(err))
		}
	}
	return resp, nil
}

// requestDigest keys a completion request by model and message contents.
func requestDigest(model string, messages []types.Message) string {
	h := sha256.New()
	h.Write([]byte(model))
	for _, m := range messages {
		h.Write([]byte{0})
		h.Write([]byte(m.Role))
		h.Write([]byte{0})
		h.Write([]byte(m.Content))
	}
	return "hive:completion:" + hex.EncodeToString(h.Sum(nil))
}

// selectProvider applies the routing heuristic.
func (r *Router) selectProvider(messages []types.Message) (Provider, string) {
	if containsPII(messages) {
		r.logger.Info("pii detected, routing to local provider")
		return r.local, r.config.LocalModel
	}
	if r.cloud == nil {
		r.logger.Warn("no cloud provider configured, routing to local provider")
		return r.local, r.config.LocalModel
	}
	return r.cloud, r.config.CloudModel
}

// containsPII reports whether any message content matches a PII pattern.
func containsPII(messages []types.Message) bool {
	for _, m := range messages {
		if emailPattern.MatchString(m.Content) || phonePattern.MatchString(m.Content) {
			return true
		}
	}
	return false
}

// HealthCheck probes every configured provider.
func (r *Router) HealthCheck(ctx context.Context) map[string]*HealthStatus {
	out := make(map[string]*HealthStatus, 2)
	for _, p := range []Provider{r.cloud, r.local} {
		if p == nil {
			continue
		}
		status, err := p.HealthCheck(ctx)
		if err != nil {
			status = &HealthStatus{Healthy: false}
		}
		out[p.Name()] = status
	}
	return out
}

// String describes the routing setup for logs.
func (r *Router) String() string {
	cloudName := "none"
	if r.cloud != nil {
		cloudName = r.cloud.Name()
	}
	return fmt.Sprintf("router(cloud=%s, local=%s)", cloudName, r.local.Name())
}
