// Package hive provides a top-level convenience entry point for running the
// multi-agent pipelines with minimal boilerplate.
//
// Usage:
//
//	import "github.com/projecthive/hive"
//
//	p, err := hive.New(hive.WithOpenAIKey(key))
//	state, err := p.Run(ctx, "build a CSV parser")
//
// This wires the same stack as cmd/hive with defaults: an Ollama local
// provider, an optional OpenAI cloud provider, the healing engine, and the
// fortress pipeline (use [WithMode] for velocity).
package hive

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/projecthive/hive/config"
	"github.com/projecthive/hive/healing"
	"github.com/projecthive/hive/llm"
	"github.com/projecthive/hive/llm/providers/ollama"
	"github.com/projecthive/hive/llm/providers/openai"
	"github.com/projecthive/hive/pipeline"
	"github.com/projecthive/hive/swarm"
	"github.com/projecthive/hive/types"
)

// Pipeline is the common surface of the velocity and fortress pipelines.
type Pipeline interface {
	Run(ctx context.Context, goal string) (*types.RunState, error)
}

type options struct {
	mode      string
	apiKey    string
	ollamaURL string
	logger    *zap.Logger
}

// Option configures the pipeline created by [New].
type Option func(*options)

// WithMode selects the pipeline: pipeline.ModeVelocity or
// pipeline.ModeFortress (the default).
func WithMode(mode string) Option {
	return func(o *options) { o.mode = mode }
}

// WithOpenAIKey enables the OpenAI cloud provider.
func WithOpenAIKey(key string) Option {
	return func(o *options) { o.apiKey = key }
}

// WithOllamaURL overrides the local provider endpoint.
func WithOllamaURL(url string) Option {
	return func(o *options) { o.ollamaURL = url }
}

// WithLogger sets a custom zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New creates a ready-to-run pipeline with default configuration.
func New(opts ...Option) (Pipeline, error) {
	cfg := config.DefaultConfig()
	o := options{
		mode:      pipeline.ModeFortress,
		ollamaURL: cfg.LLM.OllamaBaseURL,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	local := ollama.New(ollama.Config{BaseURL: o.ollamaURL, Timeout: cfg.LLM.Timeout}, o.logger)
	var cloud llm.Provider
	if o.apiKey != "" {
		cloud = openai.New(openai.Config{
			APIKey:  o.apiKey,
			BaseURL: cfg.LLM.OpenAIBaseURL,
			Timeout: cfg.LLM.Timeout,
		}, o.logger)
	}

	routerCfg := llm.DefaultRouterConfig()
	router, err := llm.NewRouter(cloud, local, routerCfg, llm.NewBudgetTracker(o.logger), o.logger)
	if err != nil {
		return nil, err
	}
	heal := healing.NewEngine(o.logger)

	pipeCfg := pipeline.Config{
		Strategy:     swarm.Strategy(cfg.Swarm.Strategy),
		MaxRounds:    cfg.Swarm.MaxRounds,
		ArbiterIndex: cfg.Swarm.ArbiterIndex,
		Budget:       cfg.LLM.Budget,
	}

	switch o.mode {
	case pipeline.ModeVelocity:
		return pipeline.NewVelocity(router, heal, pipeCfg, o.logger)
	case pipeline.ModeFortress:
		return pipeline.NewFortress(router, heal, pipeCfg, o.logger)
	default:
		return nil, fmt.Errorf("unknown pipeline mode %q", o.mode)
	}
}
