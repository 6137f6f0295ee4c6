package main

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/projecthive/hive/config"
	"github.com/projecthive/hive/graph"
	"github.com/projecthive/hive/healing"
	"github.com/projecthive/hive/internal/cache"
	"github.com/projecthive/hive/internal/metrics"
	"github.com/projecthive/hive/llm"
	"github.com/projecthive/hive/llm/providers/ollama"
	"github.com/projecthive/hive/llm/providers/openai"
	"github.com/projecthive/hive/persistence"
	"github.com/projecthive/hive/pipeline"
	"github.com/projecthive/hive/queue"
	"github.com/projecthive/hive/swarm"
	"github.com/projecthive/hive/types"
)

// deps bundles the wired pipeline stack.
type deps struct {
	Router   *llm.Router
	Store    persistence.RunStore
	velocity *pipeline.Velocity
	fortress *pipeline.Fortress
	redis    *redis.Client
	logger   *zap.Logger
}

// buildPipelines assembles providers, the router, the healing engine, both
// pipelines, and the run store from config. collector may be nil.
func buildPipelines(cfg *config.Config, logger *zap.Logger, collector *metrics.Collector) (*deps, error) {
	local := ollama.New(ollama.Config{
		BaseURL: cfg.LLM.OllamaBaseURL,
		Timeout: cfg.LLM.Timeout,
	}, logger)

	var cloud llm.Provider
	if cfg.LLM.APIKey != "" {
		cloud = openai.New(openai.Config{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.OpenAIBaseURL,
			Timeout: cfg.LLM.Timeout,
		}, logger)
	}

	budget := llm.NewBudgetTracker(logger)
	router, err := llm.NewRouter(cloud, local, llm.RouterConfig{
		CloudModel:        cfg.LLM.CloudModel,
		LocalModel:        cfg.LLM.LocalModel,
		RequestsPerSecond: cfg.LLM.RequestsPerSecond,
		Burst:             cfg.LLM.Burst,
	}, budget, logger)
	if err != nil {
		return nil, err
	}
	if collector != nil {
		router.SetMetrics(collector)
	}

	heal := healing.NewEngine(logger)

	pipeCfg := pipeline.Config{
		Strategy:     swarm.Strategy(cfg.Swarm.Strategy),
		MaxRounds:    cfg.Swarm.MaxRounds,
		ArbiterIndex: cfg.Swarm.ArbiterIndex,
		Budget:       cfg.LLM.Budget,
	}

	var graphOpts []graph.Option
	graphOpts = append(graphOpts,
		graph.WithMaxRetries(cfg.Engine.MaxRetries),
		graph.WithMaxExecutionTime(cfg.Engine.MaxExecutionTime),
	)
	if collector != nil {
		graphOpts = append(graphOpts, graph.WithMetrics(collector))
	}
	velocity, err := pipeline.NewVelocity(router, heal, pipeCfg, logger, graphOpts...)
	if err != nil {
		return nil, err
	}

	var swarmOpts []swarm.CoordinatorOption
	if collector != nil {
		swarmOpts = append(swarmOpts, swarm.WithMetrics(collector))
	}
	fortress, err := pipeline.NewFortress(router, heal, pipeCfg, logger, swarmOpts...)
	if err != nil {
		return nil, err
	}

	d := &deps{
		Router:   router,
		velocity: velocity,
		fortress: fortress,
		logger:   logger,
	}

	if cfg.Redis.Enabled {
		d.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		d.Store = persistence.NewRedisRunStore(d.redis, cfg.Redis.RunTTL, logger)
		router.SetCache(cache.New(d.redis, 0, logger))
	} else {
		d.Store = persistence.NewMemoryRunStore()
	}

	return d, nil
}

// Runners exposes the pipelines in the shape the queue consumes. Finished
// run snapshots land in the store.
func (d *deps) Runners() map[string]queue.Runner {
	return map[string]queue.Runner{
		pipeline.ModeVelocity: d.persisted(d.velocity.Run),
		pipeline.ModeFortress: d.persisted(d.fortress.Run),
	}
}

// persisted wraps a pipeline so every finished run is snapshotted into the
// store. Store failures are logged, not fatal: the run already succeeded.
func (d *deps) persisted(run queue.Runner) queue.Runner {
	return func(ctx context.Context, goal string) (*types.RunState, error) {
		state, err := run(ctx, goal)
		if err != nil || state == nil {
			return state, err
		}
		if saveErr := d.Store.SaveRun(ctx, state.Snapshot()); saveErr != nil {
			d.logger.Warn("persist run snapshot", zap.String("run_id", state.RunID), zap.Error(saveErr))
		}
		return state, nil
	}
}

func (d *deps) Close() {
	if d.redis != nil {
		_ = d.redis.Close()
	}
}
