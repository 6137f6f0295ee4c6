// Command hive runs the multi-agent orchestration service.
//
// Usage:
//
//	hive serve [--config hive.yaml]          start the HTTP service
//	hive run [--config hive.yaml] [--pipeline t0|t1] "goal"
//	                                         execute one pipeline and print the result
//	hive version                             print version information
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/projecthive/hive/api"
	"github.com/projecthive/hive/config"
	"github.com/projecthive/hive/internal/logging"
	"github.com/projecthive/hive/internal/metrics"
	"github.com/projecthive/hive/internal/telemetry"
	"github.com/projecthive/hive/queue"
	"github.com/projecthive/hive/replay"
	"github.com/projecthive/hive/types"
)

var (
	// Injected at build time.
	version   = "dev"
	gitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := runServe(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "hive serve: %v\n", err)
			os.Exit(1)
		}
	case "run":
		if err := runOnce(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "hive run: %v\n", err)
			os.Exit(1)
		}
	case "version":
		fmt.Printf("hive %s (%s)\n", version, gitCommit)
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: hive <serve|run|version> [flags]")
}

func loadConfig(args []string, fs *flag.FlagSet) (*config.Config, error) {
	configPath := fs.String("config", "", "path to YAML config file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return config.NewLoader().WithConfigPath(*configPath).Load()
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	cfg, err := loadConfig(args, fs)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	providers, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown", zap.Error(err))
		}
	}()

	collector := metrics.NewCollector("hive", nil, logger)

	deps, err := buildPipelines(cfg, logger, collector)
	if err != nil {
		return err
	}
	defer deps.Close()

	recorder := replay.NewRecorder(logger)
	q := queue.NewManager(deps.Runners(),
		queue.WithWorkers(cfg.Queue.Workers),
		queue.WithMetrics(collector),
		queue.WithRecorder(recorder),
		queue.WithLogger(logger),
	)
	q.Start(ctx)
	defer q.Stop()

	server := api.NewServer(cfg.Server, q, logger,
		api.WithRecorder(recorder),
		api.WithRunStore(deps.Store),
		api.WithHealthChecker(deps.Router),
		api.WithMetricsHandler(promhttp.Handler()),
		api.WithHTTPMetrics(collector),
	)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	return server.Shutdown(context.Background())
}

func runOnce(args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	pipelineName := fs.String("pipeline", "t1", "pipeline to execute (t0 or t1)")
	cfg, err := loadConfig(args, fs)
	if err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("a goal argument is required")
	}
	goal := fs.Arg(0)

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := buildPipelines(cfg, logger, nil)
	if err != nil {
		return err
	}
	defer deps.Close()

	runner, ok := deps.Runners()[*pipelineName]
	if !ok {
		return fmt.Errorf("unknown pipeline %q", *pipelineName)
	}

	state, err := runner(ctx, goal)
	if err != nil {
		return err
	}
	return printRunReport(state)
}

func printRunReport(state *types.RunState) error {
	report := map[string]any{
		"run_id":      state.RunID,
		"mode":        state.Mode,
		"phase":       state.Phase(),
		"budget_used": state.BudgetUsed,
		"errors":      state.Errors,
		"artifacts":   state.Artifacts,
	}
	if last, ok := state.LastMessage(); ok {
		report["final_message"] = last.Content
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
