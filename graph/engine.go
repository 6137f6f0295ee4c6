package graph

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/projecthive/hive/types"
)

const (
	// DefaultMaxRetries is the per-node retry ceiling.
	DefaultMaxRetries = 3
	// DefaultMaxExecutionTime bounds the wall-clock time of one traversal.
	DefaultMaxExecutionTime = 60 * time.Second
)

// NodeMetrics receives per-attempt execution telemetry. Implemented by
// internal/metrics.Collector; a nil NodeMetrics disables recording.
type NodeMetrics interface {
	RecordNodeExecution(node, status string, duration time.Duration)
}

// Engine walks a node/edge graph starting at a configured start node,
// executing exactly one node at a time. The first node added becomes the
// default start unless overridden with SetStart.
type Engine struct {
	nodes map[string]Node
	edges []Edge
	start string

	maxRetries  int
	maxExecTime time.Duration
	metrics     NodeMetrics
	logger      *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxRetries sets the per-node retry ceiling (attempts = retries + 1).
func WithMaxRetries(n int) Option {
	return func(e *Engine) { e.maxRetries = n }
}

// WithMaxExecutionTime sets the wall-clock ceiling for a full traversal.
// The ceiling is checked once per completed step, not preemptively inside a
// running node, so a single slow node can overrun it.
func WithMaxExecutionTime(d time.Duration) Option {
	return func(e *Engine) { e.maxExecTime = d }
}

// WithMetrics attaches an execution metrics sink.
func WithMetrics(m NodeMetrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger sets the engine logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine creates an empty engine with default retry and timeout policy.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		nodes:       make(map[string]Node),
		maxRetries:  DefaultMaxRetries,
		maxExecTime: DefaultMaxExecutionTime,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(zap.String("component", "graph_engine"))
	return e
}

// AddNode registers a node. The first node added becomes the default start.
func (e *Engine) AddNode(node Node) error {
	name := node.Name()
	if _, exists := e.nodes[name]; exists {
		return types.NewError(types.ErrDuplicateNode, fmt.Sprintf("node already registered: %s", name))
	}
	e.nodes[name] = node
	if e.start == "" {
		e.start = name
	}
	return nil
}

// AddEdge registers a directed edge. Both endpoints must already be
// registered. Edges are evaluated in registration order during traversal.
func (e *Engine) AddEdge(source, target string, condition Condition) error {
	if _, ok := e.nodes[source]; !ok {
		return types.NewError(types.ErrUnknownNode, fmt.Sprintf("edge source not registered: %s", source))
	}
	if _, ok := e.nodes[target]; !ok {
		return types.NewError(types.ErrUnknownNode, fmt.Sprintf("edge target not registered: %s", target))
	}
	e.edges = append(e.edges, Edge{Source: source, Target: target, Condition: condition})
	return nil
}

// SetStart overrides the start node.
func (e *Engine) SetStart(name string) error {
	if _, ok := e.nodes[name]; !ok {
		return types.NewError(types.ErrUnknownNode, fmt.Sprintf("start node not registered: %s", name))
	}
	e.start = name
	return nil
}

// Execute walks the graph until no outgoing edge fires, a node name repeats
// within this traversal (graph_cycle), or the wall-clock ceiling is exceeded
// (graph_timeout). Cycle and timeout stop the walk but are reported through
// the state's error log, not as a returned error; the state is usable in all
// cases. The one fatal path is a node that still fails after exhausting its
// retries: that error is returned to the caller together with the partially
// mutated state.
func (e *Engine) Execute(ctx context.Context, state *types.RunState) (*types.RunState, error) {
	if e.start == "" {
		return state, types.NewError(types.ErrNoStartNode, "no start node configured")
	}

	visited := make(map[string]bool, len(e.nodes))
	startTime := time.Now()
	current := e.start

	for current != "" {
		if err := ctx.Err(); err != nil {
			e.logger.Warn("execution cancelled",
				zap.String("run_id", state.RunID),
				zap.String("node", current),
			)
			return state, err
		}

		if visited[current] {
			e.logger.Error("cycle detected",
				zap.String("run_id", state.RunID),
				zap.String("node", current),
			)
			state.AddError(types.ErrorTypeGraphCycle,
				fmt.Sprintf("cycle detected at node %s", current), nil)
			break
		}
		visited[current] = true

		node := e.nodes[current]
		e.logger.Info("executing node",
			zap.String("run_id", state.RunID),
			zap.String("node", current),
			zap.Int("step", state.Step),
		)

		var err error
		state, err = e.runWithRetry(ctx, node, state)
		if err != nil {
			return state, fmt.Errorf("node %s failed after %d attempts: %w", current, e.maxRetries+1, err)
		}

		if e.maxExecTime > 0 && time.Since(startTime) > e.maxExecTime {
			e.logger.Error("graph execution timeout",
				zap.String("run_id", state.RunID),
				zap.Duration("max_execution_time", e.maxExecTime),
			)
			state.AddError(types.ErrorTypeGraphTimeout, "max execution time exceeded", nil)
			break
		}

		current = e.nextNode(current, state)
	}

	return state, nil
}

// runWithRetry attempts the node up to maxRetries+1 times. Each failed
// attempt appends a node_execution record; the step counter advances before
// every attempt so failed attempts stay visible in the count.
func (e *Engine) runWithRetry(ctx context.Context, node Node, state *types.RunState) (*types.RunState, error) {
	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		state.NextStep()

		started := time.Now()
		next, err := node.Execute(ctx, state)
		duration := time.Since(started)

		if err == nil {
			if e.metrics != nil {
				e.metrics.RecordNodeExecution(node.Name(), "success", duration)
			}
			return next, nil
		}

		if e.metrics != nil {
			e.metrics.RecordNodeExecution(node.Name(), "error", duration)
		}
		e.logger.Error("node execution failed",
			zap.String("run_id", state.RunID),
			zap.String("node", node.Name()),
			zap.Int("retries", attempt),
			zap.Error(err),
		)
		state.AddError(types.ErrorTypeNodeExecution, err.Error(), map[string]any{
			"node":    node.Name(),
			"retries": attempt,
		})
		lastErr = err
	}
	return state, lastErr
}

// nextNode evaluates the outgoing edges of current in registration order and
// returns the target of the first whose condition is absent or true.
func (e *Engine) nextNode(current string, state *types.RunState) string {
	for _, edge := range e.edges {
		if edge.Source != current {
			continue
		}
		if edge.Condition == nil || edge.Condition(state) {
			return edge.Target
		}
	}
	return ""
}
