package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector owns every Prometheus series the service exports. It satisfies
// the one-method telemetry interfaces of the graph engine, the swarm
// coordinator, and the task queue.
type Collector struct {
	nodeExecutions   *prometheus.CounterVec
	nodeDuration     *prometheus.HistogramVec
	swarmRounds      *prometheus.CounterVec
	pipelineRuns     *prometheus.CounterVec
	pipelineDuration *prometheus.HistogramVec
	queueDepth       prometheus.Gauge
	llmRequests      *prometheus.CounterVec
	llmCost          *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec

	logger *zap.Logger
}

// NewCollector registers the series with the given registerer. Pass a
// fresh prometheus.NewRegistry in tests; nil selects the default
// registerer.
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(reg)

	return &Collector{
		nodeExecutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_executions_total",
			Help:      "Graph node executions by node and status.",
		}, []string{"node", "status"}),
		nodeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "node_execution_duration_seconds",
			Help:      "Graph node execution latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"node"}),
		swarmRounds: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "swarm_rounds_total",
			Help:      "Swarm rounds by strategy and consensus outcome.",
		}, []string{"strategy", "consensus"}),
		pipelineRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Completed pipeline runs by pipeline and status.",
		}, []string{"pipeline", "status"}),
		pipelineDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_run_duration_seconds",
			Help:      "End-to-end pipeline run latency.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"pipeline"}),
		queueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Tasks waiting in the run queue.",
		}),
		llmRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Model completions by provider and status.",
		}, []string{"provider", "status"}),
		llmCost: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_cost_usd_total",
			Help:      "Estimated completion cost by provider.",
		}, []string{"provider"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route, and status code.",
		}, []string{"method", "route", "code"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		logger: logger.With(zap.String("component", "metrics")),
	}
}

// RecordNodeExecution implements graph.NodeMetrics.
func (c *Collector) RecordNodeExecution(node, status string, duration time.Duration) {
	c.nodeExecutions.WithLabelValues(node, status).Inc()
	c.nodeDuration.WithLabelValues(node).Observe(duration.Seconds())
}

// RecordSwarmRound implements swarm.RoundMetrics.
func (c *Collector) RecordSwarmRound(strategy string, consensus bool) {
	c.swarmRounds.WithLabelValues(strategy, strconv.FormatBool(consensus)).Inc()
}

// RecordPipelineRun implements half of queue.PipelineMetrics.
func (c *Collector) RecordPipelineRun(pipeline, status string, duration time.Duration) {
	c.pipelineRuns.WithLabelValues(pipeline, status).Inc()
	c.pipelineDuration.WithLabelValues(pipeline).Observe(duration.Seconds())
}

// SetQueueDepth implements the other half of queue.PipelineMetrics.
func (c *Collector) SetQueueDepth(depth int) {
	c.queueDepth.Set(float64(depth))
}

// RecordLLMRequest counts one completion attempt.
func (c *Collector) RecordLLMRequest(provider, status string) {
	c.llmRequests.WithLabelValues(provider, status).Inc()
}

// AddLLMCost accumulates estimated spend.
func (c *Collector) AddLLMCost(provider string, usd float64) {
	c.llmCost.WithLabelValues(provider).Add(usd)
}

// RecordHTTPRequest counts one handled request.
func (c *Collector) RecordHTTPRequest(method, route string, code int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	c.httpDuration.WithLabelValues(route).Observe(duration.Seconds())
}
