package queue

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/projecthive/hive/internal/ctxkeys"
	"github.com/projecthive/hive/replay"
	"github.com/projecthive/hive/types"
)

// Status is a task's lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// DefaultWorkers is the worker pool size when the config leaves it unset.
const DefaultWorkers = 3

const defaultQueueCap = 1024

// Task is one background pipeline execution.
type Task struct {
	ID          string          `json:"id"`
	Goal        string          `json:"goal"`
	Pipeline    string          `json:"pipeline"`
	Status      Status          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	StartedAt   time.Time       `json:"started_at,omitempty"`
	CompletedAt time.Time       `json:"completed_at,omitempty"`
	Result      *types.RunState `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// Runner executes one pipeline for a goal. pipeline.Velocity.Run and
// pipeline.Fortress.Run satisfy it.
type Runner func(ctx context.Context, goal string) (*types.RunState, error)

// PipelineMetrics receives queue telemetry. Implemented by
// internal/metrics.Collector; nil disables recording.
type PipelineMetrics interface {
	RecordPipelineRun(pipeline, status string, duration time.Duration)
	SetQueueDepth(depth int)
}

// Stats summarizes the queue.
type Stats struct {
	Total     int `json:"total_tasks"`
	Pending   int `json:"pending"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Cancelled int `json:"cancelled"`
	QueueSize int `json:"queue_size"`
	Workers   int `json:"max_workers"`
}

// Manager dispatches submitted tasks to a fixed pool of workers, one
// pipeline execution per task.
type Manager struct {
	runners  map[string]Runner
	workers  int
	metrics  PipelineMetrics
	recorder *replay.Recorder
	logger   *zap.Logger

	mu     sync.RWMutex
	tasks  map[string]*Task
	closed bool

	ch     chan string
	cancel context.CancelFunc
	group  *errgroup.Group
}

// Option configures a Manager.
type Option func(*Manager)

// WithWorkers sets the worker pool size.
func WithWorkers(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.workers = n
		}
	}
}

// WithMetrics attaches a queue metrics sink.
func WithMetrics(metrics PipelineMetrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// WithRecorder attaches a session replay recorder.
func WithRecorder(r *replay.Recorder) Option {
	return func(m *Manager) { m.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a queue over the given pipelines, keyed by the
// pipeline name clients submit ("t0", "t1").
func NewManager(runners map[string]Runner, opts ...Option) *Manager {
	m := &Manager{
		runners: runners,
		workers: DefaultWorkers,
		tasks:   make(map[string]*Task),
		ch:      make(chan string, defaultQueueCap),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With(zap.String("component", "task_queue"))
	return m
}

// Start launches the worker pool. Workers exit when the context is
// cancelled or Stop is called.
func (m *Manager) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	g, gctx := errgroup.WithContext(runCtx)
	m.group = g
	for i := 0; i < m.workers; i++ {
		g.Go(func() error {
			m.work(gctx)
			return nil
		})
	}
	m.logger.Info("queue started", zap.Int("workers", m.workers))
}

// Stop refuses further submissions and waits for in-flight tasks to finish
// or the worker context to be cancelled.
func (m *Manager) Stop() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	if m.cancel != nil {
		m.cancel()
	}
	if m.group != nil {
		_ = m.group.Wait()
	}
	m.logger.Info("queue stopped")
}

// Submit enqueues one pipeline execution and returns its task ID.
func (m *Manager) Submit(goal, pipeline string) (string, error) {
	if _, ok := m.runners[pipeline]; !ok {
		return "", types.NewError(types.ErrInvalidRequest, fmt.Sprintf("unknown pipeline %q", pipeline))
	}

	task := &Task{
		ID:        uuid.New().String(),
		Goal:      goal,
		Pipeline:  pipeline,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return "", types.NewError(types.ErrQueueClosed, "queue is shut down")
	}
	m.tasks[task.ID] = task
	m.mu.Unlock()

	select {
	case m.ch <- task.ID:
	default:
		m.mu.Lock()
		delete(m.tasks, task.ID)
		m.mu.Unlock()
		return "", types.NewError(types.ErrRateLimited, "queue is full").WithRetryable(true)
	}

	if m.metrics != nil {
		m.metrics.SetQueueDepth(len(m.ch))
	}
	m.logger.Info("task submitted",
		zap.String("task_id", task.ID),
		zap.String("pipeline", pipeline),
	)
	return task.ID, nil
}

// Get returns a copy of one task.
func (m *Manager) Get(id string) (Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	task, ok := m.tasks[id]
	if !ok {
		return Task{}, types.NewError(types.ErrTaskNotFound, fmt.Sprintf("task %s not found", id))
	}
	return *task, nil
}

// List returns tasks sorted newest first. A non-positive limit selects 50.
func (m *Manager) List(limit, offset int) []Task {
	if limit <= 0 {
		limit = 50
	}
	m.mu.RLock()
	out := make([]Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		out = append(out, *t)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return []Task{}
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end]
}

// Cancel marks a pending task cancelled. Running or finished tasks cannot
// be cancelled.
func (m *Manager) Cancel(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	if !ok {
		return types.NewError(types.ErrTaskNotFound, fmt.Sprintf("task %s not found", id))
	}
	if task.Status != StatusPending {
		return types.NewError(types.ErrTaskNotCancelled, fmt.Sprintf("task %s is %s", id, task.Status))
	}
	task.Status = StatusCancelled
	task.CompletedAt = time.Now()
	return nil
}

// Stats counts tasks by status.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := Stats{Total: len(m.tasks), QueueSize: len(m.ch), Workers: m.workers}
	for _, t := range m.tasks {
		switch t.Status {
		case StatusPending:
			s.Pending++
		case StatusRunning:
			s.Running++
		case StatusCompleted:
			s.Completed++
		case StatusFailed:
			s.Failed++
		case StatusCancelled:
			s.Cancelled++
		}
	}
	return s
}

func (m *Manager) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-m.ch:
			if m.metrics != nil {
				m.metrics.SetQueueDepth(len(m.ch))
			}
			m.process(ctx, id)
		}
	}
}

// process runs one task end to end. Cancelled tasks are skipped when they
// surface from the channel.
func (m *Manager) process(ctx context.Context, id string) {
	m.mu.Lock()
	task, ok := m.tasks[id]
	if !ok || task.Status != StatusPending {
		m.mu.Unlock()
		return
	}
	task.Status = StatusRunning
	task.StartedAt = time.Now()
	goal, pipeline := task.Goal, task.Pipeline
	m.mu.Unlock()

	if m.recorder != nil {
		m.recorder.StartSession(id, id, goal, pipeline)
		m.recorder.Record(id, replay.EventAgentStart, "pipeline", map[string]any{"goal": goal}, 0)
	}

	state, err := m.runners[pipeline](ctxkeys.WithTaskID(ctx, id), goal)
	completedAt := time.Now()

	m.mu.Lock()
	task.CompletedAt = completedAt
	if err != nil {
		task.Status = StatusFailed
		task.Error = err.Error()
	} else {
		task.Status = StatusCompleted
		snap := state.Snapshot()
		task.Result = &snap
	}
	status := task.Status
	duration := completedAt.Sub(task.StartedAt)
	m.mu.Unlock()

	if m.recorder != nil {
		if err != nil {
			m.recorder.Record(id, replay.EventAgentError, "pipeline", map[string]any{"error": err.Error()}, duration)
			m.recorder.EndSession(id, string(StatusFailed))
		} else {
			m.recorder.Record(id, replay.EventAgentComplete, "pipeline", map[string]any{"run_id": state.RunID}, duration)
			m.recorder.EndSession(id, string(StatusCompleted))
		}
	}
	if m.metrics != nil {
		m.metrics.RecordPipelineRun(pipeline, string(status), duration)
	}

	m.logger.Info("task finished",
		zap.String("task_id", id),
		zap.String("status", string(status)),
		zap.Duration("duration", duration),
		zap.Error(err),
	)
}
