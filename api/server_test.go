package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projecthive/hive/config"
	"github.com/projecthive/hive/llm"
	"github.com/projecthive/hive/persistence"
	"github.com/projecthive/hive/queue"
	"github.com/projecthive/hive/replay"
	"github.com/projecthive/hive/types"
)

func testServer(t *testing.T, opts ...Option) (*Server, *queue.Manager) {
	t.Helper()
	q := queue.NewManager(map[string]queue.Runner{
		"t0": func(_ context.Context, goal string) (*types.RunState, error) {
			return types.NewRunState(goal), nil
		},
		"t1": func(_ context.Context, goal string) (*types.RunState, error) {
			return types.NewRunState(goal, types.WithMode("t1")), nil
		},
	})
	q.Start(context.Background())
	t.Cleanup(q.Stop)

	cfg := config.DefaultConfig().Server
	return NewServer(cfg, q, nil, opts...), q
}

func doJSON(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestSubmitRun(t *testing.T) {
	t.Parallel()

	s, q := testServer(t)
	w := doJSON(t, s, http.MethodPost, "/api/v1/runs", `{"goal":"build a calculator","pipeline":"t0"}`)

	require.Equal(t, http.StatusAccepted, w.Code)
	id, ok := decode(t, w)["task_id"].(string)
	require.True(t, ok)

	_, err := q.Get(id)
	assert.NoError(t, err)
}

func TestSubmitRunDefaultsPipeline(t *testing.T) {
	t.Parallel()

	s, q := testServer(t)
	w := doJSON(t, s, http.MethodPost, "/api/v1/runs", `{"goal":"anything"}`)
	require.Equal(t, http.StatusAccepted, w.Code)

	id := decode(t, w)["task_id"].(string)
	task, err := q.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "t1", task.Pipeline)
}

func TestSubmitRunValidation(t *testing.T) {
	t.Parallel()

	s, _ := testServer(t)

	w := doJSON(t, s, http.MethodPost, "/api/v1/runs", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, s, http.MethodPost, "/api/v1/runs", `{"pipeline":"t0"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, s, http.MethodPost, "/api/v1/runs", `{"goal":"x","pipeline":"t9"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetRun(t *testing.T) {
	t.Parallel()

	s, q := testServer(t)
	id, err := q.Submit("build a calculator", "t0")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		task, err := q.Get(id)
		return err == nil && task.Status == queue.StatusCompleted
	}, 5*time.Second, 5*time.Millisecond)

	w := doJSON(t, s, http.MethodGet, "/api/v1/runs/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, id, body["id"])
	assert.Equal(t, string(queue.StatusCompleted), body["status"])
}

func TestGetRunNotFound(t *testing.T) {
	t.Parallel()

	s, _ := testServer(t)
	w := doJSON(t, s, http.MethodGet, "/api/v1/runs/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListRuns(t *testing.T) {
	t.Parallel()

	s, q := testServer(t)
	_, err := q.Submit("one", "t0")
	require.NoError(t, err)
	_, err = q.Submit("two", "t0")
	require.NoError(t, err)

	w := doJSON(t, s, http.MethodGet, "/api/v1/runs?limit=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	tasks := decode(t, w)["tasks"].([]any)
	assert.Len(t, tasks, 1)
}

func TestCancelRunConflict(t *testing.T) {
	t.Parallel()

	s, q := testServer(t)
	id, err := q.Submit("goal", "t0")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		task, err := q.Get(id)
		return err == nil && task.Status == queue.StatusCompleted
	}, 5*time.Second, 5*time.Millisecond)

	w := doJSON(t, s, http.MethodDelete, "/api/v1/runs/"+id, "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRunEvents(t *testing.T) {
	t.Parallel()

	rec := replay.NewRecorder(nil)
	s, _ := testServer(t, WithRecorder(rec))

	rec.StartSession("task-1", "run-1", "goal", "t0")
	rec.Record("task-1", replay.EventAgentStart, "pipeline", nil, 0)

	w := doJSON(t, s, http.MethodGet, "/api/v1/runs/task-1/events", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Len(t, body["events"].([]any), 1)

	w = doJSON(t, s, http.MethodGet, "/api/v1/runs/task-2/events", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStats(t *testing.T) {
	t.Parallel()

	s, q := testServer(t)
	_, err := q.Submit("goal", "t0")
	require.NoError(t, err)

	w := doJSON(t, s, http.MethodGet, "/api/v1/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["total_tasks"])
}

func TestHistoryEndpoints(t *testing.T) {
	t.Parallel()

	store := persistence.NewMemoryRunStore()
	state := types.NewRunState("archived goal")
	require.NoError(t, store.SaveRun(context.Background(), *state))

	s, _ := testServer(t, WithRunStore(store))

	w := doJSON(t, s, http.MethodGet, "/api/v1/history", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["runs"].([]any), 1)

	w = doJSON(t, s, http.MethodGet, "/api/v1/history/"+state.RunID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "archived goal", decode(t, w)["goal"])

	w = doJSON(t, s, http.MethodGet, "/api/v1/history/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, s, http.MethodDelete, "/api/v1/history/"+state.RunID, "")
	require.Equal(t, http.StatusOK, w.Code)
	_, err := store.GetRun(context.Background(), state.RunID)
	assert.Error(t, err)
}

func TestHistoryRoutesAbsentWithoutStore(t *testing.T) {
	t.Parallel()

	s, _ := testServer(t)
	w := doJSON(t, s, http.MethodGet, "/api/v1/history", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type stubHealth struct{}

func (stubHealth) HealthCheck(context.Context) map[string]*llm.HealthStatus {
	return map[string]*llm.HealthStatus{"ollama": {Healthy: true}}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	s, _ := testServer(t, WithHealthChecker(stubHealth{}))
	w := doJSON(t, s, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "ok", body["status"])
	providers := body["providers"].(map[string]any)
	assert.Contains(t, providers, "ollama")
}

func TestRequestIDHeader(t *testing.T) {
	t.Parallel()

	s, _ := testServer(t)
	w := doJSON(t, s, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestMetricsRouteOnlyWhenConfigured(t *testing.T) {
	t.Parallel()

	s, _ := testServer(t)
	w := doJSON(t, s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	s2, _ := testServer(t, WithMetricsHandler(handler))
	w = doJSON(t, s2, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
