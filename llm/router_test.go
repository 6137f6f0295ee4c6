package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projecthive/hive/types"
)

type stubProvider struct {
	name    string
	content string
	err     error
	calls   int
	lastReq *ChatRequest
}

func (s *stubProvider) Completion(_ context.Context, req *ChatRequest) (*ChatResponse, error) {
	s.calls++
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return &ChatResponse{
		Provider: s.name,
		Model:    req.Model,
		Content:  s.content,
		Usage:    Usage{TotalTokens: 10},
	}, nil
}

func (s *stubProvider) HealthCheck(context.Context) (*HealthStatus, error) {
	return &HealthStatus{Healthy: s.err == nil}, nil
}

func (s *stubProvider) Name() string { return s.name }

func newTestRouter(t *testing.T, cloud, local Provider) *Router {
	t.Helper()
	cfg := DefaultRouterConfig()
	cfg.RequestsPerSecond = 0
	r, err := NewRouter(cloud, local, cfg, nil, nil)
	require.NoError(t, err)
	return r
}

func TestNewRouterRequiresLocal(t *testing.T) {
	t.Parallel()

	_, err := NewRouter(&stubProvider{name: "openai"}, nil, DefaultRouterConfig(), nil, nil)
	require.Error(t, err)
	assert.Equal(t, types.ErrProviderUnavailable, types.GetErrorCode(err))
}

func TestRouteCloudByDefault(t *testing.T) {
	t.Parallel()

	cloud := &stubProvider{name: "openai", content: "cloud says hi"}
	local := &stubProvider{name: "ollama", content: "local says hi"}
	r := newTestRouter(t, cloud, local)

	state := types.NewRunState("build a parser")
	state.AddMessage(types.NewUserMessage("write the lexer"))

	resp, err := r.Route(context.Background(), state, nil)
	require.NoError(t, err)
	assert.Equal(t, "openai", resp.Provider)
	assert.Equal(t, "gpt-4o", cloud.lastReq.Model)
	assert.Equal(t, 1, cloud.calls)
	assert.Equal(t, 0, local.calls)
}

func TestRoutePIIStaysLocal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{"email", "contact alice@example.com about the incident"},
		{"phone", "call +1 (555) 123-4567 before noon"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cloud := &stubProvider{name: "openai", content: "cloud"}
			local := &stubProvider{name: "ollama", content: "local"}
			r := newTestRouter(t, cloud, local)

			state := types.NewRunState("triage")
			resp, err := r.Route(context.Background(), state, []types.Message{
				types.NewUserMessage(tt.content),
			})
			require.NoError(t, err)
			assert.Equal(t, "ollama", resp.Provider)
			assert.Equal(t, "llama3", local.lastReq.Model)
			assert.Equal(t, 0, cloud.calls)
		})
	}
}

func TestRouteNoCloudUsesLocal(t *testing.T) {
	t.Parallel()

	local := &stubProvider{name: "ollama", content: "local"}
	r := newTestRouter(t, nil, local)

	state := types.NewRunState("plan")
	resp, err := r.Route(context.Background(), state, []types.Message{
		types.NewUserMessage("nothing sensitive here"),
	})
	require.NoError(t, err)
	assert.Equal(t, "ollama", resp.Provider)
}

func TestRouteFallsBackToLocal(t *testing.T) {
	t.Parallel()

	cloud := &stubProvider{name: "openai", err: errors.New("rate limited")}
	local := &stubProvider{name: "ollama", content: "local rescue"}
	r := newTestRouter(t, cloud, local)

	state := types.NewRunState("plan")
	resp, err := r.Route(context.Background(), state, []types.Message{
		types.NewUserMessage("plain request"),
	})
	require.NoError(t, err)
	assert.Equal(t, "ollama", resp.Provider)
	assert.Equal(t, "llama3", local.lastReq.Model)
	assert.Equal(t, 1, cloud.calls)
	assert.Equal(t, 1, local.calls)
}

func TestRouteAllProvidersFail(t *testing.T) {
	t.Parallel()

	cloud := &stubProvider{name: "openai", err: errors.New("down")}
	local := &stubProvider{name: "ollama", err: errors.New("also down")}
	r := newTestRouter(t, cloud, local)

	state := types.NewRunState("plan")
	_, err := r.Route(context.Background(), state, []types.Message{
		types.NewUserMessage("plain request"),
	})
	require.Error(t, err)
	assert.Equal(t, types.ErrProviderUnavailable, types.GetErrorCode(err))
}

func TestRouteUsesStateHistoryWhenNil(t *testing.T) {
	t.Parallel()

	local := &stubProvider{name: "ollama", content: "local"}
	r := newTestRouter(t, nil, local)

	state := types.NewRunState("plan")
	state.AddMessage(types.NewSystemMessage("you are a planner"))
	state.AddMessage(types.NewUserMessage("make a plan"))

	_, err := r.Route(context.Background(), state, nil)
	require.NoError(t, err)
	require.Len(t, local.lastReq.Messages, 2)
	assert.Equal(t, "make a plan", local.lastReq.Messages[1].Content)
}

func TestRouteAppliesBudget(t *testing.T) {
	t.Parallel()

	local := &stubProvider{name: "ollama", content: "free"}
	cloud := &stubProvider{name: "openai", content: "billed"}
	budget := NewBudgetTracker(nil)

	cfg := DefaultRouterConfig()
	cfg.RequestsPerSecond = 0
	r, err := NewRouter(cloud, local, cfg, budget, nil)
	require.NoError(t, err)

	state := types.NewRunState("plan")
	_, err = r.Route(context.Background(), state, []types.Message{
		types.NewUserMessage("plain request"),
	})
	require.NoError(t, err)
	assert.InDelta(t, 10*0.000002, state.BudgetUsed, 1e-12)
}

func TestRouteContextCancelled(t *testing.T) {
	t.Parallel()

	local := &stubProvider{name: "ollama", content: "local"}
	cfg := DefaultRouterConfig()
	r, err := NewRouter(nil, local, cfg, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	state := types.NewRunState("plan")
	_, err = r.Route(ctx, state, []types.Message{types.NewUserMessage("hi")})
	require.Error(t, err)
}

func TestContainsPII(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{"clean", "refactor the storage layer", false},
		{"email", "send it to bob@corp.io", true},
		{"phone", "reach me at 555-867-5309 x2", true},
		{"short digits", "retry 3 times", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := containsPII([]types.Message{types.NewUserMessage(tt.content)})
			assert.Equal(t, tt.want, got)
		})
	}
}

type mapCache struct {
	data map[string]string
}

func newMapCache() *mapCache { return &mapCache{data: map[string]string{}} }

func (c *mapCache) GetJSON(_ context.Context, key string, dest any) error {
	raw, ok := c.data[key]
	if !ok {
		return errors.New("miss")
	}
	return json.Unmarshal([]byte(raw), dest)
}

func (c *mapCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = string(raw)
	return nil
}

func TestRouteServesRepeatedRequestFromCache(t *testing.T) {
	t.Parallel()

	cloud := &stubProvider{name: "openai", content: "expensive answer"}
	local := &stubProvider{name: "ollama", content: "local"}
	r := newTestRouter(t, cloud, local)
	r.SetCache(newMapCache())

	state := types.NewRunState("plan")
	msgs := []types.Message{types.NewUserMessage("same question")}

	first, err := r.Route(context.Background(), state, msgs)
	require.NoError(t, err)
	second, err := r.Route(context.Background(), state, msgs)
	require.NoError(t, err)

	assert.Equal(t, first.Content, second.Content)
	assert.Equal(t, 1, cloud.calls)
}

func TestRouteCacheKeyedByContent(t *testing.T) {
	t.Parallel()

	cloud := &stubProvider{name: "openai", content: "answer"}
	local := &stubProvider{name: "ollama", content: "local"}
	r := newTestRouter(t, cloud, local)
	r.SetCache(newMapCache())

	state := types.NewRunState("plan")
	_, err := r.Route(context.Background(), state, []types.Message{types.NewUserMessage("first")})
	require.NoError(t, err)
	_, err = r.Route(context.Background(), state, []types.Message{types.NewUserMessage("second")})
	require.NoError(t, err)

	assert.Equal(t, 2, cloud.calls)
}

func TestRouterHealthCheck(t *testing.T) {
	t.Parallel()

	cloud := &stubProvider{name: "openai"}
	local := &stubProvider{name: "ollama", err: errors.New("down")}
	r := newTestRouter(t, cloud, local)

	statuses := r.HealthCheck(context.Background())
	require.Len(t, statuses, 2)
	assert.True(t, statuses["openai"].Healthy)
	assert.False(t, statuses["ollama"].Healthy)
}
