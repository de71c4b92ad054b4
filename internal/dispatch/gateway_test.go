package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/testops/orchestrator/internal/biz/execution"
	"github.com/testops/orchestrator/internal/biz/runner"
	"github.com/testops/orchestrator/pkg/config"
)

func newTestGateway(t *testing.T) *Gateway {
	t.Helper()
	cfg := &config.DispatchConfig{Timeout: 5 * time.Second}
	return NewGateway(cfg, zap.NewNop(), NewAdapters())
}

func testItem() *execution.QueueItem {
	return &execution.QueueItem{
		ID:          7,
		TestSuite:   "smoke",
		Environment: "staging",
		Status:      execution.StatusAssigned,
		Metadata:    map[string]any{"branch": "release-1.4"},
	}
}

// TestGatewayTriggerWebhook 自定义执行机收到执行参数，回执解析run_id
func TestGatewayTriggerWebhook(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		require.Equal(t, http.MethodPost, req.Method)
		require.Equal(t, "application/json", req.Header.Get("Content-Type"))
		require.NotEmpty(t, req.Header.Get("X-Request-ID"))
		require.NoError(t, json.NewDecoder(req.Body).Decode(&received))
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"run_id": "ext-42"}`))
	}))
	defer server.Close()

	g := newTestGateway(t)
	r := &runner.Runner{
		ID:      1,
		Type:    runner.RunnerTypeCustom,
		BaseURL: server.URL,
	}

	result, err := g.Trigger(context.Background(), r, testItem())
	require.NoError(t, err)
	assert.Equal(t, "ext-42", result.ExternalID)
	assert.Equal(t, http.StatusAccepted, result.StatusCode)

	assert.Equal(t, "7", received["execution_id"])
	assert.Equal(t, "smoke", received["test_suite"])
	assert.Equal(t, "staging", received["environment"])
	assert.Equal(t, "release-1.4", received["branch"])
}

// TestGatewayShardParameters 分片执行携带shard index
func TestGatewayShardParameters(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		require.NoError(t, json.NewDecoder(req.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	g := newTestGateway(t)
	r := &runner.Runner{ID: 1, Type: runner.RunnerTypeCustom, BaseURL: server.URL}

	parentID := uint64(3)
	item := testItem()
	item.ParentID = &parentID
	item.ShardIndex = 2
	item.TotalShards = 4

	result, err := g.Trigger(context.Background(), r, item)
	require.NoError(t, err)
	// 无run_id回执时生成本地external id
	assert.NotEmpty(t, result.ExternalID)
	assert.Equal(t, float64(2), received["shard_index"])
	assert.Equal(t, float64(4), received["total_shards"])
}

func TestGatewayUnknownRunnerType(t *testing.T) {
	g := NewGateway(&config.DispatchConfig{Timeout: time.Second}, zap.NewNop(), nil)
	r := &runner.Runner{ID: 1, Type: runner.RunnerTypeCustom, BaseURL: "http://unused"}

	_, err := g.Trigger(context.Background(), r, testItem())
	assert.Error(t, err)
}

func TestGatewayRejectsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	g := newTestGateway(t)
	r := &runner.Runner{ID: 1, Type: runner.RunnerTypeCustom, BaseURL: server.URL}

	_, err := g.Trigger(context.Background(), r, testItem())
	assert.Error(t, err)
}

// TestGatewayBreakerPerRunner 熔断按执行机隔离，互不影响
func TestGatewayBreakerPerRunner(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	g := newTestGateway(t)
	healthy := &runner.Runner{ID: 1, Type: runner.RunnerTypeCustom, BaseURL: good.URL}
	broken := &runner.Runner{ID: 2, Type: runner.RunnerTypeCustom, BaseURL: bad.URL}

	for i := 0; i < 4; i++ {
		_, err := g.Trigger(context.Background(), broken, testItem())
		require.Error(t, err)
	}

	_, err := g.Trigger(context.Background(), healthy, testItem())
	assert.NoError(t, err)

	// 恢复后重置熔断器，派发重新可用
	g.ResetBreaker(broken.ID)
	brokenNowGood := &runner.Runner{ID: 2, Type: runner.RunnerTypeCustom, BaseURL: good.URL}
	_, err = g.Trigger(context.Background(), brokenNowGood, testItem())
	assert.NoError(t, err)
}

func TestDockerAdapterRequiresImage(t *testing.T) {
	a := NewDockerAdapter()
	r := &runner.Runner{ID: 1, Type: runner.RunnerTypeDocker, BaseURL: "http://unused"}
	_, err := a.Trigger(context.Background(), r, testItem())
	assert.Error(t, err)
}
