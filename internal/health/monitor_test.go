package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/testops/orchestrator/internal/biz/runner"
	"github.com/testops/orchestrator/internal/events"
	"github.com/testops/orchestrator/internal/infra/persistence/memoryrepo"
	"github.com/testops/orchestrator/pkg/config"
)

func newTestMonitor(t *testing.T) (*Monitor, *memoryrepo.RunnerRepo, *events.Bus) {
	t.Helper()
	repo := memoryrepo.NewRunnerRepo()
	bus := events.NewBus(nil, "test", zap.NewNop())
	cfg := config.HealthCheckConfig{
		Enabled:  true,
		Interval: time.Minute,
		Timeout:  2 * time.Second,
	}
	return NewMonitor(cfg, repo, bus, zap.NewNop()), repo, bus
}

func seedRunner(t *testing.T, repo *memoryrepo.RunnerRepo, healthCheckURL string) *runner.Runner {
	t.Helper()
	r := &runner.Runner{
		Name:              "worker",
		Type:              runner.RunnerTypeDocker,
		BaseURL:           "http://worker:9000",
		HealthCheckURL:    healthCheckURL,
		Status:            runner.RunnerStatusActive,
		HealthStatus:      runner.HealthStatusUnknown,
		MaxConcurrentJobs: 3,
	}
	require.NoError(t, repo.Create(context.Background(), r))
	return r
}

// TestCheckRunnerHealthy 2xx探测翻转为healthy并记录资源快照
func TestCheckRunnerHealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"cpu_percent": 41.5, "memory_percent": 63.0, "disk_percent": 12.0}`))
	}))
	defer server.Close()

	m, repo, bus := newTestMonitor(t)
	var got []events.Event
	bus.Subscribe(func(ev events.Event) { got = append(got, ev) })

	r := seedRunner(t, repo, server.URL)
	m.CheckRunner(r)

	loaded, err := repo.GetByID(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, runner.HealthStatusHealthy, loaded.HealthStatus)
	assert.NotNil(t, loaded.LastHealthCheck)

	history, err := repo.ListHealthHistory(context.Background(), r.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Healthy)
	assert.Equal(t, 41.5, history[0].CPUPercent)

	require.Len(t, got, 1)
	assert.Equal(t, events.TypeRunnerHealthChange, got[0].Type)
	assert.Equal(t, string(runner.HealthStatusHealthy), got[0].Status)
}

// TestCheckRunnerUnhealthy 单次失败探测即翻转为unhealthy
func TestCheckRunnerUnhealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	m, repo, _ := newTestMonitor(t)
	r := seedRunner(t, repo, server.URL)
	r.HealthStatus = runner.HealthStatusHealthy

	m.CheckRunner(r)

	loaded, err := repo.GetByID(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, runner.HealthStatusUnhealthy, loaded.HealthStatus)

	history, err := repo.ListHealthHistory(context.Background(), r.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.False(t, history[0].Healthy)
	assert.Contains(t, history[0].Error, "503")
}

// TestCheckRunnerRecovery unhealthy执行机在成功探测后恢复healthy
func TestCheckRunnerRecovery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	m, repo, _ := newTestMonitor(t)
	r := seedRunner(t, repo, server.URL)
	r.HealthStatus = runner.HealthStatusUnhealthy

	m.CheckRunner(r)

	loaded, err := repo.GetByID(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, runner.HealthStatusHealthy, loaded.HealthStatus)
}

// TestCheckRunnerNonJSONBody 非JSON响应体也算健康，只是没有资源快照
func TestCheckRunnerNonJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("OK"))
	}))
	defer server.Close()

	m, repo, _ := newTestMonitor(t)
	r := seedRunner(t, repo, server.URL)
	m.CheckRunner(r)

	history, err := repo.ListHealthHistory(context.Background(), r.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Healthy)
	assert.Zero(t, history[0].CPUPercent)
}

// TestCheckAllIsolation 单机探测失败不影响其他执行机的结果
func TestCheckAllIsolation(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	m, repo, _ := newTestMonitor(t)
	healthy := seedRunner(t, repo, good.URL)
	broken := seedRunner(t, repo, bad.URL)
	parked := seedRunner(t, repo, bad.URL)
	require.NoError(t, repo.Update(context.Background(), parked.ID,
		(&runner.Runner{}).SetStatus(runner.RunnerStatusMaintenance).ExportPatch()))

	m.CheckAll()

	loaded, err := repo.GetByID(context.Background(), healthy.ID)
	require.NoError(t, err)
	assert.Equal(t, runner.HealthStatusHealthy, loaded.HealthStatus)

	loaded, err = repo.GetByID(context.Background(), broken.ID)
	require.NoError(t, err)
	assert.Equal(t, runner.HealthStatusUnhealthy, loaded.HealthStatus)

	// maintenance状态的执行机不参与探测
	loaded, err = repo.GetByID(context.Background(), parked.ID)
	require.NoError(t, err)
	assert.Equal(t, runner.HealthStatusUnknown, loaded.HealthStatus)
}
