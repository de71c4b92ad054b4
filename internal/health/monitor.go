package health

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/testops/orchestrator/internal/biz/runner"
	"github.com/testops/orchestrator/internal/events"
	"github.com/testops/orchestrator/pkg/config"
)

// probeBody 执行机健康端点返回的可选资源快照
type probeBody struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	DiskPercent   float64 `json:"disk_percent"`
}

// Monitor 周期探测所有active执行机的健康端点
type Monitor struct {
	logger     *zap.Logger
	config     config.HealthCheckConfig
	httpClient *http.Client
	runnerRepo runner.Repo
	emitter    events.Emitter
	stopCh     chan struct{}
	wg         sync.WaitGroup
}

func NewMonitor(cfg config.HealthCheckConfig, runnerRepo runner.Repo, emitter events.Emitter, logger *zap.Logger) *Monitor {
	return &Monitor{
		logger: logger,
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		runnerRepo: runnerRepo,
		emitter:    emitter,
		stopCh:     make(chan struct{}),
	}
}

func (m *Monitor) Start() {
	if !m.config.Enabled {
		m.logger.Info("health monitor is disabled")
		return
	}
	m.wg.Add(1)
	go m.run()
	m.logger.Info("health monitor started",
		zap.Duration("interval", m.config.Interval))
}

func (m *Monitor) Stop() {
	close(m.stopCh)
	m.wg.Wait()
	m.logger.Info("health monitor stopped")
}

func (m *Monitor) run() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	m.CheckAll()

	for {
		select {
		case <-ticker.C:
			m.CheckAll()
		case <-m.stopCh:
			return
		}
	}
}

// CheckAll 并发探测所有active执行机，单机探测失败不影响其他执行机
func (m *Monitor) CheckAll() {
	runners, err := m.runnerRepo.List(context.Background(), runner.ListFilter{})
	if err != nil {
		m.logger.Error("failed to get runners for health check", zap.Error(err))
		return
	}

	var wg sync.WaitGroup
	for _, r := range runners {
		if r.Status != runner.RunnerStatusActive {
			continue
		}
		wg.Add(1)
		go func(r *runner.Runner) {
			defer wg.Done()
			m.CheckRunner(r)
		}(r)
	}
	wg.Wait()
}

// CheckRunner 对单个执行机做一次探测并落盘结果
func (m *Monitor) CheckRunner(r *runner.Runner) {
	ctx, cancel := context.WithTimeout(context.Background(), m.config.Timeout)
	defer cancel()

	started := time.Now()
	body, probeErr := m.probe(ctx, r)
	latency := time.Since(started)
	healthy := probeErr == nil

	now := time.Now()
	r.UpdateLastHealthCheck(now)
	changed := r.OnProbeResult(healthy)

	if changed {
		if healthy {
			m.logger.Info("runner recovered to healthy",
				zap.Uint64("runner_id", r.ID),
				zap.String("name", r.Name))
		} else {
			m.logger.Warn("runner marked as unhealthy",
				zap.Uint64("runner_id", r.ID),
				zap.String("name", r.Name),
				zap.Error(probeErr))
		}
	}

	history := &runner.HealthHistory{
		RunnerID:  r.ID,
		CheckedAt: now,
		Healthy:   healthy,
		LatencyMS: latency.Milliseconds(),
	}
	if probeErr != nil {
		history.Error = probeErr.Error()
	}
	if body != nil {
		history.CPUPercent = body.CPUPercent
		history.MemoryPercent = body.MemoryPercent
		history.DiskPercent = body.DiskPercent
	}

	if err := m.runnerRepo.Update(ctx, r.ID, r.ExportPatch()); err != nil {
		m.logger.Error("failed to update runner health status",
			zap.Uint64("runner_id", r.ID),
			zap.Error(err))
	}
	if err := m.runnerRepo.AppendHealthHistory(ctx, history); err != nil {
		m.logger.Error("failed to append health history",
			zap.Uint64("runner_id", r.ID),
			zap.Error(err))
	}

	if changed {
		m.emitter.Emit(events.Event{
			Type:     events.TypeRunnerHealthChange,
			RunnerID: r.ID,
			Status:   string(r.HealthStatus),
		})
	}
}

func (m *Monitor) probe(ctx context.Context, r *runner.Runner) (*probeBody, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.GetHealthCheckURL(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil || len(raw) == 0 {
		return nil, nil
	}
	var body probeBody
	if err := json.Unmarshal(raw, &body); err != nil {
		// 非JSON响应体也算健康，只是没有资源快照
		return nil, nil
	}
	return &body, nil
}

// StatusError 健康端点返回非2xx
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("health endpoint returned status %d", e.Code)
}
