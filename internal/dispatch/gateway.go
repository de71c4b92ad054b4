package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/testops/orchestrator/internal/biz/execution"
	"github.com/testops/orchestrator/internal/biz/runner"
	"github.com/testops/orchestrator/pkg/config"
)

// Result 外部系统接受派发后的回执
type Result struct {
	ExternalID string
	StatusCode int
	Response   string
}

// Adapter 按执行机类型适配外部CI系统的触发协议
type Adapter interface {
	// Type 适配的执行机类型
	Type() runner.RunnerType
	// Trigger 向执行机派发一次执行
	Trigger(ctx context.Context, r *runner.Runner, item *execution.QueueItem) (*Result, error)
}

// Gateway 派发网关: 按类型路由到适配器，每个执行机一个熔断器
type Gateway struct {
	adapters map[runner.RunnerType]Adapter
	timeout  time.Duration
	logger   *zap.Logger

	breakerMu sync.RWMutex
	breakers  map[uint64]*CircuitBreaker
}

func NewGateway(cfg *config.DispatchConfig, logger *zap.Logger, adapters []Adapter) *Gateway {
	g := &Gateway{
		adapters: make(map[runner.RunnerType]Adapter),
		timeout:  cfg.Timeout,
		logger:   logger,
		breakers: make(map[uint64]*CircuitBreaker),
	}
	for _, a := range adapters {
		g.adapters[a.Type()] = a
	}
	return g
}

// Trigger 向执行机派发队列项，未知类型按派发失败处理
func (g *Gateway) Trigger(ctx context.Context, r *runner.Runner, item *execution.QueueItem) (*Result, error) {
	adapter, ok := g.adapters[r.Type]
	if !ok {
		return nil, fmt.Errorf("no dispatch adapter for runner type %s", r.Type)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	breaker := g.getOrCreateBreaker(r.ID)
	var result *Result
	err := breaker.Call(func() error {
		var callErr error
		result, callErr = adapter.Trigger(ctx, r, item)
		return callErr
	})
	if err != nil {
		g.logger.Warn("dispatch failed",
			zap.Uint64("runner_id", r.ID),
			zap.Uint64("execution_id", item.ID),
			zap.String("adapter", string(r.Type)),
			zap.Error(err))
		return nil, err
	}

	g.logger.Info("execution dispatched",
		zap.Uint64("runner_id", r.ID),
		zap.Uint64("execution_id", item.ID),
		zap.String("external_id", result.ExternalID))
	return result, nil
}

// ResetBreaker 执行机恢复健康时调用
func (g *Gateway) ResetBreaker(runnerID uint64) {
	g.breakerMu.RLock()
	breaker, exists := g.breakers[runnerID]
	g.breakerMu.RUnlock()
	if exists {
		breaker.Reset()
	}
}

func (g *Gateway) getOrCreateBreaker(runnerID uint64) *CircuitBreaker {
	g.breakerMu.RLock()
	breaker, exists := g.breakers[runnerID]
	g.breakerMu.RUnlock()

	if !exists {
		g.breakerMu.Lock()
		breaker, exists = g.breakers[runnerID]
		if !exists {
			breaker = NewCircuitBreaker()
			g.breakers[runnerID] = breaker
		}
		g.breakerMu.Unlock()
	}
	return breaker
}

// postJSON 适配器共享的HTTP提交逻辑
func postJSON(ctx context.Context, client *http.Client, url string, payload map[string]any) (*Result, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call runner: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusAccepted {
		return nil, fmt.Errorf("runner returned status %d", resp.StatusCode)
	}

	result := &Result{
		StatusCode: resp.StatusCode,
		Response:   string(body),
	}
	var parsed struct {
		ID    any `json:"id"`
		RunID any `json:"run_id"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		switch {
		case parsed.RunID != nil:
			result.ExternalID = fmt.Sprintf("%v", parsed.RunID)
		case parsed.ID != nil:
			result.ExternalID = fmt.Sprintf("%v", parsed.ID)
		}
	}
	if result.ExternalID == "" {
		result.ExternalID = uuid.NewString()
	}
	return result, nil
}
