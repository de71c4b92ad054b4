package allocator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/testops/orchestrator/internal/biz/allocation"
	"github.com/testops/orchestrator/internal/biz/runner"
	"github.com/testops/orchestrator/pkg/config"
)

// Load runner当前占用汇总
type Load struct {
	Jobs     int
	CPU      float64
	MemoryMB int
}

// Allocator 资源分配器。
// 全局互斥串行化分配决策，保证容量检查与占用写入之间没有竞争窗口。
type Allocator struct {
	mu sync.Mutex

	runnerRepo runner.Repo
	allocRepo  allocation.Repo

	defaultCPU      float64
	defaultMemoryMB int

	logger *zap.Logger
}

func New(cfg *config.AllocatorConfig, runnerRepo runner.Repo, allocRepo allocation.Repo, logger *zap.Logger) *Allocator {
	return &Allocator{
		runnerRepo:      runnerRepo,
		allocRepo:       allocRepo,
		defaultCPU:      cfg.DefaultCPU,
		defaultMemoryMB: cfg.DefaultMemoryMB,
		logger:          logger,
	}
}

// TryAllocate 为execution在runner上占用一个任务槽。
// 容量已满或execution已持有分配时返回false，不产生任何写入。
func (a *Allocator) TryAllocate(ctx context.Context, runnerID, executionID uint64, cpu float64, memoryMB int) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	open, err := a.allocRepo.GetOpenByExecution(ctx, executionID)
	if err != nil {
		return false, fmt.Errorf("failed to check open allocation: %w", err)
	}
	if open != nil {
		// 同一execution绝不允许持有两条开放分配
		a.logger.Error("refusing double allocation",
			zap.Uint64("execution_id", executionID),
			zap.Uint64("held_runner_id", open.RunnerID),
			zap.Uint64("requested_runner_id", runnerID))
		return false, nil
	}

	r, err := a.runnerRepo.GetByID(ctx, runnerID)
	if err != nil {
		return false, fmt.Errorf("failed to load runner: %w", err)
	}
	if r == nil {
		return false, fmt.Errorf("runner %d not found", runnerID)
	}
	if r.Status != runner.RunnerStatusActive || r.CurrentJobs >= r.MaxConcurrentJobs {
		return false, nil
	}

	if cpu <= 0 {
		cpu = a.defaultCPU
	}
	if memoryMB <= 0 {
		memoryMB = a.defaultMemoryMB
	}

	alloc := &allocation.ResourceAllocation{
		RunnerID:    runnerID,
		ExecutionID: executionID,
		AllocatedAt: time.Now(),
		CPU:         cpu,
		MemoryMB:    memoryMB,
		Status:      allocation.StatusAllocated,
	}
	if err := a.allocRepo.Create(ctx, alloc); err != nil {
		return false, fmt.Errorf("failed to create allocation: %w", err)
	}
	if err := a.runnerRepo.AdjustJobCount(ctx, runnerID, 1); err != nil {
		alloc.Close(allocation.StatusReleased)
		_ = a.allocRepo.Save(ctx, alloc)
		return false, fmt.Errorf("failed to adjust job count: %w", err)
	}

	a.logger.Debug("allocated runner slot",
		zap.Uint64("runner_id", runnerID),
		zap.Uint64("execution_id", executionID))
	return true, nil
}

// Release 释放execution持有的分配，重复调用为幂等no-op
func (a *Allocator) Release(ctx context.Context, executionID uint64) error {
	return a.release(ctx, executionID, allocation.StatusReleased)
}

// ReleaseExceeded 超时回收路径，分配记录标记为exceeded
func (a *Allocator) ReleaseExceeded(ctx context.Context, executionID uint64) error {
	return a.release(ctx, executionID, allocation.StatusExceeded)
}

func (a *Allocator) release(ctx context.Context, executionID uint64, status allocation.AllocationStatus) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	open, err := a.allocRepo.GetOpenByExecution(ctx, executionID)
	if err != nil {
		return fmt.Errorf("failed to check open allocation: %w", err)
	}
	if open == nil {
		return nil
	}

	open.Close(status)
	if err := a.allocRepo.Save(ctx, open); err != nil {
		return fmt.Errorf("failed to close allocation: %w", err)
	}
	if err := a.runnerRepo.AdjustJobCount(ctx, open.RunnerID, -1); err != nil {
		return fmt.Errorf("failed to adjust job count: %w", err)
	}

	a.logger.Debug("released runner slot",
		zap.Uint64("runner_id", open.RunnerID),
		zap.Uint64("execution_id", executionID),
		zap.String("status", string(status)))
	return nil
}

// CurrentLoad 汇总runner上未关闭分配的资源占用
func (a *Allocator) CurrentLoad(ctx context.Context, runnerID uint64) (*Load, error) {
	allocs, err := a.allocRepo.ListOpenByRunner(ctx, runnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list open allocations: %w", err)
	}

	load := &Load{}
	for _, al := range allocs {
		load.Jobs++
		load.CPU += al.CPU
		load.MemoryMB += al.MemoryMB
	}
	return load, nil
}
