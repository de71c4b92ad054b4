package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/mo"
	"go.uber.org/zap"

	"github.com/testops/orchestrator/internal/biz/runner"
	"github.com/testops/orchestrator/internal/events"
)

var ErrRunnerNotFound = errors.New("runner not found")

// Service 执行机注册中心
type Service struct {
	runnerRepo runner.Repo
	emitter    events.Emitter
	logger     *zap.Logger
}

func NewService(runnerRepo runner.Repo, emitter events.Emitter, logger *zap.Logger) *Service {
	return &Service{
		runnerRepo: runnerRepo,
		emitter:    emitter,
		logger:     logger,
	}
}

// Register 注册新执行机，配置非法时直接拒绝
func (s *Service) Register(ctx context.Context, r *runner.Runner) error {
	if r.Name == "" {
		return errors.New("runner name is required")
	}
	if !r.Type.Valid() {
		return fmt.Errorf("unknown runner type: %s", r.Type)
	}
	if r.BaseURL == "" {
		return errors.New("runner base url is required")
	}
	if r.MaxConcurrentJobs < 1 {
		return errors.New("max concurrent jobs must be at least 1")
	}

	if r.Status == "" {
		r.Status = runner.RunnerStatusActive
	}
	if !r.Status.Valid() {
		return fmt.Errorf("unknown runner status: %s", r.Status)
	}
	if r.HealthStatus == "" {
		r.HealthStatus = runner.HealthStatusUnknown
	}
	r.CurrentJobs = 0

	if err := s.runnerRepo.Create(ctx, r); err != nil {
		return fmt.Errorf("failed to register runner: %w", err)
	}

	s.logger.Info("runner registered",
		zap.Uint64("runner_id", r.ID),
		zap.String("name", r.Name),
		zap.String("type", string(r.Type)),
		zap.Int("max_concurrent_jobs", r.MaxConcurrentJobs))
	return nil
}

func (s *Service) Get(ctx context.Context, id uint64) (*runner.Runner, error) {
	r, err := s.runnerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrRunnerNotFound
	}
	return r, nil
}

func (s *Service) List(ctx context.Context, filter runner.ListFilter) ([]*runner.Runner, error) {
	return s.runnerRepo.List(ctx, filter)
}

// ListEligible 返回active且健康的执行机，容量过滤留给规则引擎
func (s *Service) ListEligible(ctx context.Context) ([]*runner.Runner, error) {
	return s.runnerRepo.List(ctx, runner.ListFilter{
		Status: mo.Some(runner.RunnerStatusActive),
		Health: mo.Some(runner.HealthStatusHealthy),
	})
}

// SetStatus 人工调整执行机状态 (如进入maintenance)
func (s *Service) SetStatus(ctx context.Context, id uint64, status runner.RunnerStatus) error {
	if !status.Valid() {
		return fmt.Errorf("unknown runner status: %s", status)
	}
	r, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if r.Status == status {
		return nil
	}

	r.SetStatus(status)
	if err := s.runnerRepo.Update(ctx, id, r.ExportPatch()); err != nil {
		return fmt.Errorf("failed to update runner status: %w", err)
	}

	s.emitter.Emit(events.Event{
		Type:     events.TypeRunnerStatusChange,
		RunnerID: id,
		Status:   string(status),
	})
	s.logger.Info("runner status changed",
		zap.Uint64("runner_id", id),
		zap.String("status", string(status)))
	return nil
}

// RecordHeartbeat 执行机主动上报心跳，capacityUsed为其自报的在途任务数
func (s *Service) RecordHeartbeat(ctx context.Context, id uint64, capacityUsed int) error {
	r, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	now := time.Now()
	r.UpdateLastHealthCheck(now)
	changed := r.OnProbeResult(true)
	if err := s.runnerRepo.Update(ctx, id, r.ExportPatch()); err != nil {
		return fmt.Errorf("failed to record heartbeat: %w", err)
	}
	// 自报容量只入历史，CurrentJobs由分配器维护
	if err := s.runnerRepo.AppendHealthHistory(ctx, &runner.HealthHistory{
		RunnerID:   id,
		CheckedAt:  now,
		Healthy:    true,
		ActiveJobs: capacityUsed,
	}); err != nil {
		s.logger.Warn("failed to append heartbeat history",
			zap.Uint64("runner_id", id),
			zap.Error(err))
	}
	if changed {
		s.emitter.Emit(events.Event{
			Type:     events.TypeRunnerHealthChange,
			RunnerID: id,
			Status:   string(r.HealthStatus),
		})
	}
	return nil
}

// Unregister 移除执行机
func (s *Service) Unregister(ctx context.Context, id uint64) error {
	r, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if r.CurrentJobs > 0 {
		return fmt.Errorf("runner %d still has %d active jobs", id, r.CurrentJobs)
	}
	return s.runnerRepo.Delete(ctx, id)
}

func (s *Service) HealthHistory(ctx context.Context, id uint64, limit int) ([]*runner.HealthHistory, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.runnerRepo.ListHealthHistory(ctx, id, limit)
}
