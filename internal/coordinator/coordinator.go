package coordinator

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/testops/orchestrator/internal/biz/execution"
	"github.com/testops/orchestrator/internal/events"
	"github.com/testops/orchestrator/pkg/config"
)

var ErrExecutionNotFound = errors.New("execution not found")

// Service 分片协调器: 将一个执行请求扇出为N个分片并聚合它们的结果
type Service struct {
	executionRepo execution.Repo
	emitter       events.Emitter
	defaults      execution.Defaults
	logger        *zap.Logger
}

func NewService(cfg *config.SchedulerConfig, executionRepo execution.Repo, emitter events.Emitter, logger *zap.Logger) *Service {
	return &Service{
		executionRepo: executionRepo,
		emitter:       emitter,
		defaults: execution.Defaults{
			Priority:          cfg.DefaultPriority,
			MaxRetries:        cfg.MaxRetries,
			EstimatedDuration: cfg.DefaultTimeout,
		},
		logger: logger,
	}
}

// FanOut 创建一个父执行及其totalShards个分片。
// 父记录只作聚合，不参与调度；分片按普通队列项排队。
func (s *Service) FanOut(ctx context.Context, req *execution.Request, totalShards int) (*execution.QueueItem, error) {
	if totalShards < 2 {
		return nil, errors.New("fan-out requires at least 2 shards")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	parent := execution.BuildQueueItem(req, s.defaults)
	parent.TotalShards = totalShards

	err := s.executionRepo.Execute(ctx, func(ctx context.Context) error {
		if err := s.executionRepo.Create(ctx, parent); err != nil {
			return fmt.Errorf("failed to create parent execution: %w", err)
		}
		for i := 0; i < totalShards; i++ {
			shard := execution.BuildQueueItem(req, s.defaults)
			parentID := parent.ID
			shard.ParentID = &parentID
			shard.ShardIndex = i
			shard.TotalShards = totalShards
			if err := s.executionRepo.Create(ctx, shard); err != nil {
				return fmt.Errorf("failed to create shard %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitter.Emit(events.Event{
		Type:        events.TypeExecutionQueued,
		ExecutionID: parent.ID,
		Detail:      map[string]any{"total_shards": totalShards},
	})
	s.logger.Info("execution fanned out",
		zap.Uint64("parent_id", parent.ID),
		zap.String("test_suite", parent.TestSuite),
		zap.Int("total_shards", totalShards))
	return parent, nil
}

// Shards 返回父执行的所有分片，按shard index排序
func (s *Service) Shards(ctx context.Context, parentID uint64) ([]*execution.QueueItem, error) {
	return s.executionRepo.ListByParent(ctx, parentID)
}

// AggregateStatus 聚合父执行的状态:
// 所有分片completed→completed; 任一分片终态失败→failed; 否则running
func (s *Service) AggregateStatus(ctx context.Context, parentID uint64) (execution.Status, error) {
	shards, err := s.executionRepo.ListByParent(ctx, parentID)
	if err != nil {
		return "", err
	}
	if len(shards) == 0 {
		return "", fmt.Errorf("parent %d has no shards", parentID)
	}
	return aggregate(shards), nil
}

func aggregate(shards []*execution.QueueItem) execution.Status {
	completed := 0
	for _, shard := range shards {
		switch shard.Status {
		case execution.StatusCompleted:
			completed++
		case execution.StatusFailed, execution.StatusCancelled, execution.StatusTimeout:
			return execution.StatusFailed
		}
	}
	if completed == len(shards) {
		return execution.StatusCompleted
	}
	return execution.StatusRunning
}

// RecomputeParent 分片到达终态后重算父执行状态，必要时落盘
func (s *Service) RecomputeParent(ctx context.Context, parentID uint64) error {
	parent, err := s.executionRepo.GetByID(ctx, parentID)
	if err != nil {
		return err
	}
	if parent == nil {
		return ErrExecutionNotFound
	}
	if parent.Status.Terminal() {
		return nil
	}

	shards, err := s.executionRepo.ListByParent(ctx, parentID)
	if err != nil {
		return err
	}
	if len(shards) == 0 {
		return nil
	}

	prev := parent.Status
	switch aggregate(shards) {
	case execution.StatusCompleted:
		parent.MarkCompleted(mergeResults(shards))
		hit, err := s.executionRepo.SaveFrom(ctx, parent, prev)
		if err != nil {
			return fmt.Errorf("failed to save parent execution: %w", err)
		}
		if !hit {
			// 父记录已被并发改动(如取消)，保持现状
			return nil
		}
		s.emitter.Emit(events.Event{
			Type:        events.TypeExecutionCompleted,
			ExecutionID: parentID,
			Status:      string(execution.StatusCompleted),
		})
		s.logger.Info("all shards completed",
			zap.Uint64("parent_id", parentID),
			zap.Int("total_shards", len(shards)))
	case execution.StatusFailed:
		parent.MarkFailed("one or more shards failed")
		hit, err := s.executionRepo.SaveFrom(ctx, parent, prev)
		if err != nil {
			return fmt.Errorf("failed to save parent execution: %w", err)
		}
		if !hit {
			return nil
		}
		s.emitter.Emit(events.Event{
			Type:        events.TypeExecutionFailed,
			ExecutionID: parentID,
			Status:      string(execution.StatusFailed),
		})
	}
	return nil
}

// mergeResults 按shard index合并各分片结果
func mergeResults(shards []*execution.QueueItem) map[string]any {
	merged := make(map[string]any, len(shards))
	for _, shard := range shards {
		if shard.Result != nil {
			merged[fmt.Sprintf("shard_%d", shard.ShardIndex)] = shard.Result
		}
	}
	return merged
}
