package scheduler

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/testops/orchestrator/internal/biz/execution"
	"github.com/testops/orchestrator/internal/events"
)

// Enqueue 提交执行请求入队
func (s *Service) Enqueue(ctx context.Context, req *execution.Request) (*execution.QueueItem, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	item := execution.BuildQueueItem(req, s.defaults())
	if err := s.executionRepo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to enqueue execution: %w", err)
	}

	s.metrics.IncExecution(string(execution.StatusQueued))
	s.emitter.Emit(events.Event{
		Type:        events.TypeExecutionQueued,
		ExecutionID: item.ID,
	})
	s.logger.Info("execution enqueued",
		zap.Uint64("execution_id", item.ID),
		zap.String("test_suite", item.TestSuite),
		zap.String("environment", item.Environment),
		zap.Int("priority", item.Priority))
	return item, nil
}

// FanOut 将请求扇出为totalShards个分片
func (s *Service) FanOut(ctx context.Context, req *execution.Request, totalShards int) (*execution.QueueItem, error) {
	parent, err := s.coordinator.FanOut(ctx, req, totalShards)
	if err != nil {
		return nil, err
	}
	s.metrics.IncExecution(string(execution.StatusQueued))
	return parent, nil
}

// Get 查询单个执行
func (s *Service) Get(ctx context.Context, id uint64) (*execution.QueueItem, error) {
	item, err := s.executionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrExecutionNotFound
	}
	return item, nil
}

// Cancel 取消执行，仅queued状态允许
func (s *Service) Cancel(ctx context.Context, id uint64) error {
	item, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if item.Status != execution.StatusQueued {
		return ErrNotCancellable
	}

	item.MarkCancelled()
	hit, err := s.executionRepo.SaveFrom(ctx, item, execution.StatusQueued)
	if err != nil {
		return fmt.Errorf("failed to cancel execution: %w", err)
	}
	if !hit {
		// 读取和写入之间被调度循环领走了
		return ErrNotCancellable
	}

	s.metrics.IncExecution(string(execution.StatusCancelled))
	s.emitter.Emit(events.Event{
		Type:        events.TypeExecutionFailed,
		ExecutionID: id,
		Status:      string(execution.StatusCancelled),
	})
	s.logger.Info("execution cancelled",
		zap.Uint64("execution_id", id))

	if item.IsShard() {
		s.recomputeParent(ctx, item)
	}
	return nil
}

// ReportCompletion 外部系统回报执行结束。
// 已终态的执行重复回报是幂等no-op。
func (s *Service) ReportCompletion(ctx context.Context, id uint64, succeeded bool, result map[string]any, logs string) error {
	item, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if item.Status.Terminal() {
		s.logger.Debug("duplicate completion report ignored",
			zap.Uint64("execution_id", id),
			zap.String("status", string(item.Status)))
		return nil
	}
	if item.Status == execution.StatusQueued {
		return fmt.Errorf("execution %d has not been dispatched", id)
	}

	prev := item.Status
	runnerID := item.AssignedRunnerID

	if succeeded {
		item.MarkCompleted(result)
	} else {
		reason := logs
		if reason == "" {
			reason = "reported as failed"
		}
		item.MarkFailed(reason)
		item.Result = result
	}
	if logs != "" {
		item.Logs = logs
	}

	hit, err := s.executionRepo.SaveFrom(ctx, item, prev)
	if err != nil {
		return fmt.Errorf("failed to save completed execution: %w", err)
	}
	if !hit {
		// 超时清扫抢先改了状态，重读后按幂等规则处理
		current, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		if current.Status.Terminal() {
			s.logger.Debug("completion report lost race to a terminal transition",
				zap.Uint64("execution_id", id),
				zap.String("status", string(current.Status)))
			return nil
		}
		return fmt.Errorf("execution %d changed state during completion report", id)
	}
	if err := s.allocator.Release(ctx, id); err != nil {
		return fmt.Errorf("failed to release allocation: %w", err)
	}

	s.metrics.IncExecution(string(item.Status))
	if item.StartedAt != nil {
		s.recorder.RecordExecutionTime(ctx, id, runnerID, item.CompletedAt.Sub(*item.StartedAt))
	}

	eventType := events.TypeExecutionCompleted
	if !succeeded {
		eventType = events.TypeExecutionFailed
	}
	ev := events.Event{
		Type:        eventType,
		ExecutionID: id,
		Status:      string(item.Status),
	}
	if runnerID != nil {
		ev.RunnerID = *runnerID
	}
	s.emitter.Emit(ev)

	s.logger.Info("execution completed",
		zap.Uint64("execution_id", id),
		zap.String("status", string(item.Status)))

	s.notifyWebhook(item)
	if item.IsShard() {
		s.recomputeParent(ctx, item)
	}
	return nil
}

// QueueStatus 各状态的队列项数量
func (s *Service) QueueStatus(ctx context.Context) (map[execution.Status]int64, error) {
	return s.executionRepo.CountByStatus(ctx)
}

// List 按过滤条件分页查询执行
func (s *Service) List(ctx context.Context, filter execution.ListFilter, offset, limit int) ([]*execution.QueueItem, int64, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.executionRepo.List(ctx, filter, offset, limit)
}

func (s *Service) defaults() execution.Defaults {
	return execution.Defaults{
		Priority:          s.config.DefaultPriority,
		MaxRetries:        s.config.MaxRetries,
		EstimatedDuration: s.config.DefaultTimeout,
	}
}
