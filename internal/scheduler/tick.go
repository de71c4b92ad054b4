package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/testops/orchestrator/internal/biz/execution"
	"github.com/testops/orchestrator/internal/biz/runner"
	"github.com/testops/orchestrator/internal/events"
)

// Tick 执行一轮调度: 先回收超时项，再按公平顺序处理队列
func (s *Service) Tick(ctx context.Context) {
	s.sweepTimeouts(ctx)
	s.processQueue(ctx)
	s.updateQueueGauges(ctx)
}

// processQueue 取一批queued项，逐项选机、占用、派发。
// 无可用执行机时整轮跳过，队列项原地保留。
func (s *Service) processQueue(ctx context.Context) {
	batch, err := s.executionRepo.FetchQueuedBatch(ctx, s.config.BatchSize)
	if err != nil {
		s.logger.Error("failed to fetch queued batch", zap.Error(err))
		return
	}
	if len(batch) == 0 {
		return
	}

	candidates, err := s.registry.ListEligible(ctx)
	if err != nil {
		s.logger.Error("failed to list eligible runners", zap.Error(err))
		return
	}
	if len(candidates) == 0 {
		s.logger.Debug("no eligible runners, skipping tick",
			zap.Int("queued", len(batch)))
		return
	}

	for _, item := range batch {
		s.dispatchItem(ctx, item, candidates)
	}
}

// dispatchItem 为单个队列项走完选机→占用→派发。
// candidates中的CurrentJobs随本轮分配就地更新，使后续项看到最新占用。
func (s *Service) dispatchItem(ctx context.Context, item *execution.QueueItem, candidates []*runner.Runner) {
	selected, err := s.engine.SelectRunner(ctx, item, candidates)
	if err != nil {
		s.logger.Error("runner selection failed",
			zap.Uint64("execution_id", item.ID),
			zap.Error(err))
		return
	}
	if selected == nil {
		// 本tick无合适执行机，保持queued
		return
	}

	ok, err := s.allocator.TryAllocate(ctx, selected.ID, item.ID, 0, 0)
	if err != nil {
		s.logger.Error("allocation failed",
			zap.Uint64("execution_id", item.ID),
			zap.Uint64("runner_id", selected.ID),
			zap.Error(err))
		return
	}
	if !ok {
		return
	}
	selected.CurrentJobs++

	deadline := time.Now().Add(item.EstimatedDuration)
	item.MarkAssigned(selected.ID, deadline)
	hit, err := s.executionRepo.SaveFrom(ctx, item, execution.StatusQueued)
	if err != nil {
		s.releaseSkipped(ctx, item, selected)
		s.logger.Error("failed to save assigned execution",
			zap.Uint64("execution_id", item.ID),
			zap.Error(err))
		return
	}
	if !hit {
		// 批次快照过期，该行已被并发取消或改动，放弃派发
		s.releaseSkipped(ctx, item, selected)
		s.logger.Info("skipping stale queue item, state changed since fetch",
			zap.Uint64("execution_id", item.ID))
		return
	}
	s.metrics.IncExecution(string(execution.StatusAssigned))
	s.emitter.Emit(events.Event{
		Type:        events.TypeExecutionAssigned,
		ExecutionID: item.ID,
		RunnerID:    selected.ID,
	})

	result, err := s.gateway.Trigger(ctx, selected, item)
	if err != nil {
		s.onDispatchFailure(ctx, item, selected, err)
		return
	}

	item.MarkRunning()
	if item.Metadata == nil {
		item.Metadata = map[string]any{}
	}
	item.Metadata["external_id"] = result.ExternalID
	hit, err = s.executionRepo.SaveFrom(ctx, item, execution.StatusAssigned)
	if err != nil {
		s.logger.Error("failed to save running execution",
			zap.Uint64("execution_id", item.ID),
			zap.Error(err))
		return
	}
	if !hit {
		s.logger.Warn("assigned execution changed state before start was recorded",
			zap.Uint64("execution_id", item.ID))
		return
	}

	s.metrics.IncDispatch("success")
	s.metrics.IncExecution(string(execution.StatusRunning))
	runnerID := selected.ID
	s.recorder.RecordQueueTime(ctx, item.ID, &runnerID, item.StartedAt.Sub(item.CreatedAt))
	s.emitter.Emit(events.Event{
		Type:        events.TypeExecutionStarted,
		ExecutionID: item.ID,
		RunnerID:    selected.ID,
	})
}

// releaseSkipped 把未能走完派发的项占用的资源退还
func (s *Service) releaseSkipped(ctx context.Context, item *execution.QueueItem, r *runner.Runner) {
	if err := s.allocator.Release(ctx, item.ID); err != nil {
		s.logger.Error("failed to release allocation for skipped item",
			zap.Uint64("execution_id", item.ID),
			zap.Error(err))
	}
	r.CurrentJobs--
}

// onDispatchFailure 派发失败: 释放占用，有重试额度则回队，否则终态失败
func (s *Service) onDispatchFailure(ctx context.Context, item *execution.QueueItem, r *runner.Runner, dispatchErr error) {
	s.metrics.IncDispatch("failure")

	if err := s.allocator.Release(ctx, item.ID); err != nil {
		s.logger.Error("failed to release allocation after dispatch failure",
			zap.Uint64("execution_id", item.ID),
			zap.Error(err))
	}
	r.CurrentJobs--

	if item.CanRetry() {
		item.Requeue()
		s.logger.Warn("dispatch failed, requeued",
			zap.Uint64("execution_id", item.ID),
			zap.Uint64("runner_id", r.ID),
			zap.Int("retry_count", item.RetryCount),
			zap.Error(dispatchErr))
	} else {
		item.MarkFailed(dispatchErr.Error())
		s.metrics.IncExecution(string(execution.StatusFailed))
		s.emitter.Emit(events.Event{
			Type:        events.TypeExecutionFailed,
			ExecutionID: item.ID,
			RunnerID:    r.ID,
			Status:      string(execution.StatusFailed),
		})
		s.logger.Error("dispatch failed, retries exhausted",
			zap.Uint64("execution_id", item.ID),
			zap.Uint64("runner_id", r.ID),
			zap.Error(dispatchErr))
	}

	hit, err := s.executionRepo.SaveFrom(ctx, item, execution.StatusAssigned)
	if err != nil {
		s.logger.Error("failed to save execution after dispatch failure",
			zap.Uint64("execution_id", item.ID),
			zap.Error(err))
		return
	}
	if !hit {
		s.logger.Warn("execution changed state during dispatch failure handling",
			zap.Uint64("execution_id", item.ID))
		return
	}

	if item.Status.Terminal() {
		s.notifyWebhook(item)
		if item.IsShard() {
			s.recomputeParent(ctx, item)
		}
	}
}

// sweepTimeouts 回收超过截止时间的assigned/running项。
// 有重试额度的立即回队（不做退避），否则进入timeout终态。
func (s *Service) sweepTimeouts(ctx context.Context) {
	expired, err := s.executionRepo.FindExpired(ctx, time.Now().Unix())
	if err != nil {
		s.logger.Error("failed to find expired executions", zap.Error(err))
		return
	}

	for _, item := range expired {
		prev := item.Status
		if item.CanRetry() {
			item.Requeue()
		} else {
			item.MarkTimeout()
		}

		// 守卫在先: 回报完成可能已抢先落库，此时整项跳过
		hit, err := s.executionRepo.SaveFrom(ctx, item, prev)
		if err != nil {
			s.logger.Error("failed to save timed out execution",
				zap.Uint64("execution_id", item.ID),
				zap.Error(err))
			continue
		}
		if !hit {
			s.logger.Debug("expired execution already transitioned, skipping sweep",
				zap.Uint64("execution_id", item.ID))
			continue
		}

		if err := s.allocator.ReleaseExceeded(ctx, item.ID); err != nil {
			s.logger.Error("failed to release exceeded allocation",
				zap.Uint64("execution_id", item.ID),
				zap.Error(err))
		}

		if item.Status == execution.StatusQueued {
			s.logger.Warn("execution timed out, requeued",
				zap.Uint64("execution_id", item.ID),
				zap.Int("retry_count", item.RetryCount))
			continue
		}

		s.metrics.IncExecution(string(execution.StatusTimeout))
		s.emitter.Emit(events.Event{
			Type:        events.TypeExecutionTimeout,
			ExecutionID: item.ID,
			Status:      string(execution.StatusTimeout),
		})
		s.logger.Error("execution timed out, retries exhausted",
			zap.Uint64("execution_id", item.ID))

		s.notifyWebhook(item)
		if item.IsShard() {
			s.recomputeParent(ctx, item)
		}
	}
}

func (s *Service) recomputeParent(ctx context.Context, shard *execution.QueueItem) {
	if err := s.coordinator.RecomputeParent(ctx, *shard.ParentID); err != nil {
		s.logger.Error("failed to recompute parent execution",
			zap.Uint64("parent_id", *shard.ParentID),
			zap.Uint64("shard_id", shard.ID),
			zap.Error(err))
	}
}

func (s *Service) updateQueueGauges(ctx context.Context) {
	counts, err := s.executionRepo.CountByStatus(ctx)
	if err != nil {
		s.logger.Debug("failed to count queue items", zap.Error(err))
		return
	}
	for status, count := range counts {
		s.metrics.SetQueueDepth(string(status), float64(count))
	}

	runners, err := s.registry.List(ctx, runner.ListFilter{})
	if err != nil {
		s.logger.Debug("failed to list runners for gauges", zap.Error(err))
		return
	}
	for _, r := range runners {
		s.metrics.SetRunnerJobs(r.Name, float64(r.CurrentJobs))
	}
}
