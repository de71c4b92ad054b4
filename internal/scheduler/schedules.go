package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/testops/orchestrator/internal/biz/execution"
	"github.com/testops/orchestrator/internal/biz/schedule"
)

// loadSchedules 加载active的周期排程并注册cron入口
func (s *Service) loadSchedules() error {
	ctx := context.Background()

	for _, entry := range s.cron.Entries() {
		s.cron.Remove(entry.ID)
	}

	schedules, err := s.scheduleRepo.FindActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to load schedules: %w", err)
	}

	for _, sch := range schedules {
		sch := sch
		_, err := s.cron.AddFunc(sch.CronExpression, func() {
			s.fireSchedule(sch)
		})
		if err != nil {
			s.logger.Error("failed to register schedule",
				zap.Uint64("schedule_id", sch.ID),
				zap.String("name", sch.Name),
				zap.String("cron", sch.CronExpression),
				zap.Error(err))
			continue
		}
		s.logger.Info("schedule registered",
			zap.Uint64("schedule_id", sch.ID),
			zap.String("name", sch.Name),
			zap.String("cron", sch.CronExpression))
	}
	return nil
}

// ReloadSchedules 排程变更后重载cron，仅领导者生效
func (s *Service) ReloadSchedules() error {
	if !s.IsLeader() {
		return nil
	}
	return s.loadSchedules()
}

// ValidateCronExpression 配置时校验cron表达式
func ValidateCronExpression(expr string) error {
	_, err := cron.ParseStandard(expr)
	return err
}

func (s *Service) fireSchedule(sch *schedule.RecurringSchedule) {
	ctx := context.Background()
	req := &execution.Request{
		TestSuite:   sch.TestSuite,
		Environment: sch.Environment,
		RunnerType:  sch.RunnerType,
		Metadata:    map[string]any{"schedule_id": sch.ID},
	}
	// 排程未配置优先级(0)时沿用调度器默认值
	if sch.Priority > 0 {
		p := sch.Priority
		req.Priority = &p
	}

	var err error
	if sch.TotalShards >= 2 {
		_, err = s.FanOut(ctx, req, sch.TotalShards)
	} else {
		_, err = s.Enqueue(ctx, req)
	}
	if err != nil {
		s.logger.Error("failed to enqueue scheduled execution",
			zap.Uint64("schedule_id", sch.ID),
			zap.String("name", sch.Name),
			zap.Error(err))
		return
	}
	s.logger.Info("scheduled execution enqueued",
		zap.Uint64("schedule_id", sch.ID),
		zap.String("name", sch.Name))
}
