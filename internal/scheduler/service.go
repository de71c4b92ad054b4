package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/testops/orchestrator/internal/allocator"
	"github.com/testops/orchestrator/internal/biz/execution"
	"github.com/testops/orchestrator/internal/biz/schedule"
	"github.com/testops/orchestrator/internal/coordinator"
	"github.com/testops/orchestrator/internal/dispatch"
	"github.com/testops/orchestrator/internal/events"
	"github.com/testops/orchestrator/internal/health"
	"github.com/testops/orchestrator/internal/infra/persistence/commonrepo"
	"github.com/testops/orchestrator/internal/loadbalance"
	"github.com/testops/orchestrator/internal/observability"
	"github.com/testops/orchestrator/internal/registry"
	"github.com/testops/orchestrator/pkg/config"
)

// Service 调度服务。持有全部协作组件，自身不依赖任何全局状态。
type Service struct {
	config config.SchedulerConfig
	locker *Locker
	cron   *cron.Cron
	logger *zap.Logger

	registry      *registry.Service
	engine        *loadbalance.Engine
	allocator     *allocator.Allocator
	gateway       *dispatch.Gateway
	healthMonitor *health.Monitor
	coordinator   *coordinator.Service
	recorder      *observability.Recorder
	metrics       *observability.Metrics
	emitter       events.Emitter

	executionRepo execution.Repo
	scheduleRepo  schedule.Repo

	instanceID string
	isLeader   bool
	leaderMu   sync.RWMutex
	stopCh     chan struct{}
	wg         sync.WaitGroup
}

// New 创建调度服务。db为nil时以单机模式运行（无领导者选举）。
func New(
	cfg *config.Config,
	db commonrepo.DB,
	logger *zap.Logger,

	reg *registry.Service,
	engine *loadbalance.Engine,
	alloc *allocator.Allocator,
	gateway *dispatch.Gateway,
	monitor *health.Monitor,
	coord *coordinator.Service,
	recorder *observability.Recorder,
	metrics *observability.Metrics,
	emitter events.Emitter,

	executionRepo execution.Repo,
	scheduleRepo schedule.Repo,
) (*Service, error) {
	s := &Service{
		config:        cfg.Scheduler,
		cron:          cron.New(),
		logger:        logger,
		registry:      reg,
		engine:        engine,
		allocator:     alloc,
		gateway:       gateway,
		healthMonitor: monitor,
		coordinator:   coord,
		recorder:      recorder,
		metrics:       metrics,
		emitter:       emitter,
		executionRepo: executionRepo,
		scheduleRepo:  scheduleRepo,
		instanceID:    cfg.Scheduler.InstanceID,
		stopCh:        make(chan struct{}),
	}

	if db != nil {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql.DB: %w", err)
		}
		s.locker = NewLocker(sqlDB, cfg.Scheduler.LockKey, cfg.Scheduler.LockTimeout, logger)
	} else {
		s.locker = NewLocker(nil, cfg.Scheduler.LockKey, cfg.Scheduler.LockTimeout, logger)
	}

	return s, nil
}

// Start 启动健康监控、领导者选举与调度循环
func (s *Service) Start() error {
	s.logger.Info("starting orchestrator",
		zap.String("instance_id", s.instanceID),
		zap.Duration("tick_interval", s.config.TickInterval))

	s.healthMonitor.Start()

	s.wg.Add(2)
	go s.leaderElection()
	go s.run()

	return nil
}

// Stop 停止所有循环并释放领导者锁
func (s *Service) Stop() error {
	s.logger.Info("stopping orchestrator",
		zap.String("instance_id", s.instanceID))

	close(s.stopCh)

	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}

	if s.locker.IsLocked() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.locker.Unlock(ctx); err != nil {
			s.logger.Error("failed to release lock", zap.Error(err))
		}
	}

	s.healthMonitor.Stop()
	s.wg.Wait()

	s.logger.Info("orchestrator stopped",
		zap.String("instance_id", s.instanceID))
	return nil
}

// IsLeader 当前实例是否为领导者
func (s *Service) IsLeader() bool {
	s.leaderMu.RLock()
	defer s.leaderMu.RUnlock()
	return s.isLeader
}

func (s *Service) setLeader(leader bool) {
	s.leaderMu.Lock()
	s.isLeader = leader
	s.leaderMu.Unlock()
}

// leaderElection 周期性争抢/续约领导者锁
func (s *Service) leaderElection() {
	defer s.wg.Done()

	s.tryBecomeLeader()

	ticker := time.NewTicker(s.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tryBecomeLeader()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Service) tryBecomeLeader() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.LockTimeout)
	defer cancel()

	if !s.IsLeader() {
		locked, err := s.locker.TryLock(ctx)
		if err != nil {
			s.logger.Error("failed to acquire leader lock", zap.Error(err))
			return
		}
		if locked {
			s.setLeader(true)
			s.logger.Info("became leader",
				zap.String("instance_id", s.instanceID))

			if err := s.loadSchedules(); err != nil {
				s.logger.Error("failed to load recurring schedules", zap.Error(err))
			}
			s.cron.Start()
		}
		return
	}

	if err := s.locker.Renew(ctx); err != nil {
		s.logger.Error("failed to renew leader lock", zap.Error(err))
		s.setLeader(false)
		s.cron.Stop()
	}
}

// run 调度循环。tick在单goroutine内同步执行，天然不重叠；
// 单次tick超过间隔时后续tick顺延。
func (s *Service) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !s.IsLeader() {
				continue
			}
			s.Tick(context.Background())
		case <-s.stopCh:
			return
		}
	}
}
