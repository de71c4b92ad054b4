package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yitter/idgenerator-go/idgen"
	"go.uber.org/zap"

	"github.com/testops/orchestrator/internal/allocator"
	"github.com/testops/orchestrator/internal/api"
	"github.com/testops/orchestrator/internal/biz/runner"
	"github.com/testops/orchestrator/internal/coordinator"
	"github.com/testops/orchestrator/internal/dispatch"
	"github.com/testops/orchestrator/internal/events"
	"github.com/testops/orchestrator/internal/health"
	"github.com/testops/orchestrator/internal/infra/persistence/allocationrepo"
	"github.com/testops/orchestrator/internal/infra/persistence/executionrepo"
	"github.com/testops/orchestrator/internal/infra/persistence/metricrepo"
	"github.com/testops/orchestrator/internal/infra/persistence/rulerepo"
	"github.com/testops/orchestrator/internal/infra/persistence/runnerrepo"
	"github.com/testops/orchestrator/internal/infra/persistence/schedulerepo"
	"github.com/testops/orchestrator/internal/loadbalance"
	"github.com/testops/orchestrator/internal/observability"
	"github.com/testops/orchestrator/internal/orm"
	"github.com/testops/orchestrator/internal/registry"
	"github.com/testops/orchestrator/internal/scheduler"
	"github.com/testops/orchestrator/pkg/config"
	"github.com/testops/orchestrator/pkg/logger"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "configs/config.yaml", "path to config file")
	flag.Parse()

	options := idgen.NewIdGeneratorOptions(1)
	options.WorkerIdBitLength = 6
	idgen.SetIdGenerator(options)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Scheduler.InstanceID == "" {
		cfg.Scheduler.InstanceID = fmt.Sprintf("orchestrator-%d", idgen.NextId())
	}

	zapLogger, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting test orchestrator",
		zap.String("instance_id", cfg.Scheduler.InstanceID))

	storage, err := orm.New(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer storage.Close()
	db := storage.DB()

	// repositories
	runnerRepo := runnerrepo.NewMysqlRepositoryImpl(db)
	executionRepo := executionrepo.NewMysqlRepositoryImpl(db)
	allocationRepo := allocationrepo.NewMysqlRepositoryImpl(db)
	ruleRepo := rulerepo.NewMysqlRepositoryImpl(db)
	metricRepo := metricrepo.NewMysqlRepositoryImpl(db)
	scheduleRepo := schedulerepo.NewMysqlRepositoryImpl(db)

	bus := ProvideEventBus(cfg, ProvideRedisClient(cfg), zapLogger)

	reg := registry.NewService(runnerRepo, bus, zapLogger)
	customStrategies := loadbalance.NewCustomRegistry()
	engine := loadbalance.NewEngine(ruleRepo, customStrategies, zapLogger)
	alloc := allocator.New(&cfg.Allocator, runnerRepo, allocationRepo, zapLogger)
	gateway := dispatch.NewGateway(&cfg.Dispatch, zapLogger, dispatch.NewAdapters())
	monitor := health.NewMonitor(cfg.HealthCheck, runnerRepo, bus, zapLogger)
	coord := coordinator.NewService(&cfg.Scheduler, executionRepo, bus, zapLogger)
	metrics := observability.NewMetrics(ProvideRegisterer())
	recorder := observability.NewRecorder(metricRepo, metrics, zapLogger)

	// 执行机恢复健康后重置其派发熔断器
	bus.Subscribe(func(ev events.Event) {
		if ev.Type == events.TypeRunnerHealthChange && ev.Status == string(runner.HealthStatusHealthy) {
			gateway.ResetBreaker(ev.RunnerID)
		}
	})

	sched, err := scheduler.New(
		cfg,
		db,
		zapLogger,
		reg,
		engine,
		alloc,
		gateway,
		monitor,
		coord,
		recorder,
		metrics,
		bus,
		executionRepo,
		scheduleRepo,
	)
	if err != nil {
		zapLogger.Fatal("Failed to create scheduler", zap.Error(err))
	}

	if err := sched.Start(); err != nil {
		zapLogger.Fatal("Failed to start scheduler", zap.Error(err))
	}

	apiServer := api.NewServer(sched, reg, alloc, coord, recorder, ruleRepo, scheduleRepo, zapLogger)

	httpServer := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        apiServer.Router(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		zapLogger.Info("Starting API server",
			zap.Int("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start API server", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	zapLogger.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		zapLogger.Error("Failed to shutdown API server", zap.Error(err))
	}
	if err := sched.Stop(); err != nil {
		zapLogger.Error("Failed to stop scheduler", zap.Error(err))
	}

	zapLogger.Info("Shutdown complete")
}
