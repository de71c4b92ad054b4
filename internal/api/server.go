package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/testops/orchestrator/internal/allocator"
	"github.com/testops/orchestrator/internal/api/middleware"
	"github.com/testops/orchestrator/internal/biz/rule"
	"github.com/testops/orchestrator/internal/biz/schedule"
	"github.com/testops/orchestrator/internal/coordinator"
	"github.com/testops/orchestrator/internal/observability"
	"github.com/testops/orchestrator/internal/registry"
	"github.com/testops/orchestrator/internal/scheduler"
)

type Server struct {
	router *gin.Engine
}

func NewServer(
	sched *scheduler.Service,
	reg *registry.Service,
	alloc *allocator.Allocator,
	coord *coordinator.Service,
	recorder *observability.Recorder,
	ruleRepo rule.Repo,
	scheduleRepo schedule.Repo,
	logger *zap.Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{}
	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.ErrorHandling(logger))
	s.router.Use(middleware.Cors())

	runnerHandler := NewRunnerHandler(reg, alloc)
	executionHandler := NewExecutionHandler(sched, coord, recorder)
	ruleHandler := NewRuleHandler(ruleRepo)
	scheduleHandler := NewScheduleHandler(scheduleRepo, sched, logger)
	systemHandler := NewSystemHandler(sched, reg, recorder)

	s.router.GET("/health", systemHandler.Health)
	s.router.GET("/metrics", gin.WrapH(observability.MetricsHandler()))

	v1 := s.router.Group("/api/v1")
	{
		runners := v1.Group("/runners")
		{
			runners.POST("", runnerHandler.Register)
			runners.GET("", runnerHandler.List)
			runners.GET("/:id", runnerHandler.Get)
			runners.DELETE("/:id", runnerHandler.Unregister)
			runners.PUT("/:id/status", runnerHandler.SetStatus)
			runners.POST("/:id/heartbeat", runnerHandler.Heartbeat)
			runners.GET("/:id/health", runnerHandler.HealthHistory)
			runners.GET("/:id/load", runnerHandler.Load)
		}

		executions := v1.Group("/executions")
		{
			executions.POST("", executionHandler.Enqueue)
			executions.POST("/fanout", executionHandler.FanOut)
			executions.GET("", executionHandler.List)
			executions.GET("/:id", executionHandler.Get)
			executions.GET("/:id/shards", executionHandler.Shards)
			executions.GET("/:id/metrics", executionHandler.Metrics)
			executions.POST("/:id/cancel", executionHandler.Cancel)
			executions.POST("/:id/complete", executionHandler.Complete)
		}

		rules := v1.Group("/rules")
		{
			rules.POST("", ruleHandler.Create)
			rules.GET("", ruleHandler.List)
			rules.GET("/:id", ruleHandler.Get)
			rules.PUT("/:id", ruleHandler.Update)
			rules.DELETE("/:id", ruleHandler.Delete)
		}

		schedules := v1.Group("/schedules")
		{
			schedules.POST("", scheduleHandler.Create)
			schedules.GET("", scheduleHandler.List)
			schedules.PUT("/:id", scheduleHandler.Update)
			schedules.DELETE("/:id", scheduleHandler.Delete)
		}

		v1.GET("/queue/status", systemHandler.QueueStatus)
		v1.GET("/metrics", systemHandler.MetricSamples)
		v1.GET("/debug/state", systemHandler.DebugState)
	}

	return s
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}
