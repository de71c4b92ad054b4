package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/testops/orchestrator/internal/biz/runner"
	"github.com/testops/orchestrator/internal/biz/schedule"
	"github.com/testops/orchestrator/internal/scheduler"
)

// ScheduleHandler 周期排程管理
type ScheduleHandler struct {
	scheduleRepo schedule.Repo
	scheduler    *scheduler.Service
	logger       *zap.Logger
}

func NewScheduleHandler(scheduleRepo schedule.Repo, sched *scheduler.Service, logger *zap.Logger) *ScheduleHandler {
	return &ScheduleHandler{scheduleRepo: scheduleRepo, scheduler: sched, logger: logger}
}

type ScheduleReq struct {
	Name           string            `json:"name" binding:"required"`
	CronExpression string            `json:"cron_expression" binding:"required"`
	TestSuite      string            `json:"test_suite" binding:"required"`
	Environment    string            `json:"environment"`
	Priority       int               `json:"priority"`
	RunnerType     runner.RunnerType `json:"runner_type"`
	TotalShards    int               `json:"total_shards"`
	Active         *bool             `json:"active"`
}

func (r *ScheduleReq) validate() error {
	if err := scheduler.ValidateCronExpression(r.CronExpression); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	if r.RunnerType != "" && !r.RunnerType.Valid() {
		return fmt.Errorf("unknown runner type: %s", r.RunnerType)
	}
	return nil
}

func (h *ScheduleHandler) Create(c *gin.Context) {
	var req ScheduleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	sch := &schedule.RecurringSchedule{
		Name:           req.Name,
		CronExpression: req.CronExpression,
		TestSuite:      req.TestSuite,
		Environment:    req.Environment,
		Priority:       req.Priority,
		RunnerType:     req.RunnerType,
		TotalShards:    req.TotalShards,
		Active:         active,
	}
	if err := h.scheduleRepo.Create(c.Request.Context(), sch); err != nil {
		c.Error(err)
		return
	}
	h.reload(c)
	c.JSON(http.StatusCreated, sch)
}

func (h *ScheduleHandler) List(c *gin.Context) {
	schedules, err := h.scheduleRepo.FindActive(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": schedules})
}

func (h *ScheduleHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req ScheduleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sch, err := h.scheduleRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	if sch == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "schedule not found"})
		return
	}

	sch.Name = req.Name
	sch.CronExpression = req.CronExpression
	sch.TestSuite = req.TestSuite
	sch.Environment = req.Environment
	sch.Priority = req.Priority
	sch.RunnerType = req.RunnerType
	sch.TotalShards = req.TotalShards
	if req.Active != nil {
		sch.Active = *req.Active
	}

	if err := h.scheduleRepo.Save(c.Request.Context(), sch); err != nil {
		c.Error(err)
		return
	}
	h.reload(c)
	c.JSON(http.StatusOK, sch)
}

func (h *ScheduleHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.scheduleRepo.Delete(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}
	h.reload(c)
	c.JSON(http.StatusOK, gin.H{"message": "schedule deleted"})
}

func (h *ScheduleHandler) reload(c *gin.Context) {
	// 排程已落盘，cron重载失败会在下次选举时重试
	if err := h.scheduler.ReloadSchedules(); err != nil {
		h.logger.Error("failed to reload schedules", zap.Error(err))
	}
}
