package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/samber/mo"

	"github.com/testops/orchestrator/internal/allocator"
	"github.com/testops/orchestrator/internal/biz/runner"
	"github.com/testops/orchestrator/internal/registry"
)

// RunnerHandler 执行机管理
type RunnerHandler struct {
	registry  *registry.Service
	allocator *allocator.Allocator
}

func NewRunnerHandler(reg *registry.Service, alloc *allocator.Allocator) *RunnerHandler {
	return &RunnerHandler{registry: reg, allocator: alloc}
}

type RegisterRunnerReq struct {
	Name              string            `json:"name" binding:"required"`
	Type              runner.RunnerType `json:"type" binding:"required"`
	BaseURL           string            `json:"base_url" binding:"required"`
	WebhookURL        string            `json:"webhook_url"`
	HealthCheckURL    string            `json:"health_check_url"`
	Capabilities      map[string]any    `json:"capabilities"`
	MaxConcurrentJobs int               `json:"max_concurrent_jobs" binding:"required"`
	Priority          int               `json:"priority"`
}

func (h *RunnerHandler) Register(c *gin.Context) {
	var req RegisterRunnerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	r := &runner.Runner{
		Name:              req.Name,
		Type:              req.Type,
		BaseURL:           req.BaseURL,
		WebhookURL:        req.WebhookURL,
		HealthCheckURL:    req.HealthCheckURL,
		Capabilities:      req.Capabilities,
		MaxConcurrentJobs: req.MaxConcurrentJobs,
		Priority:          req.Priority,
	}
	if err := h.registry.Register(c.Request.Context(), r); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (h *RunnerHandler) List(c *gin.Context) {
	filter := runner.ListFilter{}
	if status := c.Query("status"); status != "" {
		filter.Status = mo.Some(runner.RunnerStatus(status))
	}
	if typ := c.Query("type"); typ != "" {
		filter.Type = mo.Some(runner.RunnerType(typ))
	}
	if health := c.Query("health"); health != "" {
		filter.Health = mo.Some(runner.HealthStatus(health))
	}

	runners, err := h.registry.List(c.Request.Context(), filter)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": runners, "total": len(runners)})
}

func (h *RunnerHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	r, err := h.registry.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, registry.ErrRunnerNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "runner not found"})
			return
		}
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *RunnerHandler) Unregister(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.registry.Unregister(c.Request.Context(), id); err != nil {
		if errors.Is(err, registry.ErrRunnerNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "runner not found"})
			return
		}
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "runner unregistered"})
}

type SetStatusReq struct {
	Status runner.RunnerStatus `json:"status" binding:"required"`
}

func (h *RunnerHandler) SetStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req SetStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.registry.SetStatus(c.Request.Context(), id, req.Status); err != nil {
		if errors.Is(err, registry.ErrRunnerNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "runner not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "status updated"})
}

func (h *RunnerHandler) Heartbeat(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req struct {
		CapacityUsed int `json:"capacity_used"`
	}
	// 请求体可省略，缺省按0在途任务上报
	_ = c.ShouldBindJSON(&req)
	if err := h.registry.RecordHeartbeat(c.Request.Context(), id, req.CapacityUsed); err != nil {
		if errors.Is(err, registry.ErrRunnerNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "runner not found"})
			return
		}
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "heartbeat recorded"})
}

func (h *RunnerHandler) HealthHistory(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	history, err := h.registry.HealthHistory(c.Request.Context(), id, limit)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": history})
}

func (h *RunnerHandler) Load(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	load, err := h.allocator.CurrentLoad(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, load)
}

func parseID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
