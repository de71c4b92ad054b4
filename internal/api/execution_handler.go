package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/mo"

	"github.com/testops/orchestrator/internal/biz/execution"
	"github.com/testops/orchestrator/internal/biz/metric"
	"github.com/testops/orchestrator/internal/biz/runner"
	"github.com/testops/orchestrator/internal/coordinator"
	"github.com/testops/orchestrator/internal/observability"
	"github.com/testops/orchestrator/internal/scheduler"
)

// ExecutionHandler 执行队列管理
type ExecutionHandler struct {
	scheduler   *scheduler.Service
	coordinator *coordinator.Service
	recorder    *observability.Recorder
}

func NewExecutionHandler(sched *scheduler.Service, coord *coordinator.Service, recorder *observability.Recorder) *ExecutionHandler {
	return &ExecutionHandler{
		scheduler:   sched,
		coordinator: coord,
		recorder:    recorder,
	}
}

type EnqueueReq struct {
	TestSuite        string            `json:"test_suite" binding:"required"`
	Environment      string            `json:"environment"`
	Priority         *int              `json:"priority"`
	EstimatedSeconds int               `json:"estimated_seconds"`
	RunnerType       runner.RunnerType `json:"runner_type"`
	RunnerID         *uint64           `json:"runner_id"`
	MaxRetries       *int              `json:"max_retries"`
	Metadata         map[string]any    `json:"metadata"`
	WebhookURL       string            `json:"webhook_url"`
}

func (r *EnqueueReq) toRequest() *execution.Request {
	return &execution.Request{
		TestSuite:         r.TestSuite,
		Environment:       r.Environment,
		Priority:          r.Priority,
		EstimatedDuration: time.Duration(r.EstimatedSeconds) * time.Second,
		RunnerType:        r.RunnerType,
		RunnerID:          r.RunnerID,
		MaxRetries:        r.MaxRetries,
		Metadata:          r.Metadata,
		WebhookURL:        r.WebhookURL,
	}
}

func (h *ExecutionHandler) Enqueue(c *gin.Context) {
	var req EnqueueReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, err := h.scheduler.Enqueue(c.Request.Context(), req.toRequest())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, item)
}

type FanOutReq struct {
	EnqueueReq
	TotalShards int `json:"total_shards" binding:"required"`
}

func (h *ExecutionHandler) FanOut(c *gin.Context) {
	var req FanOutReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	parent, err := h.scheduler.FanOut(c.Request.Context(), req.toRequest(), req.TotalShards)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, parent)
}

func (h *ExecutionHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	filter := execution.ListFilter{}
	if status := c.Query("status"); status != "" {
		filter.Status = mo.Some(execution.Status(status))
	}
	if suite := c.Query("test_suite"); suite != "" {
		filter.TestSuite = mo.Some(suite)
	}
	if env := c.Query("environment"); env != "" {
		filter.Environment = mo.Some(env)
	}

	items, total, err := h.scheduler.List(c.Request.Context(), filter, (page-1)*pageSize, pageSize)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      items,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

func (h *ExecutionHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	item, err := h.scheduler.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, scheduler.ErrExecutionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "execution not found"})
			return
		}
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *ExecutionHandler) Shards(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	shards, err := h.coordinator.Shards(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	status, err := h.coordinator.AggregateStatus(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":             shards,
		"aggregate_status": status,
	})
}

func (h *ExecutionHandler) Metrics(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	samples, err := h.recorder.Samples(c.Request.Context(), metric.ListFilter{
		ExecutionID: mo.Some(id),
	}, 100)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": samples})
}

func (h *ExecutionHandler) Cancel(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	err := h.scheduler.Cancel(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, scheduler.ErrExecutionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "execution not found"})
		case errors.Is(err, scheduler.ErrNotCancellable):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.Error(err)
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "execution cancelled"})
}

type CompleteReq struct {
	Success bool           `json:"success"`
	Result  map[string]any `json:"result"`
	Logs    string         `json:"logs"`
}

// Complete 外部执行系统的完成回调
func (h *ExecutionHandler) Complete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req CompleteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := h.scheduler.ReportCompletion(c.Request.Context(), id, req.Success, req.Result, req.Logs)
	if err != nil {
		if errors.Is(err, scheduler.ErrExecutionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "execution not found"})
			return
		}
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "completion recorded"})
}
