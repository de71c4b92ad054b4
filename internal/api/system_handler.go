package api

import (
	"net/http"

	"github.com/davecgh/go-spew/spew"
	"github.com/gin-gonic/gin"
	"github.com/samber/mo"
	"github.com/spf13/cast"

	"github.com/testops/orchestrator/internal/biz/metric"
	"github.com/testops/orchestrator/internal/biz/runner"
	"github.com/testops/orchestrator/internal/observability"
	"github.com/testops/orchestrator/internal/registry"
	"github.com/testops/orchestrator/internal/scheduler"
)

// SystemHandler 服务状态与诊断
type SystemHandler struct {
	scheduler *scheduler.Service
	registry  *registry.Service
	recorder  *observability.Recorder
}

func NewSystemHandler(sched *scheduler.Service, reg *registry.Service, recorder *observability.Recorder) *SystemHandler {
	return &SystemHandler{scheduler: sched, registry: reg, recorder: recorder}
}

func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"leader": h.scheduler.IsLeader(),
	})
}

func (h *SystemHandler) QueueStatus(c *gin.Context) {
	counts, err := h.scheduler.QueueStatus(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"counts": counts})
}

// MetricSamples 按类型/执行机过滤的原始指标样本
func (h *SystemHandler) MetricSamples(c *gin.Context) {
	filter := metric.ListFilter{}
	if v := c.Query("type"); v != "" {
		filter.Type = mo.Some(metric.MetricType(v))
	}
	if v := c.Query("runner_id"); v != "" {
		filter.RunnerID = mo.Some(cast.ToUint64(v))
	}
	limit := cast.ToInt(c.DefaultQuery("limit", "100"))
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	samples, err := h.recorder.Samples(c.Request.Context(), filter, limit)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": samples})
}

// DebugState 人读的内部状态快照，供排障用
func (h *SystemHandler) DebugState(c *gin.Context) {
	runners, err := h.registry.List(c.Request.Context(), runner.ListFilter{})
	if err != nil {
		c.Error(err)
		return
	}
	counts, err := h.scheduler.QueueStatus(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	dump := spew.Sdump(map[string]any{
		"leader":       h.scheduler.IsLeader(),
		"queue_counts": counts,
		"runners":      runners,
	})
	c.String(http.StatusOK, dump)
}
