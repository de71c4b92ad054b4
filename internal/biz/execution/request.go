package execution

import (
	"errors"
	"fmt"
	"time"

	"github.com/testops/orchestrator/internal/biz/runner"
)

// Request 外部提交的执行请求，入队前由调度服务补齐默认值
type Request struct {
	TestSuite   string
	Environment string
	// Priority 为nil时取调度器默认值，显式0是合法的最低优先级
	Priority          *int
	EstimatedDuration time.Duration

	RunnerType runner.RunnerType
	RunnerID   *uint64

	MaxRetries *int
	Metadata   map[string]any
	WebhookURL string
}

// Defaults 入队默认值，来源于调度器配置
type Defaults struct {
	Priority          int
	MaxRetries        int
	EstimatedDuration time.Duration
}

// Validate 校验请求字段
func (r *Request) Validate() error {
	if r.TestSuite == "" {
		return errors.New("test suite is required")
	}
	if r.Priority != nil && (*r.Priority < 0 || *r.Priority > 100) {
		return errors.New("priority must be between 0 and 100")
	}
	if r.RunnerType != "" && !r.RunnerType.Valid() {
		return fmt.Errorf("unknown runner type: %s", r.RunnerType)
	}
	if r.MaxRetries != nil && *r.MaxRetries < 0 {
		return errors.New("max retries must be non-negative")
	}
	return nil
}

// BuildQueueItem 将请求物化为一个待调度的队列项
func BuildQueueItem(req *Request, def Defaults) *QueueItem {
	item := &QueueItem{
		TestSuite:           req.TestSuite,
		Environment:         req.Environment,
		Priority:            def.Priority,
		EstimatedDuration:   req.EstimatedDuration,
		RequestedRunnerType: req.RunnerType,
		RequestedRunnerID:   req.RunnerID,
		Status:              StatusQueued,
		MaxRetries:          def.MaxRetries,
		Metadata:            req.Metadata,
		WebhookURL:          req.WebhookURL,
	}
	if req.Priority != nil {
		item.Priority = *req.Priority
	}
	if item.EstimatedDuration <= 0 {
		item.EstimatedDuration = def.EstimatedDuration
	}
	if req.MaxRetries != nil {
		item.MaxRetries = *req.MaxRetries
	}
	return item
}
