package observability

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/testops/orchestrator/internal/biz/metric"
)

// Recorder 执行计时落盘，同时镜像到prometheus直方图
type Recorder struct {
	metricRepo metric.Repo
	metrics    *Metrics
	logger     *zap.Logger
}

func NewRecorder(metricRepo metric.Repo, metrics *Metrics, logger *zap.Logger) *Recorder {
	return &Recorder{
		metricRepo: metricRepo,
		metrics:    metrics,
		logger:     logger,
	}
}

// RecordQueueTime 入队到派发的耗时
func (r *Recorder) RecordQueueTime(ctx context.Context, executionID uint64, runnerID *uint64, d time.Duration) {
	r.record(ctx, executionID, runnerID, metric.TypeQueueTime, d)
	r.metrics.ObserveQueueTime(d.Seconds())
}

// RecordExecutionTime 派发到完成的耗时
func (r *Recorder) RecordExecutionTime(ctx context.Context, executionID uint64, runnerID *uint64, d time.Duration) {
	r.record(ctx, executionID, runnerID, metric.TypeExecutionTime, d)
	r.metrics.ObserveExecutionTime(d.Seconds())
}

func (r *Recorder) record(ctx context.Context, executionID uint64, runnerID *uint64, t metric.MetricType, d time.Duration) {
	sample := &metric.ExecutionMetric{
		ExecutionID: executionID,
		RunnerID:    runnerID,
		Type:        t,
		Value:       d.Seconds(),
		Unit:        "seconds",
	}
	if err := r.metricRepo.Append(ctx, sample); err != nil {
		// 计时丢失不阻断调度
		r.logger.Warn("failed to append execution metric",
			zap.Uint64("execution_id", executionID),
			zap.String("type", string(t)),
			zap.Error(err))
	}
}

// Samples 查询历史计时采样
func (r *Recorder) Samples(ctx context.Context, filter metric.ListFilter, limit int) ([]*metric.ExecutionMetric, error) {
	if limit <= 0 {
		limit = 100
	}
	return r.metricRepo.List(ctx, filter, limit)
}
