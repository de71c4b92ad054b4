package observability

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/testops/orchestrator/internal/biz/metric"
	"github.com/testops/orchestrator/internal/infra/persistence/memoryrepo"
)

func newTestRecorder(t *testing.T) (*Recorder, *memoryrepo.MetricRepo) {
	t.Helper()
	repo := memoryrepo.NewMetricRepo()
	metrics := NewMetrics(prometheus.NewRegistry())
	return NewRecorder(repo, metrics, zap.NewNop()), repo
}

func TestRecordQueueTime(t *testing.T) {
	r, _ := newTestRecorder(t)
	ctx := context.Background()

	runnerID := uint64(3)
	r.RecordQueueTime(ctx, 100, &runnerID, 90*time.Second)
	r.RecordExecutionTime(ctx, 100, &runnerID, 10*time.Minute)

	samples, err := r.Samples(ctx, metric.ListFilter{ExecutionID: mo.Some(uint64(100))}, 10)
	require.NoError(t, err)
	require.Len(t, samples, 2)

	// 倒序返回，最新的在前
	assert.Equal(t, metric.TypeExecutionTime, samples[0].Type)
	assert.Equal(t, 600.0, samples[0].Value)
	assert.Equal(t, "seconds", samples[0].Unit)
	assert.Equal(t, metric.TypeQueueTime, samples[1].Type)
	assert.Equal(t, 90.0, samples[1].Value)
}

func TestSamplesFilterByType(t *testing.T) {
	r, _ := newTestRecorder(t)
	ctx := context.Background()

	r.RecordQueueTime(ctx, 1, nil, time.Second)
	r.RecordQueueTime(ctx, 2, nil, 2*time.Second)
	r.RecordExecutionTime(ctx, 1, nil, time.Minute)

	samples, err := r.Samples(ctx, metric.ListFilter{Type: mo.Some(metric.TypeQueueTime)}, 10)
	require.NoError(t, err)
	assert.Len(t, samples, 2)
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	// nil接收者直接忽略，调用方不需要判空
	m.IncExecution("queued")
	m.IncDispatch("success")
	m.SetQueueDepth("queued", 3)
	m.ObserveQueueTime(1.5)

	real := NewMetrics(prometheus.NewRegistry())
	require.NotNil(t, real)
	real.IncExecution("queued")
	real.SetRunnerJobs("worker-1", 2)
}
