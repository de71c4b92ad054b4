package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/testops/orchestrator/internal/biz/execution"
	"github.com/testops/orchestrator/internal/events"
	"github.com/testops/orchestrator/internal/infra/persistence/memoryrepo"
	"github.com/testops/orchestrator/pkg/config"
)

func newTestCoordinator(t *testing.T) (*Service, *memoryrepo.ExecutionRepo, *events.Bus) {
	t.Helper()
	repo := memoryrepo.NewExecutionRepo()
	bus := events.NewBus(nil, "test", zap.NewNop())
	cfg := &config.SchedulerConfig{
		DefaultPriority: 50,
		MaxRetries:      3,
		DefaultTimeout:  30 * time.Minute,
	}
	return NewService(cfg, repo, bus, zap.NewNop()), repo, bus
}

func fanOutRequest() *execution.Request {
	return &execution.Request{
		TestSuite:   "regression",
		Environment: "staging",
	}
}

// TestFanOut 创建父执行与N个分片，父记录不参与调度
func TestFanOut(t *testing.T) {
	s, repo, _ := newTestCoordinator(t)
	ctx := context.Background()

	parent, err := s.FanOut(ctx, fanOutRequest(), 4)
	require.NoError(t, err)
	require.NotNil(t, parent)
	assert.Equal(t, 4, parent.TotalShards)
	assert.Nil(t, parent.ParentID)

	shards, err := s.Shards(ctx, parent.ID)
	require.NoError(t, err)
	require.Len(t, shards, 4)
	for i, shard := range shards {
		assert.Equal(t, i, shard.ShardIndex)
		assert.Equal(t, 4, shard.TotalShards)
		require.NotNil(t, shard.ParentID)
		assert.Equal(t, parent.ID, *shard.ParentID)
		assert.Equal(t, "regression", shard.TestSuite)
	}

	// 只有分片进入调度批次
	batch, err := repo.FetchQueuedBatch(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, batch, 4)
	for _, item := range batch {
		assert.True(t, item.IsShard())
	}
}

func TestFanOutTooFewShards(t *testing.T) {
	s, _, _ := newTestCoordinator(t)
	_, err := s.FanOut(context.Background(), fanOutRequest(), 1)
	assert.Error(t, err)
}

func TestFanOutInvalidRequest(t *testing.T) {
	s, _, _ := newTestCoordinator(t)
	req := fanOutRequest()
	req.TestSuite = ""
	_, err := s.FanOut(context.Background(), req, 2)
	assert.Error(t, err)
}

// TestAggregateStatus 全部完成→completed，任一终态失败→failed，否则running
func TestAggregateStatus(t *testing.T) {
	s, repo, _ := newTestCoordinator(t)
	ctx := context.Background()

	parent, err := s.FanOut(ctx, fanOutRequest(), 3)
	require.NoError(t, err)

	status, err := s.AggregateStatus(ctx, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, execution.StatusRunning, status)

	shards, err := s.Shards(ctx, parent.ID)
	require.NoError(t, err)
	shards[0].MarkCompleted(map[string]any{"passed": 12})
	require.NoError(t, repo.Save(ctx, shards[0]))
	shards[1].MarkCompleted(map[string]any{"passed": 9})
	require.NoError(t, repo.Save(ctx, shards[1]))

	status, err = s.AggregateStatus(ctx, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, execution.StatusRunning, status)

	shards[2].MarkCompleted(map[string]any{"passed": 4})
	require.NoError(t, repo.Save(ctx, shards[2]))

	status, err = s.AggregateStatus(ctx, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, execution.StatusCompleted, status)
}

func TestAggregateStatusFailedShard(t *testing.T) {
	s, repo, _ := newTestCoordinator(t)
	ctx := context.Background()

	parent, err := s.FanOut(ctx, fanOutRequest(), 2)
	require.NoError(t, err)

	shards, err := s.Shards(ctx, parent.ID)
	require.NoError(t, err)
	shards[0].MarkFailed("assertion failure")
	require.NoError(t, repo.Save(ctx, shards[0]))

	status, err := s.AggregateStatus(ctx, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, execution.StatusFailed, status)
}

// TestRecomputeParentCompleted 所有分片完成后父执行落盘为completed并合并结果
func TestRecomputeParentCompleted(t *testing.T) {
	s, repo, bus := newTestCoordinator(t)
	ctx := context.Background()

	var got []events.Event
	bus.Subscribe(func(ev events.Event) { got = append(got, ev) })

	parent, err := s.FanOut(ctx, fanOutRequest(), 2)
	require.NoError(t, err)
	got = got[:0] // 丢掉入队事件

	shards, err := s.Shards(ctx, parent.ID)
	require.NoError(t, err)
	shards[0].MarkCompleted(map[string]any{"passed": 3})
	require.NoError(t, repo.Save(ctx, shards[0]))

	// 还有分片未结束，父执行保持原状
	require.NoError(t, s.RecomputeParent(ctx, parent.ID))
	loaded, err := repo.GetByID(ctx, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, execution.StatusQueued, loaded.Status)

	shards[1].MarkCompleted(map[string]any{"passed": 5})
	require.NoError(t, repo.Save(ctx, shards[1]))

	require.NoError(t, s.RecomputeParent(ctx, parent.ID))
	loaded, err = repo.GetByID(ctx, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, execution.StatusCompleted, loaded.Status)
	assert.Equal(t, map[string]any{"passed": 3}, loaded.Result["shard_0"])
	assert.Equal(t, map[string]any{"passed": 5}, loaded.Result["shard_1"])

	require.Len(t, got, 1)
	assert.Equal(t, events.TypeExecutionCompleted, got[0].Type)
	assert.Equal(t, parent.ID, got[0].ExecutionID)

	// 父执行已终态，重复重算是no-op
	require.NoError(t, s.RecomputeParent(ctx, parent.ID))
	assert.Len(t, got, 1)
}

func TestRecomputeParentFailed(t *testing.T) {
	s, repo, _ := newTestCoordinator(t)
	ctx := context.Background()

	parent, err := s.FanOut(ctx, fanOutRequest(), 2)
	require.NoError(t, err)

	shards, err := s.Shards(ctx, parent.ID)
	require.NoError(t, err)
	shards[0].MarkTimeout()
	require.NoError(t, repo.Save(ctx, shards[0]))

	require.NoError(t, s.RecomputeParent(ctx, parent.ID))
	loaded, err := repo.GetByID(ctx, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, execution.StatusFailed, loaded.Status)
}

func TestRecomputeParentNotFound(t *testing.T) {
	s, _, _ := newTestCoordinator(t)
	err := s.RecomputeParent(context.Background(), 404)
	assert.ErrorIs(t, err, ErrExecutionNotFound)
}
