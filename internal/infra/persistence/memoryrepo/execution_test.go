package memoryrepo

import (
	"context"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testops/orchestrator/internal/biz/execution"
)

// TestFetchQueuedBatchOrdering priority降序，同优先级按入队顺序
func TestFetchQueuedBatchOrdering(t *testing.T) {
	repo := NewExecutionRepo()
	ctx := context.Background()

	first := &execution.QueueItem{TestSuite: "first", Priority: 50, Status: execution.StatusQueued}
	second := &execution.QueueItem{TestSuite: "second", Priority: 50, Status: execution.StatusQueued}
	urgent := &execution.QueueItem{TestSuite: "urgent", Priority: 90, Status: execution.StatusQueued}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Create(ctx, urgent))

	batch, err := repo.FetchQueuedBatch(ctx, 10)
	require.NoError(t, err)
	require.Len(t, batch, 3)
	assert.Equal(t, "urgent", batch[0].TestSuite)
	assert.Equal(t, "first", batch[1].TestSuite)
	assert.Equal(t, "second", batch[2].TestSuite)
}

// TestSaveFromGuard 条件保存仅在当前状态匹配时落库
func TestSaveFromGuard(t *testing.T) {
	repo := NewExecutionRepo()
	ctx := context.Background()

	item := &execution.QueueItem{TestSuite: "smoke", Status: execution.StatusQueued}
	require.NoError(t, repo.Create(ctx, item))

	runnerID := uint64(7)
	item.MarkAssigned(runnerID, time.Now().Add(time.Minute))
	hit, err := repo.SaveFrom(ctx, item, execution.StatusQueued)
	require.NoError(t, err)
	assert.True(t, hit)

	// 另一个持有旧快照的写入方此时守卫落空
	stale := &execution.QueueItem{ID: item.ID, TestSuite: "smoke", Status: execution.StatusCancelled}
	hit, err = repo.SaveFrom(ctx, stale, execution.StatusQueued)
	require.NoError(t, err)
	assert.False(t, hit)

	loaded, err := repo.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, execution.StatusAssigned, loaded.Status)

	hit, err = repo.SaveFrom(ctx, stale, execution.StatusFailed)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestFetchQueuedBatchLimit(t *testing.T) {
	repo := NewExecutionRepo()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, &execution.QueueItem{
			TestSuite: "suite",
			Status:    execution.StatusQueued,
		}))
	}

	batch, err := repo.FetchQueuedBatch(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, batch, 2)
}

// TestFetchQueuedBatchExcludesParents 扇出父记录不参与调度
func TestFetchQueuedBatchExcludesParents(t *testing.T) {
	repo := NewExecutionRepo()
	ctx := context.Background()

	parent := &execution.QueueItem{TestSuite: "regression", Status: execution.StatusQueued, TotalShards: 2}
	require.NoError(t, repo.Create(ctx, parent))
	for i := 0; i < 2; i++ {
		parentID := parent.ID
		require.NoError(t, repo.Create(ctx, &execution.QueueItem{
			TestSuite:   "regression",
			Status:      execution.StatusQueued,
			ParentID:    &parentID,
			ShardIndex:  i,
			TotalShards: 2,
		}))
	}

	batch, err := repo.FetchQueuedBatch(ctx, 10)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	for _, item := range batch {
		assert.True(t, item.IsShard())
	}
}

func TestFindExpired(t *testing.T) {
	repo := NewExecutionRepo()
	ctx := context.Background()

	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	expired := &execution.QueueItem{TestSuite: "expired", Status: execution.StatusRunning, TimeoutAt: &past}
	alive := &execution.QueueItem{TestSuite: "alive", Status: execution.StatusRunning, TimeoutAt: &future}
	queued := &execution.QueueItem{TestSuite: "queued", Status: execution.StatusQueued, TimeoutAt: &past}
	require.NoError(t, repo.Create(ctx, expired))
	require.NoError(t, repo.Create(ctx, alive))
	require.NoError(t, repo.Create(ctx, queued))

	found, err := repo.FindExpired(ctx, now.Unix())
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "expired", found[0].TestSuite)
}

func TestListFilters(t *testing.T) {
	repo := NewExecutionRepo()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &execution.QueueItem{
		TestSuite: "smoke", Environment: "staging", Status: execution.StatusQueued}))
	require.NoError(t, repo.Create(ctx, &execution.QueueItem{
		TestSuite: "smoke", Environment: "prod", Status: execution.StatusCompleted}))
	require.NoError(t, repo.Create(ctx, &execution.QueueItem{
		TestSuite: "regression", Environment: "staging", Status: execution.StatusQueued}))

	items, total, err := repo.List(ctx, execution.ListFilter{
		TestSuite: mo.Some("smoke"),
	}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, items, 2)

	items, total, err = repo.List(ctx, execution.ListFilter{
		Status:      mo.Some(execution.StatusQueued),
		Environment: mo.Some("staging"),
	}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, items, 2)
}

func TestCountByStatus(t *testing.T) {
	repo := NewExecutionRepo()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &execution.QueueItem{TestSuite: "a", Status: execution.StatusQueued}))
	require.NoError(t, repo.Create(ctx, &execution.QueueItem{TestSuite: "b", Status: execution.StatusQueued}))
	require.NoError(t, repo.Create(ctx, &execution.QueueItem{TestSuite: "c", Status: execution.StatusRunning}))

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[execution.StatusQueued])
	assert.Equal(t, int64(1), counts[execution.StatusRunning])
}
