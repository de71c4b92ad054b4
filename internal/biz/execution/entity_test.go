package execution

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusQueued.Terminal())
	assert.False(t, StatusAssigned.Terminal())
	assert.False(t, StatusRunning.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.True(t, StatusTimeout.Terminal())
}

// TestRequeueClearsAssignment 回队清空分配痕迹并计入一次重试
func TestRequeueClearsAssignment(t *testing.T) {
	item := &QueueItem{Status: StatusQueued, MaxRetries: 2}
	deadline := time.Now().Add(time.Hour)

	item.MarkAssigned(7, deadline)
	assert.Equal(t, StatusAssigned, item.Status)
	require.NotNil(t, item.AssignedRunnerID)
	assert.Equal(t, uint64(7), *item.AssignedRunnerID)
	assert.Equal(t, deadline, *item.TimeoutAt)

	item.MarkRunning()
	assert.NotNil(t, item.StartedAt)

	item.Requeue()
	assert.Equal(t, StatusQueued, item.Status)
	assert.Nil(t, item.AssignedRunnerID)
	assert.Nil(t, item.AssignedAt)
	assert.Nil(t, item.StartedAt)
	assert.Nil(t, item.TimeoutAt)
	assert.Equal(t, 1, item.RetryCount)
}

func TestCanRetry(t *testing.T) {
	item := &QueueItem{MaxRetries: 2}
	assert.True(t, item.CanRetry())
	item.RetryCount = 2
	assert.False(t, item.CanRetry())
}

func TestExpired(t *testing.T) {
	now := time.Now()
	item := &QueueItem{}
	assert.False(t, item.Expired(now))

	past := now.Add(-time.Minute)
	item.TimeoutAt = &past
	assert.True(t, item.Expired(now))

	future := now.Add(time.Minute)
	item.TimeoutAt = &future
	assert.False(t, item.Expired(now))
}

func TestShardPredicates(t *testing.T) {
	parentID := uint64(1)

	parent := &QueueItem{TotalShards: 3}
	assert.True(t, parent.IsFanOutParent())
	assert.False(t, parent.IsShard())

	shard := &QueueItem{ParentID: &parentID, ShardIndex: 1, TotalShards: 3}
	assert.True(t, shard.IsShard())
	assert.False(t, shard.IsFanOutParent())

	plain := &QueueItem{}
	assert.False(t, plain.IsShard())
	assert.False(t, plain.IsFanOutParent())
}
