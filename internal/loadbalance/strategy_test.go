package loadbalance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testops/orchestrator/internal/biz/runner"
)

func makeRunner(id uint64, priority, currentJobs, maxJobs int) *runner.Runner {
	return &runner.Runner{
		ID:                id,
		Name:              "runner",
		Type:              runner.RunnerTypeDocker,
		Status:            runner.RunnerStatusActive,
		HealthStatus:      runner.HealthStatusHealthy,
		Priority:          priority,
		CurrentJobs:       currentJobs,
		MaxConcurrentJobs: maxJobs,
	}
}

// TestRoundRobinEqualWeights 等权候选者应严格轮转均分
func TestRoundRobinEqualWeights(t *testing.T) {
	s := NewRoundRobinStrategy()
	candidates := []*runner.Runner{
		makeRunner(1, 50, 0, 10),
		makeRunner(2, 50, 0, 10),
		makeRunner(3, 50, 0, 10),
	}

	counts := make(map[uint64]int)
	for i := 0; i < 9; i++ {
		selected, err := s.Select(context.Background(), "default", candidates)
		require.NoError(t, err)
		counts[selected.ID]++
	}

	assert.Equal(t, 3, counts[1])
	assert.Equal(t, 3, counts[2])
	assert.Equal(t, 3, counts[3])
}

// TestRoundRobinWeighted 权重5:1的候选者在6次选择里按比例分配
func TestRoundRobinWeighted(t *testing.T) {
	s := NewRoundRobinStrategy()
	candidates := []*runner.Runner{
		makeRunner(1, 5, 0, 10),
		makeRunner(2, 1, 0, 10),
	}

	counts := make(map[uint64]int)
	for i := 0; i < 6; i++ {
		selected, err := s.Select(context.Background(), "default", candidates)
		require.NoError(t, err)
		counts[selected.ID]++
	}

	assert.Equal(t, 5, counts[1])
	assert.Equal(t, 1, counts[2])
}

// TestRoundRobinBucketsIndependent 不同规则的轮询游标互不影响
func TestRoundRobinBucketsIndependent(t *testing.T) {
	s := NewRoundRobinStrategy()
	candidates := []*runner.Runner{
		makeRunner(1, 50, 0, 10),
		makeRunner(2, 50, 0, 10),
	}

	first, err := s.Select(context.Background(), "rule-1", candidates)
	require.NoError(t, err)

	// 新bucket从头开始轮转
	other, err := s.Select(context.Background(), "rule-2", candidates)
	require.NoError(t, err)
	assert.Equal(t, first.ID, other.ID)
}

func TestRoundRobinNoCandidates(t *testing.T) {
	s := NewRoundRobinStrategy()
	_, err := s.Select(context.Background(), "default", nil)
	assert.Error(t, err)
}

func TestPriorityStrategy(t *testing.T) {
	s := NewPriorityStrategy()

	selected, err := s.Select(context.Background(), "default", []*runner.Runner{
		makeRunner(1, 10, 0, 10),
		makeRunner(2, 80, 0, 10),
		makeRunner(3, 50, 0, 10),
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), selected.ID)

	// 同优先级时选当前任务更少的
	selected, err = s.Select(context.Background(), "default", []*runner.Runner{
		makeRunner(1, 50, 4, 10),
		makeRunner(2, 50, 1, 10),
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), selected.ID)
}

func TestResourceStrategy(t *testing.T) {
	s := NewResourceStrategy()

	// 利用率 3/10 vs 1/4 → 0.25更低
	selected, err := s.Select(context.Background(), "default", []*runner.Runner{
		makeRunner(1, 50, 3, 10),
		makeRunner(2, 50, 1, 4),
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), selected.ID)
}

func TestCustomRegistry(t *testing.T) {
	reg := NewCustomRegistry()

	_, ok := reg.Get("least-latency")
	assert.False(t, ok)

	reg.Register("least-latency", NewResourceStrategy())
	s, ok := reg.Get("least-latency")
	require.True(t, ok)
	assert.Equal(t, "resource-based", s.Name())
}
