package allocator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/testops/orchestrator/internal/biz/runner"
	"github.com/testops/orchestrator/internal/infra/persistence/memoryrepo"
	"github.com/testops/orchestrator/pkg/config"
)

func newTestAllocator(t *testing.T) (*Allocator, *memoryrepo.RunnerRepo, *memoryrepo.AllocationRepo) {
	t.Helper()
	runnerRepo := memoryrepo.NewRunnerRepo()
	allocRepo := memoryrepo.NewAllocationRepo()
	cfg := &config.AllocatorConfig{DefaultCPU: 2.0, DefaultMemoryMB: 4096}
	return New(cfg, runnerRepo, allocRepo, zap.NewNop()), runnerRepo, allocRepo
}

func seedRunner(t *testing.T, repo *memoryrepo.RunnerRepo, maxJobs int) *runner.Runner {
	t.Helper()
	r := &runner.Runner{
		Name:              "worker",
		Type:              runner.RunnerTypeDocker,
		BaseURL:           "http://worker:9000",
		Status:            runner.RunnerStatusActive,
		HealthStatus:      runner.HealthStatusHealthy,
		MaxConcurrentJobs: maxJobs,
	}
	require.NoError(t, repo.Create(context.Background(), r))
	return r
}

// TestTryAllocateCapacity 容量满后拒绝新分配，不产生写入
func TestTryAllocateCapacity(t *testing.T) {
	a, runnerRepo, _ := newTestAllocator(t)
	ctx := context.Background()
	r := seedRunner(t, runnerRepo, 1)

	ok, err := a.TryAllocate(ctx, r.ID, 100, 0, 0)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.TryAllocate(ctx, r.ID, 101, 0, 0)
	require.NoError(t, err)
	assert.False(t, ok)

	loaded, err := runnerRepo.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.CurrentJobs)
}

// TestTryAllocateDoubleAllocation 同一execution不允许持有两条开放分配
func TestTryAllocateDoubleAllocation(t *testing.T) {
	a, runnerRepo, _ := newTestAllocator(t)
	ctx := context.Background()
	r1 := seedRunner(t, runnerRepo, 5)
	r2 := seedRunner(t, runnerRepo, 5)

	ok, err := a.TryAllocate(ctx, r1.ID, 100, 0, 0)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = a.TryAllocate(ctx, r2.ID, 100, 0, 0)
	require.NoError(t, err)
	assert.False(t, ok)

	loaded, err := runnerRepo.GetByID(ctx, r2.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.CurrentJobs)
}

func TestTryAllocateInactiveRunner(t *testing.T) {
	a, runnerRepo, _ := newTestAllocator(t)
	ctx := context.Background()
	r := seedRunner(t, runnerRepo, 5)
	require.NoError(t, runnerRepo.Update(ctx, r.ID,
		(&runner.Runner{}).SetStatus(runner.RunnerStatusMaintenance).ExportPatch()))

	ok, err := a.TryAllocate(ctx, r.ID, 100, 0, 0)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTryAllocateUnknownRunner(t *testing.T) {
	a, _, _ := newTestAllocator(t)
	_, err := a.TryAllocate(context.Background(), 999, 100, 0, 0)
	assert.Error(t, err)
}

// TestReleaseIdempotent 重复释放是no-op，容量只回收一次
func TestReleaseIdempotent(t *testing.T) {
	a, runnerRepo, _ := newTestAllocator(t)
	ctx := context.Background()
	r := seedRunner(t, runnerRepo, 5)

	ok, err := a.TryAllocate(ctx, r.ID, 100, 0, 0)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, a.Release(ctx, 100))
	require.NoError(t, a.Release(ctx, 100))

	loaded, err := runnerRepo.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.CurrentJobs)
}

func TestReleaseExceeded(t *testing.T) {
	a, runnerRepo, allocRepo := newTestAllocator(t)
	ctx := context.Background()
	r := seedRunner(t, runnerRepo, 5)

	ok, err := a.TryAllocate(ctx, r.ID, 100, 0, 0)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, a.ReleaseExceeded(ctx, 100))

	open, err := allocRepo.GetOpenByExecution(ctx, 100)
	require.NoError(t, err)
	assert.Nil(t, open)
}

// TestCurrentLoad 默认资源量生效并按runner汇总
func TestCurrentLoad(t *testing.T) {
	a, runnerRepo, _ := newTestAllocator(t)
	ctx := context.Background()
	r := seedRunner(t, runnerRepo, 5)

	ok, err := a.TryAllocate(ctx, r.ID, 100, 0, 0)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = a.TryAllocate(ctx, r.ID, 101, 4.0, 8192)
	require.NoError(t, err)
	require.True(t, ok)

	load, err := a.CurrentLoad(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, load.Jobs)
	assert.Equal(t, 6.0, load.CPU)
	assert.Equal(t, 12288, load.MemoryMB)
}
