package runner

import (
	"context"

	"github.com/samber/mo"
	"github.com/testops/orchestrator/internal/infra/persistence/commonrepo"
)

type ListFilter struct {
	Status mo.Option[RunnerStatus]
	Type   mo.Option[RunnerType]
	Health mo.Option[HealthStatus]
}

type Repo interface {
	commonrepo.Transaction
	GetByID(ctx context.Context, id uint64) (*Runner, error)
	Create(ctx context.Context, runner *Runner) error
	Save(ctx context.Context, runner *Runner) error
	Update(ctx context.Context, id uint64, patch *RunnerPatch) error
	Delete(ctx context.Context, id uint64) error

	// List 按优先级降序、注册顺序（ID升序）返回
	List(ctx context.Context, filter ListFilter) ([]*Runner, error)

	// AdjustJobCount 原子地调整当前任务数，delta为±1
	AdjustJobCount(ctx context.Context, id uint64, delta int) error

	AppendHealthHistory(ctx context.Context, record *HealthHistory) error
	ListHealthHistory(ctx context.Context, runnerID uint64, limit int) ([]*HealthHistory, error)
}
