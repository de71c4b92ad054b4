package allocation

import (
	"context"

	"github.com/testops/orchestrator/internal/infra/persistence/commonrepo"
)

type Repo interface {
	commonrepo.Transaction
	Create(ctx context.Context, alloc *ResourceAllocation) error
	Save(ctx context.Context, alloc *ResourceAllocation) error

	// GetOpenByExecution 返回该execution当前的allocated记录，无则nil
	GetOpenByExecution(ctx context.Context, executionID uint64) (*ResourceAllocation, error)

	// ListOpenByRunner 返回runner上所有未关闭的分配
	ListOpenByRunner(ctx context.Context, runnerID uint64) ([]*ResourceAllocation, error)
}
