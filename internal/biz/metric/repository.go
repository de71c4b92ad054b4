package metric

import (
	"context"

	"github.com/samber/mo"
	"github.com/testops/orchestrator/internal/infra/persistence/commonrepo"
)

type ListFilter struct {
	ExecutionID mo.Option[uint64]
	RunnerID    mo.Option[uint64]
	Type        mo.Option[MetricType]
}

type Repo interface {
	commonrepo.Transaction
	Append(ctx context.Context, sample *ExecutionMetric) error
	List(ctx context.Context, filter ListFilter, limit int) ([]*ExecutionMetric, error)
}
