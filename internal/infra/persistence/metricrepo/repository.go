package metricrepo

import (
	"context"

	"github.com/google/wire"
	"github.com/samber/lo"
	domain "github.com/testops/orchestrator/internal/biz/metric"
	"github.com/testops/orchestrator/internal/infra/persistence/commonrepo"
)

var Provider = wire.NewSet(NewMysqlRepositoryImpl)

type MysqlRepositoryImpl struct {
	commonrepo.DefaultRepo
}

func NewMysqlRepositoryImpl(db commonrepo.DB) domain.Repo {
	return &MysqlRepositoryImpl{
		DefaultRepo: commonrepo.NewDefaultRepo(db),
	}
}

func (r *MysqlRepositoryImpl) Append(ctx context.Context, sample *domain.ExecutionMetric) error {
	po := new(ExecutionMetric).FromDomain(sample)
	return r.Db(ctx).Create(po).Error
}

func (r *MysqlRepositoryImpl) List(ctx context.Context, filter domain.ListFilter, limit int) ([]*domain.ExecutionMetric, error) {
	db := r.Db(ctx).Model(&ExecutionMetric{})
	if filter.ExecutionID.IsPresent() {
		db = db.Where("execution_id = ?", filter.ExecutionID.MustGet())
	}
	if filter.RunnerID.IsPresent() {
		db = db.Where("runner_id = ?", filter.RunnerID.MustGet())
	}
	if filter.Type.IsPresent() {
		db = db.Where("type = ?", filter.Type.MustGet())
	}
	var pos []*ExecutionMetric
	if err := db.Order("created_at DESC").Limit(limit).Find(&pos).Error; err != nil {
		return nil, err
	}
	return lo.Map(pos, func(po *ExecutionMetric, _ int) *domain.ExecutionMetric {
		return po.ToDomain()
	}), nil
}
