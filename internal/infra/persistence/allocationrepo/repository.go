package allocationrepo

import (
	"context"
	"errors"

	"github.com/google/wire"
	"github.com/samber/lo"
	domain "github.com/testops/orchestrator/internal/biz/allocation"
	"github.com/testops/orchestrator/internal/infra/persistence/commonrepo"
	"gorm.io/gorm"
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

func (r *MysqlRepositoryImpl) Create(ctx context.Context, alloc *domain.ResourceAllocation) error {
	po := new(ResourceAllocation).FromDomain(alloc)
	if err := r.Db(ctx).Create(po).Error; err != nil {
		return err
	}
	alloc.ID = po.ID
	return nil
}

func (r *MysqlRepositoryImpl) Save(ctx context.Context, alloc *domain.ResourceAllocation) error {
	po := new(ResourceAllocation).FromDomain(alloc)
	return r.Db(ctx).Save(po).Error
}

func (r *MysqlRepositoryImpl) GetOpenByExecution(ctx context.Context, executionID uint64) (*domain.ResourceAllocation, error) {
	var po ResourceAllocation
	if err := r.Db(ctx).
		Where("execution_id = ? AND status = ?", executionID, domain.StatusAllocated).
		First(&po).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return po.ToDomain(), nil
}

func (r *MysqlRepositoryImpl) ListOpenByRunner(ctx context.Context, runnerID uint64) ([]*domain.ResourceAllocation, error) {
	var pos []*ResourceAllocation
	if err := r.Db(ctx).
		Where("runner_id = ? AND status = ?", runnerID, domain.StatusAllocated).
		Find(&pos).Error; err != nil {
		return nil, err
	}
	return lo.Map(pos, func(po *ResourceAllocation, _ int) *domain.ResourceAllocation {
		return po.ToDomain()
	}), nil
}
