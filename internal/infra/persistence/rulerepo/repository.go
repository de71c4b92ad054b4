package rulerepo

import (
	"context"
	"errors"

	"github.com/google/wire"
	"github.com/samber/lo"
	domain "github.com/testops/orchestrator/internal/biz/rule"
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

func (r *MysqlRepositoryImpl) Create(ctx context.Context, rule *domain.LoadBalancingRule) error {
	po := new(LoadBalancingRule).FromDomain(rule)
	if err := r.Db(ctx).Create(po).Error; err != nil {
		return err
	}
	rule.ID = po.ID
	return nil
}

func (r *MysqlRepositoryImpl) GetByID(ctx context.Context, id uint64) (*domain.LoadBalancingRule, error) {
	var po LoadBalancingRule
	if err := r.Db(ctx).First(&po, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return po.ToDomain(), nil
}

func (r *MysqlRepositoryImpl) Save(ctx context.Context, rule *domain.LoadBalancingRule) error {
	po := new(LoadBalancingRule).FromDomain(rule)
	return r.Db(ctx).Save(po).Error
}

func (r *MysqlRepositoryImpl) Delete(ctx context.Context, id uint64) error {
	return r.Db(ctx).Delete(&LoadBalancingRule{}, id).Error
}

func (r *MysqlRepositoryImpl) FindActive(ctx context.Context) ([]*domain.LoadBalancingRule, error) {
	var pos []*LoadBalancingRule
	if err := r.Db(ctx).
		Where("active = ?", true).
		Order("priority DESC, id ASC").
		Find(&pos).Error; err != nil {
		return nil, err
	}
	return lo.Map(pos, func(po *LoadBalancingRule, _ int) *domain.LoadBalancingRule {
		return po.ToDomain()
	}), nil
}

func (r *MysqlRepositoryImpl) List(ctx context.Context, offset, limit int) ([]*domain.LoadBalancingRule, error) {
	var pos []*LoadBalancingRule
	if err := r.Db(ctx).Offset(offset).Limit(limit).Order("id ASC").Find(&pos).Error; err != nil {
		return nil, err
	}
	return lo.Map(pos, func(po *LoadBalancingRule, _ int) *domain.LoadBalancingRule {
		return po.ToDomain()
	}), nil
}
