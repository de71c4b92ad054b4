package runnerrepo

import (
	"context"
	"errors"

	"github.com/google/wire"
	"github.com/samber/lo"
	domain "github.com/testops/orchestrator/internal/biz/runner"
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

func (m *MysqlRepositoryImpl) Create(ctx context.Context, runner *domain.Runner) error {
	po := new(Runner).FromDomain(runner)
	return m.Db(ctx).Create(po).Error
}

func (m *MysqlRepositoryImpl) Save(ctx context.Context, runner *domain.Runner) error {
	po := new(Runner).FromDomain(runner)
	return m.Db(ctx).Save(po).Error
}

func (m *MysqlRepositoryImpl) Delete(ctx context.Context, id uint64) error {
	return m.Db(ctx).Delete(&Runner{}, id).Error
}

func (m *MysqlRepositoryImpl) GetByID(ctx context.Context, id uint64) (*domain.Runner, error) {
	var po Runner
	if err := m.Db(ctx).First(&po, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return po.ToDomain(), nil
}

func (m *MysqlRepositoryImpl) Update(ctx context.Context, id uint64, patch *domain.RunnerPatch) error {
	values := patchToMap(patch)
	if len(values) == 0 {
		return nil
	}
	return m.Db(ctx).Model(&Runner{}).Where("id = ?", id).Updates(values).Error
}

func (m *MysqlRepositoryImpl) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Runner, error) {
	tx := m.Db(ctx).Model(&Runner{})
	if filter.Status.IsPresent() {
		tx = tx.Where("status = ?", filter.Status.MustGet())
	}
	if filter.Type.IsPresent() {
		tx = tx.Where("type = ?", filter.Type.MustGet())
	}
	if filter.Health.IsPresent() {
		tx = tx.Where("health_status = ?", filter.Health.MustGet())
	}
	var pos []*Runner
	// priority降序，ID升序即注册顺序，保证确定性
	if err := tx.Order("priority DESC, id ASC").Find(&pos).Error; err != nil {
		return nil, err
	}
	return lo.Map(pos, func(po *Runner, _ int) *domain.Runner {
		return po.ToDomain()
	}), nil
}

func (m *MysqlRepositoryImpl) AdjustJobCount(ctx context.Context, id uint64, delta int) error {
	return m.Db(ctx).Model(&Runner{}).
		Where("id = ?", id).
		Update("current_jobs", gorm.Expr("GREATEST(current_jobs + ?, 0)", delta)).Error
}

func (m *MysqlRepositoryImpl) AppendHealthHistory(ctx context.Context, record *domain.HealthHistory) error {
	po := new(HealthHistory).FromDomain(record)
	return m.Db(ctx).Create(po).Error
}

func (m *MysqlRepositoryImpl) ListHealthHistory(ctx context.Context, runnerID uint64, limit int) ([]*domain.HealthHistory, error) {
	var pos []*HealthHistory
	if err := m.Db(ctx).Where("runner_id = ?", runnerID).
		Order("checked_at DESC").Limit(limit).Find(&pos).Error; err != nil {
		return nil, err
	}
	return lo.Map(pos, func(po *HealthHistory, _ int) *domain.HealthHistory {
		return po.ToDomain()
	}), nil
}
