package schedulerepo

import (
	"context"
	"errors"

	"github.com/google/wire"
	"github.com/samber/lo"
	domain "github.com/testops/orchestrator/internal/biz/schedule"
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

func (r *MysqlRepositoryImpl) Create(ctx context.Context, schedule *domain.RecurringSchedule) error {
	po := new(RecurringSchedule).FromDomain(schedule)
	if err := r.Db(ctx).Create(po).Error; err != nil {
		return err
	}
	schedule.ID = po.ID
	return nil
}

func (r *MysqlRepositoryImpl) GetByID(ctx context.Context, id uint64) (*domain.RecurringSchedule, error) {
	var po RecurringSchedule
	if err := r.Db(ctx).First(&po, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return po.ToDomain(), nil
}

func (r *MysqlRepositoryImpl) Save(ctx context.Context, schedule *domain.RecurringSchedule) error {
	po := new(RecurringSchedule).FromDomain(schedule)
	return r.Db(ctx).Save(po).Error
}

func (r *MysqlRepositoryImpl) Delete(ctx context.Context, id uint64) error {
	return r.Db(ctx).Delete(&RecurringSchedule{}, id).Error
}

func (r *MysqlRepositoryImpl) FindActive(ctx context.Context) ([]*domain.RecurringSchedule, error) {
	var pos []*RecurringSchedule
	if err := r.Db(ctx).Where("active = ?", true).Find(&pos).Error; err != nil {
		return nil, err
	}
	return lo.Map(pos, func(po *RecurringSchedule, _ int) *domain.RecurringSchedule {
		return po.ToDomain()
	}), nil
}
