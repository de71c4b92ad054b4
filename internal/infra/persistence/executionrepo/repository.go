package executionrepo

import (
	"context"
	"errors"
	"time"

	"github.com/google/wire"
	"github.com/samber/lo"
	domain "github.com/testops/orchestrator/internal/biz/execution"
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

func (r *MysqlRepositoryImpl) Create(ctx context.Context, item *domain.QueueItem) error {
	po := new(QueueItem).FromDomain(item)
	if err := r.Db(ctx).Create(po).Error; err != nil {
		return err
	}
	item.ID = po.ID
	item.CreatedAt = po.CreatedAt
	return nil
}

func (r *MysqlRepositoryImpl) GetByID(ctx context.Context, id uint64) (*domain.QueueItem, error) {
	var po QueueItem
	if err := r.Db(ctx).First(&po, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return po.ToDomain(), nil
}

func (r *MysqlRepositoryImpl) Save(ctx context.Context, item *domain.QueueItem) error {
	po := new(QueueItem).FromDomain(item)
	return r.Db(ctx).Save(po).Error
}

func (r *MysqlRepositoryImpl) SaveFrom(ctx context.Context, item *domain.QueueItem, from domain.Status) (bool, error) {
	po := new(QueueItem).FromDomain(item)
	// WHERE status=from 是乐观守卫，0行命中表示状态已被并发修改
	tx := r.Db(ctx).Model(&QueueItem{}).
		Where("id = ? AND status = ?", po.ID, from).
		Select("*").Omit("id", "created_at").
		Updates(po)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *MysqlRepositoryImpl) Delete(ctx context.Context, id uint64) error {
	return r.Db(ctx).Delete(&QueueItem{}, id).Error
}

func (r *MysqlRepositoryImpl) FetchQueuedBatch(ctx context.Context, limit int) ([]*domain.QueueItem, error) {
	var pos []*QueueItem
	// priority降序、创建时间升序是调度公平性契约
	if err := r.Db(ctx).
		Where("status = ?", domain.StatusQueued).
		Where("total_shards = 0 OR parent_id IS NOT NULL"). // fan-out父项不直接调度
		Order("priority DESC, created_at ASC, id ASC").
		Limit(limit).
		Find(&pos).Error; err != nil {
		return nil, err
	}
	return lo.Map(pos, func(po *QueueItem, _ int) *domain.QueueItem {
		return po.ToDomain()
	}), nil
}

func (r *MysqlRepositoryImpl) FindExpired(ctx context.Context, nowUnix int64) ([]*domain.QueueItem, error) {
	var pos []*QueueItem
	if err := r.Db(ctx).
		Where("status IN (?)", []domain.Status{domain.StatusAssigned, domain.StatusRunning}).
		Where("timeout_at IS NOT NULL AND timeout_at < ?", time.Unix(nowUnix, 0)).
		Find(&pos).Error; err != nil {
		return nil, err
	}
	return lo.Map(pos, func(po *QueueItem, _ int) *domain.QueueItem {
		return po.ToDomain()
	}), nil
}

func (r *MysqlRepositoryImpl) ListByParent(ctx context.Context, parentID uint64) ([]*domain.QueueItem, error) {
	var pos []*QueueItem
	if err := r.Db(ctx).
		Where("parent_id = ?", parentID).
		Order("shard_index ASC").
		Find(&pos).Error; err != nil {
		return nil, err
	}
	return lo.Map(pos, func(po *QueueItem, _ int) *domain.QueueItem {
		return po.ToDomain()
	}), nil
}

func (r *MysqlRepositoryImpl) List(ctx context.Context, filter domain.ListFilter, offset, limit int) ([]*domain.QueueItem, int64, error) {
	db := r.Db(ctx).Model(&QueueItem{})

	if filter.Status.IsPresent() {
		db = db.Where("status = ?", filter.Status.MustGet())
	}
	if filter.TestSuite.IsPresent() {
		db = db.Where("test_suite = ?", filter.TestSuite.MustGet())
	}
	if filter.Environment.IsPresent() {
		db = db.Where("environment = ?", filter.Environment.MustGet())
	}
	if filter.ParentID.IsPresent() {
		db = db.Where("parent_id = ?", filter.ParentID.MustGet())
	}
	if filter.Since.IsPresent() {
		db = db.Where("created_at >= ?", time.Unix(filter.Since.MustGet(), 0))
	}
	if filter.Until.IsPresent() {
		db = db.Where("created_at <= ?", time.Unix(filter.Until.MustGet(), 0))
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var pos []*QueueItem
	if err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&pos).Error; err != nil {
		return nil, 0, err
	}
	items := lo.Map(pos, func(po *QueueItem, _ int) *domain.QueueItem {
		return po.ToDomain()
	})
	return items, total, nil
}

func (r *MysqlRepositoryImpl) CountByStatus(ctx context.Context) (map[domain.Status]int64, error) {
	type row struct {
		Status domain.Status
		Count  int64
	}
	var rows []row
	if err := r.Db(ctx).Model(&QueueItem{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make(map[domain.Status]int64, len(rows))
	for _, rw := range rows {
		result[rw.Status] = rw.Count
	}
	return result, nil
}
