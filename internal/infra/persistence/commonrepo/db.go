package commonrepo

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

// DB 仓储层实际用到的gorm方法子集。
// *gorm.DB天然满足该接口，事务内的tx亦然。
type DB interface {
	WithContext(ctx context.Context) *gorm.DB
	Transaction(fn func(tx *gorm.DB) error, opts ...*sql.TxOptions) error
	DB() (*sql.DB, error)

	// 查询入口，链式调用的后续方法在*gorm.DB上
	Model(value any) (tx *gorm.DB)
	First(dest any, conds ...any) (tx *gorm.DB)
	Where(query any, args ...any) (tx *gorm.DB)
	Offset(offset int) *gorm.DB

	// 写入
	Create(value any) (tx *gorm.DB)
	Save(value any) (tx *gorm.DB)
	Delete(value any, conds ...any) (tx *gorm.DB)
}
