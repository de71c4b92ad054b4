package commonrepo

import (
	"context"

	"gorm.io/gorm"
)

// Transaction 业务层事务边界。fn内通过同一ctx取到的仓储操作
// 都落在同一个数据库事务里。
type Transaction interface {
	Execute(ctx context.Context, fn func(ctx context.Context) error) error
}

// txKey 事务句柄在context中的键
type txKey struct{}

// DefaultRepo 各仓储实现的公共底座，负责事务传播。
type DefaultRepo struct {
	db DB
}

func NewDefaultRepo(db DB) DefaultRepo {
	return DefaultRepo{db: db}
}

// Db 返回当前ctx对应的数据库句柄：在Execute内拿到事务tx，否则拿到根连接。
func (r *DefaultRepo) Db(ctx context.Context) DB {
	if tx, ok := ctx.Value(txKey{}).(DB); ok {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

func (r *DefaultRepo) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.Db(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}
