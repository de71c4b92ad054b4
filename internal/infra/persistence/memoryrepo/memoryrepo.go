// Package memoryrepo 提供biz仓储接口的内存实现，
// 供单元测试与无数据库的嵌入式运行使用。
package memoryrepo

import (
	"context"
	"sync/atomic"
)

var idSeq atomic.Uint64

// nextID 进程内单调递增id，替代雪花id
func nextID() uint64 {
	return idSeq.Add(1)
}

// memTx 内存实现没有事务语义，直接执行
type memTx struct{}

func (memTx) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
