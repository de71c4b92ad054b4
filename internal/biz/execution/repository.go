package execution

import (
	"context"

	"github.com/samber/mo"
	"github.com/testops/orchestrator/internal/infra/persistence/commonrepo"
)

type ListFilter struct {
	Status      mo.Option[Status]
	TestSuite   mo.Option[string]
	Environment mo.Option[string]
	ParentID    mo.Option[uint64]
	Since       mo.Option[int64]
	Until       mo.Option[int64]
}

type Repo interface {
	commonrepo.Transaction
	Create(ctx context.Context, item *QueueItem) error
	GetByID(ctx context.Context, id uint64) (*QueueItem, error)
	Save(ctx context.Context, item *QueueItem) error

	// SaveFrom 条件保存: 仅当数据库中该行仍处于from状态时写入，
	// 返回是否命中。调度循环用它防止覆盖并发到达的终态。
	SaveFrom(ctx context.Context, item *QueueItem, from Status) (bool, error)

	Delete(ctx context.Context, id uint64) error

	// FetchQueuedBatch 按优先级降序、创建时间升序返回queued项。
	// 该顺序是公平性契约，调度循环依赖它。
	FetchQueuedBatch(ctx context.Context, limit int) ([]*QueueItem, error)

	// FindExpired 返回截止时间早于now的assigned/running项
	FindExpired(ctx context.Context, nowUnix int64) ([]*QueueItem, error)

	ListByParent(ctx context.Context, parentID uint64) ([]*QueueItem, error)
	List(ctx context.Context, filter ListFilter, offset, limit int) ([]*QueueItem, int64, error)
	CountByStatus(ctx context.Context) (map[Status]int64, error)
}
