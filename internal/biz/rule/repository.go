package rule

import (
	"context"

	"github.com/testops/orchestrator/internal/infra/persistence/commonrepo"
)

type Repo interface {
	commonrepo.Transaction
	Create(ctx context.Context, rule *LoadBalancingRule) error
	GetByID(ctx context.Context, id uint64) (*LoadBalancingRule, error)
	Save(ctx context.Context, rule *LoadBalancingRule) error
	Delete(ctx context.Context, id uint64) error

	// FindActive 按rule priority降序返回active规则
	FindActive(ctx context.Context) ([]*LoadBalancingRule, error)
	List(ctx context.Context, offset, limit int) ([]*LoadBalancingRule, error)
}
