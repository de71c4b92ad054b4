package schedule

import (
	"context"

	"github.com/testops/orchestrator/internal/infra/persistence/commonrepo"
)

type Repo interface {
	commonrepo.Transaction
	Create(ctx context.Context, schedule *RecurringSchedule) error
	GetByID(ctx context.Context, id uint64) (*RecurringSchedule, error)
	Save(ctx context.Context, schedule *RecurringSchedule) error
	Delete(ctx context.Context, id uint64) error
	FindActive(ctx context.Context) ([]*RecurringSchedule, error)
}
