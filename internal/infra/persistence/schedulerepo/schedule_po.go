package schedulerepo

import (
	runnerdomain "github.com/testops/orchestrator/internal/biz/runner"
	domain "github.com/testops/orchestrator/internal/biz/schedule"
	"github.com/testops/orchestrator/internal/infra/persistence/commonrepo"
)

type RecurringSchedule struct {
	commonrepo.Mode
	Name           string                  `gorm:"column:name;size:255;not null"`
	CronExpression string                  `gorm:"column:cron_expression;size:100;not null"`
	TestSuite      string                  `gorm:"column:test_suite;size:255;not null"`
	Environment    string                  `gorm:"column:environment;size:255;not null"`
	Priority       int                     `gorm:"column:priority;not null;default:50"`
	RunnerType     runnerdomain.RunnerType `gorm:"column:runner_type;size:50"`
	TotalShards    int                     `gorm:"column:total_shards;not null;default:0"`
	Active         bool                    `gorm:"column:active;not null;default:true;index"`
}

func (RecurringSchedule) TableName() string {
	return "orch_schedules"
}

func (po *RecurringSchedule) FromDomain(in *domain.RecurringSchedule) *RecurringSchedule {
	return &RecurringSchedule{
		Mode: commonrepo.Mode{
			ID:        in.ID,
			CreatedAt: in.CreatedAt,
			UpdatedAt: in.UpdatedAt,
		},
		Name:           in.Name,
		CronExpression: in.CronExpression,
		TestSuite:      in.TestSuite,
		Environment:    in.Environment,
		Priority:       in.Priority,
		RunnerType:     in.RunnerType,
		TotalShards:    in.TotalShards,
		Active:         in.Active,
	}
}

func (po *RecurringSchedule) ToDomain() *domain.RecurringSchedule {
	return &domain.RecurringSchedule{
		ID:             po.ID,
		CreatedAt:      po.CreatedAt,
		UpdatedAt:      po.UpdatedAt,
		Name:           po.Name,
		CronExpression: po.CronExpression,
		TestSuite:      po.TestSuite,
		Environment:    po.Environment,
		Priority:       po.Priority,
		RunnerType:     po.RunnerType,
		TotalShards:    po.TotalShards,
		Active:         po.Active,
	}
}
