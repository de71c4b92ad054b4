package rulerepo

import (
	domain "github.com/testops/orchestrator/internal/biz/rule"
	runnerdomain "github.com/testops/orchestrator/internal/biz/runner"
	"github.com/testops/orchestrator/internal/infra/persistence/commonrepo"
	"gorm.io/datatypes"
)

type LoadBalancingRule struct {
	commonrepo.Mode
	Name             string                  `gorm:"column:name;size:255;not null"`
	Type             domain.RuleType         `gorm:"column:type;size:50;not null"`
	TestSuitePattern string                  `gorm:"column:test_suite_pattern;size:255"`
	EnvPattern       string                  `gorm:"column:env_pattern;size:255"`
	RunnerTypeFilter runnerdomain.RunnerType `gorm:"column:runner_type_filter;size:50"`
	Priority         int                     `gorm:"column:priority;not null;default:0;index"`
	Active           bool                    `gorm:"column:active;not null;default:true;index"`
	Config           datatypes.JSONMap       `gorm:"column:config;type:json"`
}

func (LoadBalancingRule) TableName() string {
	return "orch_lb_rules"
}

func (po *LoadBalancingRule) FromDomain(in *domain.LoadBalancingRule) *LoadBalancingRule {
	return &LoadBalancingRule{
		Mode: commonrepo.Mode{
			ID:        in.ID,
			CreatedAt: in.CreatedAt,
			UpdatedAt: in.UpdatedAt,
		},
		Name:             in.Name,
		Type:             in.Type,
		TestSuitePattern: in.TestSuitePattern,
		EnvPattern:       in.EnvPattern,
		RunnerTypeFilter: in.RunnerTypeFilter,
		Priority:         in.Priority,
		Active:           in.Active,
		Config:           in.Config,
	}
}

func (po *LoadBalancingRule) ToDomain() *domain.LoadBalancingRule {
	return &domain.LoadBalancingRule{
		ID:               po.ID,
		CreatedAt:        po.CreatedAt,
		UpdatedAt:        po.UpdatedAt,
		Name:             po.Name,
		Type:             po.Type,
		TestSuitePattern: po.TestSuitePattern,
		EnvPattern:       po.EnvPattern,
		RunnerTypeFilter: po.RunnerTypeFilter,
		Priority:         po.Priority,
		Active:           po.Active,
		Config:           po.Config,
	}
}
