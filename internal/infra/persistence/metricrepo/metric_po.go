package metricrepo

import (
	domain "github.com/testops/orchestrator/internal/biz/metric"
	"github.com/testops/orchestrator/internal/infra/persistence/commonrepo"
	"gorm.io/datatypes"
)

type ExecutionMetric struct {
	commonrepo.Mode
	ExecutionID uint64            `gorm:"column:execution_id;not null;index"`
	RunnerID    *uint64           `gorm:"column:runner_id;index"`
	Type        domain.MetricType `gorm:"column:type;size:50;not null;index"`
	Value       float64           `gorm:"column:value;not null"`
	Unit        string            `gorm:"column:unit;size:20;not null"`
	Metadata    datatypes.JSONMap `gorm:"column:metadata;type:json"`
}

func (ExecutionMetric) TableName() string {
	return "orch_execution_metrics"
}

func (po *ExecutionMetric) FromDomain(in *domain.ExecutionMetric) *ExecutionMetric {
	return &ExecutionMetric{
		Mode:        commonrepo.Mode{ID: in.ID, CreatedAt: in.CreatedAt},
		ExecutionID: in.ExecutionID,
		RunnerID:    in.RunnerID,
		Type:        in.Type,
		Value:       in.Value,
		Unit:        in.Unit,
		Metadata:    in.Metadata,
	}
}

func (po *ExecutionMetric) ToDomain() *domain.ExecutionMetric {
	return &domain.ExecutionMetric{
		ID:          po.ID,
		CreatedAt:   po.CreatedAt,
		ExecutionID: po.ExecutionID,
		RunnerID:    po.RunnerID,
		Type:        po.Type,
		Value:       po.Value,
		Unit:        po.Unit,
		Metadata:    po.Metadata,
	}
}
