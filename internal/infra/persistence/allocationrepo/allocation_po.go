package allocationrepo

import (
	"time"

	domain "github.com/testops/orchestrator/internal/biz/allocation"
	"github.com/testops/orchestrator/internal/infra/persistence/commonrepo"
)

type ResourceAllocation struct {
	commonrepo.Mode
	RunnerID    uint64                  `gorm:"column:runner_id;not null;index:idx_runner_status"`
	ExecutionID uint64                  `gorm:"column:execution_id;not null;index:idx_exec_status"`
	AllocatedAt time.Time               `gorm:"column:allocated_at;not null"`
	ReleasedAt  *time.Time              `gorm:"column:released_at"`
	CPU         float64                 `gorm:"column:cpu;not null"`
	MemoryMB    int                     `gorm:"column:memory_mb;not null"`
	Status      domain.AllocationStatus `gorm:"column:status;size:50;not null;index:idx_runner_status;index:idx_exec_status"`
}

func (ResourceAllocation) TableName() string {
	return "orch_allocations"
}

func (po *ResourceAllocation) FromDomain(in *domain.ResourceAllocation) *ResourceAllocation {
	return &ResourceAllocation{
		Mode: commonrepo.Mode{
			ID:        in.ID,
			CreatedAt: in.CreatedAt,
			UpdatedAt: in.UpdatedAt,
		},
		RunnerID:    in.RunnerID,
		ExecutionID: in.ExecutionID,
		AllocatedAt: in.AllocatedAt,
		ReleasedAt:  in.ReleasedAt,
		CPU:         in.CPU,
		MemoryMB:    in.MemoryMB,
		Status:      in.Status,
	}
}

func (po *ResourceAllocation) ToDomain() *domain.ResourceAllocation {
	return &domain.ResourceAllocation{
		ID:          po.ID,
		CreatedAt:   po.CreatedAt,
		UpdatedAt:   po.UpdatedAt,
		RunnerID:    po.RunnerID,
		ExecutionID: po.ExecutionID,
		AllocatedAt: po.AllocatedAt,
		ReleasedAt:  po.ReleasedAt,
		CPU:         po.CPU,
		MemoryMB:    po.MemoryMB,
		Status:      po.Status,
	}
}
