package allocation

import "time"

type AllocationStatus string

const (
	StatusAllocated AllocationStatus = "allocated"
	StatusReleased  AllocationStatus = "released"
	// StatusExceeded 超时回收关闭的分配
	StatusExceeded AllocationStatus = "exceeded"
)

// ResourceAllocation 每个(runner, execution)占用容量期间的一条记录。
// 不变量: 同一execution同时最多存在一条allocated记录。
type ResourceAllocation struct {
	ID        uint64
	CreatedAt time.Time
	UpdatedAt time.Time

	RunnerID    uint64
	ExecutionID uint64
	AllocatedAt time.Time
	ReleasedAt  *time.Time
	CPU         float64
	MemoryMB    int
	Status      AllocationStatus
}

// Close 关闭分配记录
func (a *ResourceAllocation) Close(status AllocationStatus) *ResourceAllocation {
	now := time.Now()
	a.Status = status
	a.ReleasedAt = &now
	return a
}
