package memoryrepo

import (
	"context"
	"sync"
	"time"

	domain "github.com/testops/orchestrator/internal/biz/allocation"
)

type AllocationRepo struct {
	memTx
	mu     sync.Mutex
	allocs map[uint64]domain.ResourceAllocation
}

func NewAllocationRepo() *AllocationRepo {
	return &AllocationRepo{allocs: make(map[uint64]domain.ResourceAllocation)}
}

func (m *AllocationRepo) Create(_ context.Context, alloc *domain.ResourceAllocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if alloc.ID == 0 {
		alloc.ID = nextID()
	}
	alloc.CreatedAt = time.Now()
	m.allocs[alloc.ID] = *alloc
	return nil
}

func (m *AllocationRepo) Save(_ context.Context, alloc *domain.ResourceAllocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	alloc.UpdatedAt = time.Now()
	m.allocs[alloc.ID] = *alloc
	return nil
}

func (m *AllocationRepo) GetOpenByExecution(_ context.Context, executionID uint64) (*domain.ResourceAllocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range m.allocs {
		a := m.allocs[id]
		if a.ExecutionID == executionID && a.Status == domain.StatusAllocated {
			copied := a
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *AllocationRepo) ListOpenByRunner(_ context.Context, runnerID uint64) ([]*domain.ResourceAllocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.ResourceAllocation
	for id := range m.allocs {
		a := m.allocs[id]
		if a.RunnerID == runnerID && a.Status == domain.StatusAllocated {
			copied := a
			result = append(result, &copied)
		}
	}
	return result, nil
}
