package memoryrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	domain "github.com/testops/orchestrator/internal/biz/runner"
)

type RunnerRepo struct {
	memTx
	mu      sync.Mutex
	runners map[uint64]domain.Runner
	order   []uint64 // 注册顺序
	history []domain.HealthHistory
}

func NewRunnerRepo() *RunnerRepo {
	return &RunnerRepo{
		runners: make(map[uint64]domain.Runner),
	}
}

func (m *RunnerRepo) Create(_ context.Context, r *domain.Runner) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == 0 {
		r.ID = nextID()
	}
	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now
	m.runners[r.ID] = *r
	m.order = append(m.order, r.ID)
	return nil
}

func (m *RunnerRepo) Save(_ context.Context, r *domain.Runner) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.UpdatedAt = time.Now()
	m.runners[r.ID] = *r
	return nil
}

func (m *RunnerRepo) Update(_ context.Context, id uint64, patch *domain.RunnerPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runners[id]
	if !ok {
		return nil
	}
	if patch.Name != nil {
		r.Name = *patch.Name
	}
	if patch.BaseURL != nil {
		r.BaseURL = *patch.BaseURL
	}
	if patch.WebhookURL != nil {
		r.WebhookURL = *patch.WebhookURL
	}
	if patch.HealthCheckURL != nil {
		r.HealthCheckURL = *patch.HealthCheckURL
	}
	if patch.Status != nil {
		r.Status = *patch.Status
	}
	if patch.Capabilities != nil {
		r.Capabilities = *patch.Capabilities
	}
	if patch.MaxConcurrentJobs != nil {
		r.MaxConcurrentJobs = *patch.MaxConcurrentJobs
	}
	if patch.CurrentJobs != nil {
		r.CurrentJobs = *patch.CurrentJobs
	}
	if patch.Priority != nil {
		r.Priority = *patch.Priority
	}
	if patch.LastHealthCheck != nil {
		r.LastHealthCheck = patch.LastHealthCheck
	}
	if patch.HealthStatus != nil {
		r.HealthStatus = *patch.HealthStatus
	}
	r.UpdatedAt = time.Now()
	m.runners[id] = r
	return nil
}

func (m *RunnerRepo) Delete(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.runners, id)
	return nil
}

func (m *RunnerRepo) GetByID(_ context.Context, id uint64) (*domain.Runner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runners[id]
	if !ok {
		return nil, nil
	}
	copied := r
	return &copied, nil
}

func (m *RunnerRepo) List(_ context.Context, filter domain.ListFilter) ([]*domain.Runner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]*domain.Runner, 0, len(m.runners))
	for _, id := range m.order {
		r, ok := m.runners[id]
		if !ok {
			continue
		}
		if filter.Status.IsPresent() && r.Status != filter.Status.MustGet() {
			continue
		}
		if filter.Type.IsPresent() && r.Type != filter.Type.MustGet() {
			continue
		}
		if filter.Health.IsPresent() && r.HealthStatus != filter.Health.MustGet() {
			continue
		}
		copied := r
		result = append(result, &copied)
	}
	// priority降序，注册顺序(ID升序)打破平局
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Priority != result[j].Priority {
			return result[i].Priority > result[j].Priority
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (m *RunnerRepo) AdjustJobCount(_ context.Context, id uint64, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runners[id]
	if !ok {
		return nil
	}
	r.CurrentJobs += delta
	if r.CurrentJobs < 0 {
		r.CurrentJobs = 0
	}
	m.runners[id] = r
	return nil
}

func (m *RunnerRepo) AppendHealthHistory(_ context.Context, record *domain.HealthHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if record.ID == 0 {
		record.ID = nextID()
	}
	m.history = append(m.history, *record)
	return nil
}

func (m *RunnerRepo) ListHealthHistory(_ context.Context, runnerID uint64, limit int) ([]*domain.HealthHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.HealthHistory
	for i := len(m.history) - 1; i >= 0 && (limit <= 0 || len(result) < limit); i-- {
		if m.history[i].RunnerID != runnerID {
			continue
		}
		copied := m.history[i]
		result = append(result, &copied)
	}
	return result, nil
}
