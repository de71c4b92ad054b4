package memoryrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	domain "github.com/testops/orchestrator/internal/biz/schedule"
)

type ScheduleRepo struct {
	memTx
	mu        sync.Mutex
	schedules map[uint64]domain.RecurringSchedule
}

func NewScheduleRepo() *ScheduleRepo {
	return &ScheduleRepo{schedules: make(map[uint64]domain.RecurringSchedule)}
}

func (m *ScheduleRepo) Create(_ context.Context, schedule *domain.RecurringSchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if schedule.ID == 0 {
		schedule.ID = nextID()
	}
	schedule.CreatedAt = time.Now()
	m.schedules[schedule.ID] = *schedule
	return nil
}

func (m *ScheduleRepo) GetByID(_ context.Context, id uint64) (*domain.RecurringSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedules[id]
	if !ok {
		return nil, nil
	}
	copied := s
	return &copied, nil
}

func (m *ScheduleRepo) Save(_ context.Context, schedule *domain.RecurringSchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	schedule.UpdatedAt = time.Now()
	m.schedules[schedule.ID] = *schedule
	return nil
}

func (m *ScheduleRepo) Delete(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.schedules, id)
	return nil
}

func (m *ScheduleRepo) FindActive(_ context.Context) ([]*domain.RecurringSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.RecurringSchedule
	for id := range m.schedules {
		s := m.schedules[id]
		if !s.Active {
			continue
		}
		copied := s
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}
