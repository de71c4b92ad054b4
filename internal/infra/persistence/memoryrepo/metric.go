package memoryrepo

import (
	"context"
	"sync"
	"time"

	domain "github.com/testops/orchestrator/internal/biz/metric"
)

type MetricRepo struct {
	memTx
	mu      sync.Mutex
	samples []domain.ExecutionMetric
}

func NewMetricRepo() *MetricRepo {
	return &MetricRepo{}
}

func (m *MetricRepo) Append(_ context.Context, sample *domain.ExecutionMetric) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sample.ID == 0 {
		sample.ID = nextID()
	}
	if sample.CreatedAt.IsZero() {
		sample.CreatedAt = time.Now()
	}
	m.samples = append(m.samples, *sample)
	return nil
}

func (m *MetricRepo) List(_ context.Context, filter domain.ListFilter, limit int) ([]*domain.ExecutionMetric, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.ExecutionMetric
	for i := len(m.samples) - 1; i >= 0 && (limit <= 0 || len(result) < limit); i-- {
		s := m.samples[i]
		if filter.ExecutionID.IsPresent() && s.ExecutionID != filter.ExecutionID.MustGet() {
			continue
		}
		if filter.RunnerID.IsPresent() && (s.RunnerID == nil || *s.RunnerID != filter.RunnerID.MustGet()) {
			continue
		}
		if filter.Type.IsPresent() && s.Type != filter.Type.MustGet() {
			continue
		}
		copied := s
		result = append(result, &copied)
	}
	return result, nil
}
