package memoryrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	domain "github.com/testops/orchestrator/internal/biz/execution"
)

type ExecutionRepo struct {
	memTx
	mu    sync.Mutex
	items map[uint64]domain.QueueItem
	seq   int64 // 入队顺序，同优先级FIFO的平局依据
	seqOf map[uint64]int64
}

func NewExecutionRepo() *ExecutionRepo {
	return &ExecutionRepo{
		items: make(map[uint64]domain.QueueItem),
		seqOf: make(map[uint64]int64),
	}
}

func (m *ExecutionRepo) Create(_ context.Context, item *domain.QueueItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if item.ID == 0 {
		item.ID = nextID()
	}
	now := time.Now()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	m.seq++
	m.seqOf[item.ID] = m.seq
	m.items[item.ID] = *item
	return nil
}

func (m *ExecutionRepo) GetByID(_ context.Context, id uint64) (*domain.QueueItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	copied := item
	return &copied, nil
}

func (m *ExecutionRepo) Save(_ context.Context, item *domain.QueueItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item.UpdatedAt = time.Now()
	m.items[item.ID] = *item
	return nil
}

func (m *ExecutionRepo) SaveFrom(_ context.Context, item *domain.QueueItem, from domain.Status) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.items[item.ID]
	if !ok || stored.Status != from {
		return false, nil
	}
	item.UpdatedAt = time.Now()
	m.items[item.ID] = *item
	return true, nil
}

func (m *ExecutionRepo) Delete(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	delete(m.seqOf, id)
	return nil
}

func (m *ExecutionRepo) FetchQueuedBatch(_ context.Context, limit int) ([]*domain.QueueItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var queued []*domain.QueueItem
	for id := range m.items {
		item := m.items[id]
		if item.Status != domain.StatusQueued {
			continue
		}
		if item.IsFanOutParent() {
			continue
		}
		copied := item
		queued = append(queued, &copied)
	}
	sort.SliceStable(queued, func(i, j int) bool {
		if queued[i].Priority != queued[j].Priority {
			return queued[i].Priority > queued[j].Priority
		}
		return m.seqOf[queued[i].ID] < m.seqOf[queued[j].ID]
	})
	if limit > 0 && len(queued) > limit {
		queued = queued[:limit]
	}
	return queued, nil
}

func (m *ExecutionRepo) FindExpired(_ context.Context, nowUnix int64) ([]*domain.QueueItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Unix(nowUnix, 0)
	var expired []*domain.QueueItem
	for id := range m.items {
		item := m.items[id]
		if item.Status != domain.StatusAssigned && item.Status != domain.StatusRunning {
			continue
		}
		if item.TimeoutAt == nil || !now.After(*item.TimeoutAt) {
			continue
		}
		copied := item
		expired = append(expired, &copied)
	}
	return expired, nil
}

func (m *ExecutionRepo) ListByParent(_ context.Context, parentID uint64) ([]*domain.QueueItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var shards []*domain.QueueItem
	for id := range m.items {
		item := m.items[id]
		if item.ParentID == nil || *item.ParentID != parentID {
			continue
		}
		copied := item
		shards = append(shards, &copied)
	}
	sort.Slice(shards, func(i, j int) bool {
		return shards[i].ShardIndex < shards[j].ShardIndex
	})
	return shards, nil
}

func (m *ExecutionRepo) List(_ context.Context, filter domain.ListFilter, offset, limit int) ([]*domain.QueueItem, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*domain.QueueItem
	for id := range m.items {
		item := m.items[id]
		if filter.Status.IsPresent() && item.Status != filter.Status.MustGet() {
			continue
		}
		if filter.TestSuite.IsPresent() && item.TestSuite != filter.TestSuite.MustGet() {
			continue
		}
		if filter.Environment.IsPresent() && item.Environment != filter.Environment.MustGet() {
			continue
		}
		if filter.ParentID.IsPresent() && (item.ParentID == nil || *item.ParentID != filter.ParentID.MustGet()) {
			continue
		}
		if filter.Since.IsPresent() && item.CreatedAt.Unix() < filter.Since.MustGet() {
			continue
		}
		if filter.Until.IsPresent() && item.CreatedAt.Unix() > filter.Until.MustGet() {
			continue
		}
		copied := item
		matched = append(matched, &copied)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	total := int64(len(matched))
	if offset > len(matched) {
		return nil, total, nil
	}
	matched = matched[offset:]
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (m *ExecutionRepo) CountByStatus(_ context.Context) (map[domain.Status]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make(map[domain.Status]int64)
	for _, item := range m.items {
		result[item.Status]++
	}
	return result, nil
}
