package memoryrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	domain "github.com/testops/orchestrator/internal/biz/rule"
)

type RuleRepo struct {
	memTx
	mu    sync.Mutex
	rules map[uint64]domain.LoadBalancingRule
}

func NewRuleRepo() *RuleRepo {
	return &RuleRepo{rules: make(map[uint64]domain.LoadBalancingRule)}
}

func (m *RuleRepo) Create(_ context.Context, rule *domain.LoadBalancingRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rule.ID == 0 {
		rule.ID = nextID()
	}
	rule.CreatedAt = time.Now()
	m.rules[rule.ID] = *rule
	return nil
}

func (m *RuleRepo) GetByID(_ context.Context, id uint64) (*domain.LoadBalancingRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rule, ok := m.rules[id]
	if !ok {
		return nil, nil
	}
	copied := rule
	return &copied, nil
}

func (m *RuleRepo) Save(_ context.Context, rule *domain.LoadBalancingRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rule.UpdatedAt = time.Now()
	m.rules[rule.ID] = *rule
	return nil
}

func (m *RuleRepo) Delete(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rules, id)
	return nil
}

func (m *RuleRepo) FindActive(_ context.Context) ([]*domain.LoadBalancingRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.LoadBalancingRule
	for id := range m.rules {
		rule := m.rules[id]
		if !rule.Active {
			continue
		}
		copied := rule
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Priority != result[j].Priority {
			return result[i].Priority > result[j].Priority
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (m *RuleRepo) List(_ context.Context, offset, limit int) ([]*domain.LoadBalancingRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.LoadBalancingRule
	for id := range m.rules {
		copied := m.rules[id]
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	if offset > len(result) {
		return nil, nil
	}
	result = result[offset:]
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
