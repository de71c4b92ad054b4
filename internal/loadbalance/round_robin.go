package loadbalance

import (
	"context"
	"fmt"
	"sync"

	"github.com/testops/orchestrator/internal/biz/runner"
)

// RoundRobinStrategy 平滑加权轮询策略，执行机优先级即权重
// 每个bucket(规则)维护独立的轮询状态
type RoundRobinStrategy struct {
	mu      sync.Mutex
	cursors map[string]map[uint64]int
}

func NewRoundRobinStrategy() *RoundRobinStrategy {
	return &RoundRobinStrategy{
		cursors: make(map[string]map[uint64]int),
	}
}

func (s *RoundRobinStrategy) Select(ctx context.Context, bucket string, candidates []*runner.Runner) (*runner.Runner, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no available runners")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.cursors[bucket]
	if !ok {
		state = make(map[uint64]int)
		s.cursors[bucket] = state
	}

	totalWeight := 0
	for _, r := range candidates {
		totalWeight += weightOf(r)
	}

	// 平滑加权: 每轮为所有候选者累加权重，选出当前值最大者后减去总权重
	var best *runner.Runner
	for _, r := range candidates {
		state[r.ID] += weightOf(r)
		if best == nil || state[r.ID] > state[best.ID] {
			best = r
		}
	}
	state[best.ID] -= totalWeight

	return best, nil
}

func (s *RoundRobinStrategy) Name() string {
	return "round-robin"
}

func weightOf(r *runner.Runner) int {
	if r.Priority <= 0 {
		return 1
	}
	return r.Priority
}
