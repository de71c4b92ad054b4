package loadbalance

import (
	"context"
	"fmt"

	"github.com/testops/orchestrator/internal/biz/runner"
)

// PriorityStrategy 优先级策略: 选最高优先级，其次最空闲，最后按注册顺序
type PriorityStrategy struct{}

func NewPriorityStrategy() *PriorityStrategy {
	return &PriorityStrategy{}
}

func (s *PriorityStrategy) Select(ctx context.Context, bucket string, candidates []*runner.Runner) (*runner.Runner, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no available runners")
	}

	best := candidates[0]
	for _, r := range candidates[1:] {
		if betterByPriority(r, best) {
			best = r
		}
	}
	return best, nil
}

func (s *PriorityStrategy) Name() string {
	return "priority-based"
}

func betterByPriority(a, b *runner.Runner) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	if a.CurrentJobs != b.CurrentJobs {
		return a.CurrentJobs < b.CurrentJobs
	}
	return a.ID < b.ID
}
