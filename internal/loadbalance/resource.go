package loadbalance

import (
	"context"
	"fmt"

	"github.com/testops/orchestrator/internal/biz/runner"
)

// ResourceStrategy 资源策略: 选当前利用率最低的执行机
type ResourceStrategy struct{}

func NewResourceStrategy() *ResourceStrategy {
	return &ResourceStrategy{}
}

func (s *ResourceStrategy) Select(ctx context.Context, bucket string, candidates []*runner.Runner) (*runner.Runner, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no available runners")
	}

	best := candidates[0]
	for _, r := range candidates[1:] {
		if betterByUtilization(r, best) {
			best = r
		}
	}
	return best, nil
}

func (s *ResourceStrategy) Name() string {
	return "resource-based"
}

func betterByUtilization(a, b *runner.Runner) bool {
	ua, ub := a.Utilization(), b.Utilization()
	if ua != ub {
		return ua < ub
	}
	if a.CurrentJobs != b.CurrentJobs {
		return a.CurrentJobs < b.CurrentJobs
	}
	return a.ID < b.ID
}
