package loadbalance

import (
	"context"

	"github.com/testops/orchestrator/internal/biz/runner"
)

// Strategy 负载均衡策略接口
type Strategy interface {
	// Select 从候选执行机中选择一个
	// bucket用于区分轮询指针的作用域(每条规则一个)
	Select(ctx context.Context, bucket string, candidates []*runner.Runner) (*runner.Runner, error)
	// Name 策略名称
	Name() string
}
