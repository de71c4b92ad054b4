package rule

import (
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/testops/orchestrator/internal/biz/runner"
)

// LoadBalancingRule 负载均衡策略配置。
// 对每个队列项，取匹配的active规则中rule priority最高的一条。
type LoadBalancingRule struct {
	ID        uint64
	CreatedAt time.Time
	UpdatedAt time.Time

	Name             string
	Type             RuleType
	TestSuitePattern string
	EnvPattern       string
	RunnerTypeFilter runner.RunnerType
	Priority         int
	Active           bool
	Config           map[string]any
}

// Matches 判断规则是否匹配给定的测试套件/环境/执行机类型。
// 空pattern视为全匹配。
func (r *LoadBalancingRule) Matches(testSuite, environment string, runnerType runner.RunnerType) bool {
	if !matchPattern(r.TestSuitePattern, testSuite) {
		return false
	}
	if !matchPattern(r.EnvPattern, environment) {
		return false
	}
	if r.RunnerTypeFilter != "" && runnerType != "" && r.RunnerTypeFilter != runnerType {
		return false
	}
	return true
}

func matchPattern(pattern, value string) bool {
	if pattern == "" {
		return true
	}
	ok, err := doublestar.Match(pattern, value)
	if err != nil {
		return false
	}
	return ok
}

// ValidatePattern 配置时校验pattern语法，避免在调度中途才发现错误
func ValidatePattern(pattern string) error {
	if pattern == "" {
		return nil
	}
	if !doublestar.ValidatePattern(pattern) {
		return doublestar.ErrBadPattern
	}
	return nil
}
