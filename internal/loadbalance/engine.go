package loadbalance

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/testops/orchestrator/internal/biz/execution"
	"github.com/testops/orchestrator/internal/biz/rule"
	"github.com/testops/orchestrator/internal/biz/runner"
)

// Engine 规则引擎: 按规则为队列项选择执行机
type Engine struct {
	ruleRepo   rule.Repo
	strategies map[rule.RuleType]Strategy
	custom     *CustomRegistry
	logger     *zap.Logger
}

func NewEngine(ruleRepo rule.Repo, custom *CustomRegistry, logger *zap.Logger) *Engine {
	e := &Engine{
		ruleRepo:   ruleRepo,
		strategies: make(map[rule.RuleType]Strategy),
		custom:     custom,
		logger:     logger,
	}

	// 注册内置策略
	e.strategies[rule.RuleTypeRoundRobin] = NewRoundRobinStrategy()
	e.strategies[rule.RuleTypePriorityBased] = NewPriorityStrategy()
	e.strategies[rule.RuleTypeResourceBased] = NewResourceStrategy()

	return e
}

// SelectRunner 为队列项选择执行机。
// 无可用执行机时返回(nil, nil)，队列项保持queued。
func (e *Engine) SelectRunner(ctx context.Context, item *execution.QueueItem, candidates []*runner.Runner) (*runner.Runner, error) {
	eligible := lo.Filter(candidates, func(r *runner.Runner, _ int) bool {
		return r.Eligible()
	})
	if len(eligible) == 0 {
		return nil, nil
	}

	// 指定执行机的请求跳过规则匹配
	if item.RequestedRunnerID != nil {
		for _, r := range eligible {
			if r.ID == *item.RequestedRunnerID {
				return r, nil
			}
		}
		return nil, nil
	}

	// 指定执行机类型时先收窄候选集
	if item.RequestedRunnerType != "" {
		eligible = lo.Filter(eligible, func(r *runner.Runner, _ int) bool {
			return r.Type == item.RequestedRunnerType
		})
		if len(eligible) == 0 {
			return nil, nil
		}
	}

	matched, err := e.matchRule(ctx, item)
	if err != nil {
		return nil, err
	}

	if matched == nil {
		// 无匹配规则时退回优先级策略
		return e.strategies[rule.RuleTypePriorityBased].Select(ctx, "default", eligible)
	}

	if matched.RunnerTypeFilter != "" {
		eligible = lo.Filter(eligible, func(r *runner.Runner, _ int) bool {
			return r.Type == matched.RunnerTypeFilter
		})
		if len(eligible) == 0 {
			return nil, nil
		}
	}

	strategy, err := e.strategyFor(matched)
	if err != nil {
		return nil, err
	}

	bucket := fmt.Sprintf("rule-%d", matched.ID)
	selected, err := strategy.Select(ctx, bucket, eligible)
	if err != nil {
		return nil, fmt.Errorf("failed to select runner using %s strategy: %w", strategy.Name(), err)
	}
	return selected, nil
}

// matchRule 返回匹配的active规则中priority最高的一条，无匹配返回nil
func (e *Engine) matchRule(ctx context.Context, item *execution.QueueItem) (*rule.LoadBalancingRule, error) {
	rules, err := e.ruleRepo.FindActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active rules: %w", err)
	}
	for _, r := range rules {
		if r.Matches(item.TestSuite, item.Environment, item.RequestedRunnerType) {
			return r, nil
		}
	}
	return nil, nil
}

func (e *Engine) strategyFor(r *rule.LoadBalancingRule) (Strategy, error) {
	if r.Type == rule.RuleTypeCustom {
		name := cast.ToString(r.Config["strategy"])
		if name == "" {
			return nil, fmt.Errorf("custom rule %q has no strategy name in config", r.Name)
		}
		s, ok := e.custom.Get(name)
		if !ok {
			return nil, fmt.Errorf("unknown custom strategy: %s", name)
		}
		return s, nil
	}

	s, ok := e.strategies[r.Type]
	if !ok {
		e.logger.Warn("unknown rule type, falling back to priority-based",
			zap.String("rule", r.Name),
			zap.String("type", string(r.Type)))
		return e.strategies[rule.RuleTypePriorityBased], nil
	}
	return s, nil
}
