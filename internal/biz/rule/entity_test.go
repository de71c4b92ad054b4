package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/testops/orchestrator/internal/biz/runner"
)

func TestMatches(t *testing.T) {
	r := &LoadBalancingRule{
		TestSuitePattern: "smoke-*",
		EnvPattern:       "staging",
	}

	assert.True(t, r.Matches("smoke-api", "staging", ""))
	assert.False(t, r.Matches("regression", "staging", ""))
	assert.False(t, r.Matches("smoke-api", "prod", ""))
}

// TestMatchesEmptyPatterns 空pattern视为全匹配
func TestMatchesEmptyPatterns(t *testing.T) {
	r := &LoadBalancingRule{}
	assert.True(t, r.Matches("anything", "anywhere", runner.RunnerTypeDocker))
}

// TestMatchesRunnerTypeFilter 双方都指定类型时必须一致
func TestMatchesRunnerTypeFilter(t *testing.T) {
	r := &LoadBalancingRule{RunnerTypeFilter: runner.RunnerTypeDocker}

	assert.True(t, r.Matches("smoke", "staging", ""))
	assert.True(t, r.Matches("smoke", "staging", runner.RunnerTypeDocker))
	assert.False(t, r.Matches("smoke", "staging", runner.RunnerTypeJenkins))
}

func TestMatchesDoublestar(t *testing.T) {
	r := &LoadBalancingRule{TestSuitePattern: "e2e/**"}
	assert.True(t, r.Matches("e2e/checkout/payment", "staging", ""))
	assert.False(t, r.Matches("unit/checkout", "staging", ""))
}

func TestValidatePattern(t *testing.T) {
	assert.NoError(t, ValidatePattern(""))
	assert.NoError(t, ValidatePattern("smoke-*"))
	assert.NoError(t, ValidatePattern("e2e/**"))
	assert.Error(t, ValidatePattern("[invalid"))
}
