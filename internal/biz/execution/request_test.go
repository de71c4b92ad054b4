package execution

import (
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"

	"github.com/testops/orchestrator/internal/biz/runner"
)

func TestRequestValidate(t *testing.T) {
	valid := &Request{TestSuite: "smoke", Environment: "staging"}
	assert.NoError(t, valid.Validate())

	noSuite := &Request{}
	assert.Error(t, noSuite.Validate())

	badPriority := &Request{TestSuite: "smoke", Priority: lo.ToPtr(101)}
	assert.Error(t, badPriority.Validate())

	negativePriority := &Request{TestSuite: "smoke", Priority: lo.ToPtr(-1)}
	assert.Error(t, negativePriority.Validate())

	badType := &Request{TestSuite: "smoke", RunnerType: "mainframe"}
	assert.Error(t, badType.Validate())

	negativeRetries := -1
	badRetries := &Request{TestSuite: "smoke", MaxRetries: &negativeRetries}
	assert.Error(t, badRetries.Validate())
}

// TestBuildQueueItem 未指定的字段用调度器默认值补齐
func TestBuildQueueItem(t *testing.T) {
	def := Defaults{Priority: 50, MaxRetries: 3, EstimatedDuration: 30 * time.Minute}

	item := BuildQueueItem(&Request{TestSuite: "smoke", Environment: "staging"}, def)
	assert.Equal(t, StatusQueued, item.Status)
	assert.Equal(t, 50, item.Priority)
	assert.Equal(t, 3, item.MaxRetries)
	assert.Equal(t, 30*time.Minute, item.EstimatedDuration)

	retries := 0
	item = BuildQueueItem(&Request{
		TestSuite:         "smoke",
		Priority:          lo.ToPtr(80),
		EstimatedDuration: 10 * time.Minute,
		RunnerType:        runner.RunnerTypeJenkins,
		MaxRetries:        &retries,
	}, def)
	assert.Equal(t, 80, item.Priority)
	assert.Equal(t, 0, item.MaxRetries)
	assert.Equal(t, 10*time.Minute, item.EstimatedDuration)
	assert.Equal(t, runner.RunnerTypeJenkins, item.RequestedRunnerType)
}

// TestBuildQueueItemExplicitZeroPriority 显式0不被默认值吞掉
func TestBuildQueueItemExplicitZeroPriority(t *testing.T) {
	def := Defaults{Priority: 50, MaxRetries: 3, EstimatedDuration: 30 * time.Minute}

	req := &Request{TestSuite: "smoke", Priority: lo.ToPtr(0)}
	assert.NoError(t, req.Validate())

	item := BuildQueueItem(req, def)
	assert.Equal(t, 0, item.Priority)
}
