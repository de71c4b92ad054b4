package dispatch

import (
	"context"
	"net/http"

	"github.com/testops/orchestrator/internal/biz/execution"
	"github.com/testops/orchestrator/internal/biz/runner"
)

// JenkinsAdapter 触发Jenkins参数化构建
type JenkinsAdapter struct {
	httpClient *http.Client
}

func NewJenkinsAdapter() *JenkinsAdapter {
	return &JenkinsAdapter{httpClient: &http.Client{}}
}

func (a *JenkinsAdapter) Type() runner.RunnerType {
	return runner.RunnerTypeJenkins
}

func (a *JenkinsAdapter) Trigger(ctx context.Context, r *runner.Runner, item *execution.QueueItem) (*Result, error) {
	payload := map[string]any{
		"parameters": executionParameters(item),
	}
	return postJSON(ctx, a.httpClient, r.GetTriggerURL(), payload)
}
