package dispatch

import (
	"context"
	"net/http"

	"github.com/spf13/cast"

	"github.com/testops/orchestrator/internal/biz/execution"
	"github.com/testops/orchestrator/internal/biz/runner"
)

// ADOAdapter 触发Azure DevOps流水线运行
type ADOAdapter struct {
	httpClient *http.Client
}

func NewADOAdapter() *ADOAdapter {
	return &ADOAdapter{httpClient: &http.Client{}}
}

func (a *ADOAdapter) Type() runner.RunnerType {
	return runner.RunnerTypeADO
}

func (a *ADOAdapter) Trigger(ctx context.Context, r *runner.Runner, item *execution.QueueItem) (*Result, error) {
	payload := map[string]any{
		"templateParameters": executionParameters(item),
	}
	if branch := cast.ToString(r.Capabilities["branch"]); branch != "" {
		payload["resources"] = map[string]any{
			"repositories": map[string]any{
				"self": map[string]any{"refName": branch},
			},
		}
	}
	return postJSON(ctx, a.httpClient, r.GetTriggerURL(), payload)
}
