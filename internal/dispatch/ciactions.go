package dispatch

import (
	"context"
	"net/http"

	"github.com/spf13/cast"

	"github.com/testops/orchestrator/internal/biz/execution"
	"github.com/testops/orchestrator/internal/biz/runner"
)

// CIActionsAdapter 通过workflow dispatch事件触发CI Actions工作流
type CIActionsAdapter struct {
	httpClient *http.Client
}

func NewCIActionsAdapter() *CIActionsAdapter {
	return &CIActionsAdapter{httpClient: &http.Client{}}
}

func (a *CIActionsAdapter) Type() runner.RunnerType {
	return runner.RunnerTypeCIActions
}

func (a *CIActionsAdapter) Trigger(ctx context.Context, r *runner.Runner, item *execution.QueueItem) (*Result, error) {
	ref := cast.ToString(r.Capabilities["ref"])
	if ref == "" {
		ref = "main"
	}
	payload := map[string]any{
		"ref":    ref,
		"inputs": executionParameters(item),
	}
	return postJSON(ctx, a.httpClient, r.GetTriggerURL(), payload)
}
