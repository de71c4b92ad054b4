package dispatch

import (
	"context"
	"net/http"

	"github.com/testops/orchestrator/internal/biz/execution"
	"github.com/testops/orchestrator/internal/biz/runner"
)

// WebhookAdapter 自定义执行机的兜底适配器，直接POST执行参数
type WebhookAdapter struct {
	httpClient *http.Client
}

func NewWebhookAdapter() *WebhookAdapter {
	return &WebhookAdapter{httpClient: &http.Client{}}
}

func (a *WebhookAdapter) Type() runner.RunnerType {
	return runner.RunnerTypeCustom
}

func (a *WebhookAdapter) Trigger(ctx context.Context, r *runner.Runner, item *execution.QueueItem) (*Result, error) {
	return postJSON(ctx, a.httpClient, r.GetTriggerURL(), executionParameters(item))
}
