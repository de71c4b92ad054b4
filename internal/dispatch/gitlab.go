package dispatch

import (
	"context"
	"net/http"

	"github.com/samber/lo"
	"github.com/spf13/cast"

	"github.com/testops/orchestrator/internal/biz/execution"
	"github.com/testops/orchestrator/internal/biz/runner"
)

// GitLabAdapter 通过pipeline trigger API触发GitLab流水线
type GitLabAdapter struct {
	httpClient *http.Client
}

func NewGitLabAdapter() *GitLabAdapter {
	return &GitLabAdapter{httpClient: &http.Client{}}
}

func (a *GitLabAdapter) Type() runner.RunnerType {
	return runner.RunnerTypeGitLab
}

func (a *GitLabAdapter) Trigger(ctx context.Context, r *runner.Runner, item *execution.QueueItem) (*Result, error) {
	ref := cast.ToString(r.Capabilities["ref"])
	if ref == "" {
		ref = "main"
	}
	// GitLab trigger变量只接受字符串值
	variables := lo.MapValues(executionParameters(item), func(v any, _ string) string {
		return cast.ToString(v)
	})
	payload := map[string]any{
		"ref":       ref,
		"variables": variables,
	}
	if token := cast.ToString(r.Capabilities["trigger_token"]); token != "" {
		payload["token"] = token
	}
	return postJSON(ctx, a.httpClient, r.GetTriggerURL(), payload)
}
