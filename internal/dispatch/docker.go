package dispatch

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cast"

	"github.com/testops/orchestrator/internal/biz/execution"
	"github.com/testops/orchestrator/internal/biz/runner"
)

// DockerAdapter 向容器执行代理提交运行请求
// 代理负责拉起镜像并在容器内执行测试套件
type DockerAdapter struct {
	httpClient *http.Client
}

func NewDockerAdapter() *DockerAdapter {
	return &DockerAdapter{httpClient: &http.Client{}}
}

func (a *DockerAdapter) Type() runner.RunnerType {
	return runner.RunnerTypeDocker
}

func (a *DockerAdapter) Trigger(ctx context.Context, r *runner.Runner, item *execution.QueueItem) (*Result, error) {
	image := cast.ToString(r.Capabilities["image"])
	if image == "" {
		return nil, fmt.Errorf("docker runner %d has no image capability", r.ID)
	}
	payload := map[string]any{
		"image": image,
		"env":   executionParameters(item),
	}
	return postJSON(ctx, a.httpClient, r.GetTriggerURL(), payload)
}
