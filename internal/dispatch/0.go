package dispatch

import "github.com/google/wire"

var Provider = wire.NewSet(NewGateway, NewAdapters)

// NewAdapters 内置适配器集合
func NewAdapters() []Adapter {
	return []Adapter{
		NewCIActionsAdapter(),
		NewADOAdapter(),
		NewJenkinsAdapter(),
		NewGitLabAdapter(),
		NewDockerAdapter(),
		NewWebhookAdapter(),
	}
}
