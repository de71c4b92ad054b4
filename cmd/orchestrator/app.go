package main

import (
	"github.com/testops/orchestrator/internal/api"
	"github.com/testops/orchestrator/internal/scheduler"
)

// App 进程内的两个顶层组件
type App struct {
	Server    *api.Server
	Scheduler *scheduler.Service
}

func NewApp(server *api.Server, sched *scheduler.Service) *App {
	return &App{
		Server:    server,
		Scheduler: sched,
	}
}
