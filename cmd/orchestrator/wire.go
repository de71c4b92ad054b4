//go:build wireinject
// +build wireinject

package main

//go:generate go run -mod=mod github.com/google/wire/cmd/wire

import (
	"github.com/google/wire"
	"go.uber.org/zap"

	"github.com/testops/orchestrator/internal/allocator"
	"github.com/testops/orchestrator/internal/api"
	"github.com/testops/orchestrator/internal/coordinator"
	"github.com/testops/orchestrator/internal/dispatch"
	"github.com/testops/orchestrator/internal/events"
	"github.com/testops/orchestrator/internal/health"
	"github.com/testops/orchestrator/internal/infra/persistence/allocationrepo"
	"github.com/testops/orchestrator/internal/infra/persistence/commonrepo"
	"github.com/testops/orchestrator/internal/infra/persistence/executionrepo"
	"github.com/testops/orchestrator/internal/infra/persistence/metricrepo"
	"github.com/testops/orchestrator/internal/infra/persistence/rulerepo"
	"github.com/testops/orchestrator/internal/infra/persistence/runnerrepo"
	"github.com/testops/orchestrator/internal/infra/persistence/schedulerepo"
	"github.com/testops/orchestrator/internal/loadbalance"
	"github.com/testops/orchestrator/internal/observability"
	"github.com/testops/orchestrator/internal/registry"
	"github.com/testops/orchestrator/internal/scheduler"
	"github.com/testops/orchestrator/pkg/config"
)

func InitializeApp(cfg *config.Config, db commonrepo.DB, logger *zap.Logger) (*App, error) {
	wire.Build(
		NewApp,

		ProvideRedisClient,
		ProvideEventBus,
		ProvideSchedulerConfig,
		ProvideHealthCheckConfig,
		ProvideAllocatorConfig,
		ProvideDispatchConfig,
		ProvideRegisterer,

		wire.Bind(new(events.Emitter), new(*events.Bus)),

		scheduler.Provider,
		loadbalance.Provider,
		registry.Provider,
		allocator.Provider,
		health.Provider,
		dispatch.Provider,
		coordinator.Provider,
		observability.Provider,

		api.Provider,

		runnerrepo.Provider,
		executionrepo.Provider,
		allocationrepo.Provider,
		rulerepo.Provider,
		metricrepo.Provider,
		schedulerepo.Provider,
	)
	return nil, nil
}
