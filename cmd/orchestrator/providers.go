package main

import (
	"fmt"

	redis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/testops/orchestrator/internal/events"
	"github.com/testops/orchestrator/pkg/config"
)

// ProvideRedisClient builds a redis client from typed config.
// Returns nil when redis is disabled.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}
	addr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func ProvideEventBus(cfg *config.Config, rdb *redis.Client, logger *zap.Logger) *events.Bus {
	return events.NewBus(rdb, cfg.Scheduler.InstanceID, logger)
}

func ProvideSchedulerConfig(cfg *config.Config) *config.SchedulerConfig {
	return &cfg.Scheduler
}

func ProvideHealthCheckConfig(cfg *config.Config) config.HealthCheckConfig {
	return cfg.HealthCheck
}

func ProvideAllocatorConfig(cfg *config.Config) *config.AllocatorConfig {
	return &cfg.Allocator
}

func ProvideDispatchConfig(cfg *config.Config) *config.DispatchConfig {
	return &cfg.Dispatch
}

func ProvideRegisterer() prometheus.Registerer {
	return prometheus.DefaultRegisterer
}
