package executionrepo

import (
	"time"

	domain "github.com/testops/orchestrator/internal/biz/execution"
	runnerdomain "github.com/testops/orchestrator/internal/biz/runner"
	"github.com/testops/orchestrator/internal/infra/persistence/commonrepo"
	"gorm.io/datatypes"
)

type QueueItem struct {
	commonrepo.Mode
	TestSuite         string `gorm:"column:test_suite;size:255;not null;index"`
	Environment       string `gorm:"column:environment;size:255;not null;index"`
	Priority          int    `gorm:"column:priority;not null;default:50;index:idx_sched,priority:2"`
	EstimatedDuration int64  `gorm:"column:estimated_duration_ms"`

	RequestedRunnerType runnerdomain.RunnerType `gorm:"column:requested_runner_type;size:50"`
	RequestedRunnerID   *uint64                 `gorm:"column:requested_runner_id"`
	AssignedRunnerID    *uint64                 `gorm:"column:assigned_runner_id;index"`

	Status      domain.Status `gorm:"column:status;size:50;not null;index:idx_sched,priority:1"`
	AssignedAt  *time.Time    `gorm:"column:assigned_at"`
	StartedAt   *time.Time    `gorm:"column:started_at"`
	CompletedAt *time.Time    `gorm:"column:completed_at"`
	TimeoutAt   *time.Time    `gorm:"column:timeout_at;index"`

	RetryCount int `gorm:"column:retry_count;not null;default:0"`
	MaxRetries int `gorm:"column:max_retries;not null;default:3"`

	ParentID    *uint64 `gorm:"column:parent_id;index"`
	ShardIndex  int     `gorm:"column:shard_index;not null;default:0"`
	TotalShards int     `gorm:"column:total_shards;not null;default:0"`

	Metadata   datatypes.JSONMap `gorm:"column:metadata;type:json"`
	WebhookURL string            `gorm:"column:webhook_url;size:500"`
	Result     datatypes.JSONMap `gorm:"column:result;type:json"`
	Logs       string            `gorm:"column:logs;type:text"`
}

func (QueueItem) TableName() string {
	return "orch_queue_items"
}
