package runnerrepo

import (
	"time"

	domain "github.com/testops/orchestrator/internal/biz/runner"
	"github.com/testops/orchestrator/internal/infra/persistence/commonrepo"
	"gorm.io/datatypes"
)

type Runner struct {
	commonrepo.Mode
	Name              string              `gorm:"column:name;size:255;not null;index:idx_name_type"`
	Type              domain.RunnerType   `gorm:"column:type;size:50;not null;index:idx_name_type"`
	BaseURL           string              `gorm:"column:base_url;size:500;not null"`
	WebhookURL        string              `gorm:"column:webhook_url;size:500"`
	HealthCheckURL    string              `gorm:"column:health_check_url;size:500"`
	Status            domain.RunnerStatus `gorm:"column:status;size:50;not null;index:idx_status_health"`
	Capabilities      datatypes.JSONMap   `gorm:"column:capabilities;type:json"`
	MaxConcurrentJobs int                 `gorm:"column:max_concurrent_jobs;not null;default:1"`
	CurrentJobs       int                 `gorm:"column:current_jobs;not null;default:0"`
	Priority          int                 `gorm:"column:priority;not null;default:0;index"`
	LastHealthCheck   *time.Time          `gorm:"column:last_health_check"`
	HealthStatus      domain.HealthStatus `gorm:"column:health_status;size:50;not null;default:unknown;index:idx_status_health"`
}

func (Runner) TableName() string {
	return "orch_runners"
}
