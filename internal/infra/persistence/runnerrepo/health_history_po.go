package runnerrepo

import (
	"time"

	"github.com/testops/orchestrator/internal/infra/persistence/commonrepo"
)

// HealthHistory 追加式探测日志表
type HealthHistory struct {
	commonrepo.Mode
	RunnerID      uint64    `gorm:"column:runner_id;not null;index"`
	CheckedAt     time.Time `gorm:"column:checked_at;not null;index"`
	Healthy       bool      `gorm:"column:healthy;not null"`
	LatencyMS     int64     `gorm:"column:latency_ms"`
	Error         string    `gorm:"column:error;size:1000"`
	CPUPercent    float64   `gorm:"column:cpu_percent"`
	MemoryPercent float64   `gorm:"column:memory_percent"`
	DiskPercent   float64   `gorm:"column:disk_percent"`
	ActiveJobs    int       `gorm:"column:active_jobs"`
}

func (HealthHistory) TableName() string {
	return "orch_runner_health_history"
}
