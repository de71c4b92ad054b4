package schedule

import (
	"time"

	"github.com/testops/orchestrator/internal/biz/runner"
)

// RecurringSchedule 周期性入队的测试套件（如每日回归）
type RecurringSchedule struct {
	ID        uint64
	CreatedAt time.Time
	UpdatedAt time.Time

	Name           string
	CronExpression string
	TestSuite      string
	Environment    string
	Priority       int
	RunnerType     runner.RunnerType
	TotalShards    int
	Active         bool
}
