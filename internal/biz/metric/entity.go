package metric

import "time"

type MetricType string

const (
	TypeQueueTime     MetricType = "queue_time"
	TypeExecutionTime MetricType = "execution_time"
	TypeSetupTime     MetricType = "setup_time"
	TypeTeardownTime  MetricType = "teardown_time"
)

// ExecutionMetric 追加式计时采样
type ExecutionMetric struct {
	ID        uint64
	CreatedAt time.Time

	ExecutionID uint64
	RunnerID    *uint64
	Type        MetricType
	Value       float64
	Unit        string
	Metadata    map[string]any
}
