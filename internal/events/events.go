package events

// Type represents the type of events flowing through the bus.
type Type string

const (
	TypeExecutionQueued    Type = "execution_queued"
	TypeExecutionAssigned  Type = "execution_assigned"
	TypeExecutionStarted   Type = "execution_started"
	TypeExecutionCompleted Type = "execution_completed"
	TypeExecutionFailed    Type = "execution_failed"
	TypeExecutionTimeout   Type = "execution_timeout"
	TypeRunnerHealthChange Type = "runner_health_changed"
	TypeRunnerStatusChange Type = "runner_status_changed"
)

// Event is the message payload for pub/sub.
type Event struct {
	Type        Type           `json:"type"`
	ExecutionID uint64         `json:"execution_id,omitempty"`
	RunnerID    uint64         `json:"runner_id,omitempty"`
	Status      string         `json:"status,omitempty"`
	Detail      map[string]any `json:"detail,omitempty"`
	Source      string         `json:"source,omitempty"`
	Timestamp   int64          `json:"ts,omitempty"`
}

const redisChannel = "orchestrator:events"

// Emitter publishes orchestration lifecycle events.
type Emitter interface {
	Emit(ev Event)
}
