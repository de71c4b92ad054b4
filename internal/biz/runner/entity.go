package runner

import (
	"fmt"
	"time"
)

type Runner struct {
	ID        uint64
	CreatedAt time.Time
	UpdatedAt time.Time

	Name              string
	Type              RunnerType
	BaseURL           string
	WebhookURL        string
	HealthCheckURL    string
	Status            RunnerStatus
	Capabilities      map[string]any
	MaxConcurrentJobs int
	CurrentJobs       int
	Priority          int
	LastHealthCheck   *time.Time
	HealthStatus      HealthStatus

	// aggregated patch (domain-level), not persisted directly
	patch RunnerPatch
}

func (r *Runner) GetHealthCheckURL() string {
	if r.HealthCheckURL != "" {
		return r.HealthCheckURL
	}
	return fmt.Sprintf("%s/health", r.BaseURL)
}

func (r *Runner) GetTriggerURL() string {
	if r.WebhookURL != "" {
		return r.WebhookURL
	}
	return fmt.Sprintf("%s/trigger", r.BaseURL)
}

// Eligible 是否可接受新的执行分配
func (r *Runner) Eligible() bool {
	return r.Status == RunnerStatusActive &&
		r.HealthStatus == HealthStatusHealthy &&
		r.CurrentJobs < r.MaxConcurrentJobs
}

// Utilization 当前容量占用比
func (r *Runner) Utilization() float64 {
	if r.MaxConcurrentJobs <= 0 {
		return 1
	}
	return float64(r.CurrentJobs) / float64(r.MaxConcurrentJobs)
}

// --- aggregated patch handling ---

// ClearPatch resets current aggregated patch changes.
func (r *Runner) ClearPatch() *Runner {
	r.patch = RunnerPatch{}
	return r
}

// ExportPatch builds a public patch object from internal changes.
func (r *Runner) ExportPatch() *RunnerPatch { return &r.patch }

func (r *Runner) SetStatus(status RunnerStatus) *Runner {
	r.Status = status
	r.patch.WithStatus(status)
	return r
}

// UpdateLastHealthCheck sets the last probe time.
func (r *Runner) UpdateLastHealthCheck(t time.Time) {
	r.LastHealthCheck = &t
	r.patch.WithLastHealthCheck(t)
}

// OnProbeResult applies a single probe outcome. One failed probe flips the
// runner to unhealthy, one success flips it back. Returns whether the health
// status changed.
func (r *Runner) OnProbeResult(healthy bool) (changed bool) {
	next := HealthStatusUnhealthy
	if healthy {
		next = HealthStatusHealthy
	}
	if r.HealthStatus == next {
		return false
	}
	r.HealthStatus = next
	r.patch.WithHealthStatus(next)
	return true
}

// HealthHistory 一次探测的追加记录
type HealthHistory struct {
	ID        uint64
	RunnerID  uint64
	CheckedAt time.Time
	Healthy   bool
	LatencyMS int64
	Error     string

	// 探测返回的资源快照，可为空
	CPUPercent    float64
	MemoryPercent float64
	DiskPercent   float64
	ActiveJobs    int
}

type RunnerPatch struct {
	Name              *string
	BaseURL           *string
	WebhookURL        *string
	HealthCheckURL    *string
	Status            *RunnerStatus
	Capabilities      *map[string]any
	MaxConcurrentJobs *int
	CurrentJobs       *int
	Priority          *int
	LastHealthCheck   *time.Time
	HealthStatus      *HealthStatus
}

func NewRunnerPatch() *RunnerPatch {
	return new(RunnerPatch)
}

func (p *RunnerPatch) WithName(name string) *RunnerPatch {
	p.Name = &name
	return p
}

func (p *RunnerPatch) WithBaseURL(baseURL string) *RunnerPatch {
	p.BaseURL = &baseURL
	return p
}

func (p *RunnerPatch) WithWebhookURL(webhookURL string) *RunnerPatch {
	p.WebhookURL = &webhookURL
	return p
}

func (p *RunnerPatch) WithHealthCheckURL(healthCheckURL string) *RunnerPatch {
	p.HealthCheckURL = &healthCheckURL
	return p
}

func (p *RunnerPatch) WithStatus(status RunnerStatus) *RunnerPatch {
	p.Status = &status
	return p
}

func (p *RunnerPatch) WithCapabilities(capabilities map[string]any) *RunnerPatch {
	p.Capabilities = &capabilities
	return p
}

func (p *RunnerPatch) WithMaxConcurrentJobs(maxConcurrentJobs int) *RunnerPatch {
	p.MaxConcurrentJobs = &maxConcurrentJobs
	return p
}

func (p *RunnerPatch) WithCurrentJobs(currentJobs int) *RunnerPatch {
	p.CurrentJobs = &currentJobs
	return p
}

func (p *RunnerPatch) WithPriority(priority int) *RunnerPatch {
	p.Priority = &priority
	return p
}

func (p *RunnerPatch) WithLastHealthCheck(lastHealthCheck time.Time) *RunnerPatch {
	p.LastHealthCheck = &lastHealthCheck
	return p
}

func (p *RunnerPatch) WithHealthStatus(healthStatus HealthStatus) *RunnerPatch {
	p.HealthStatus = &healthStatus
	return p
}
