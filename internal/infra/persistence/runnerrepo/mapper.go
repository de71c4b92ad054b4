package runnerrepo

import (
	domain "github.com/testops/orchestrator/internal/biz/runner"
	"github.com/testops/orchestrator/internal/infra/persistence/commonrepo"
)

func (po *Runner) FromDomain(in *domain.Runner) *Runner {
	return &Runner{
		Mode: commonrepo.Mode{
			ID:        in.ID,
			CreatedAt: in.CreatedAt,
			UpdatedAt: in.UpdatedAt,
		},
		Name:              in.Name,
		Type:              in.Type,
		BaseURL:           in.BaseURL,
		WebhookURL:        in.WebhookURL,
		HealthCheckURL:    in.HealthCheckURL,
		Status:            in.Status,
		Capabilities:      in.Capabilities,
		MaxConcurrentJobs: in.MaxConcurrentJobs,
		CurrentJobs:       in.CurrentJobs,
		Priority:          in.Priority,
		LastHealthCheck:   in.LastHealthCheck,
		HealthStatus:      in.HealthStatus,
	}
}

func (po *Runner) ToDomain() *domain.Runner {
	return &domain.Runner{
		ID:                po.ID,
		CreatedAt:         po.CreatedAt,
		UpdatedAt:         po.UpdatedAt,
		Name:              po.Name,
		Type:              po.Type,
		BaseURL:           po.BaseURL,
		WebhookURL:        po.WebhookURL,
		HealthCheckURL:    po.HealthCheckURL,
		Status:            po.Status,
		Capabilities:      po.Capabilities,
		MaxConcurrentJobs: po.MaxConcurrentJobs,
		CurrentJobs:       po.CurrentJobs,
		Priority:          po.Priority,
		LastHealthCheck:   po.LastHealthCheck,
		HealthStatus:      po.HealthStatus,
	}
}

func (po *HealthHistory) FromDomain(in *domain.HealthHistory) *HealthHistory {
	return &HealthHistory{
		Mode:          commonrepo.Mode{ID: in.ID},
		RunnerID:      in.RunnerID,
		CheckedAt:     in.CheckedAt,
		Healthy:       in.Healthy,
		LatencyMS:     in.LatencyMS,
		Error:         in.Error,
		CPUPercent:    in.CPUPercent,
		MemoryPercent: in.MemoryPercent,
		DiskPercent:   in.DiskPercent,
		ActiveJobs:    in.ActiveJobs,
	}
}

func (po *HealthHistory) ToDomain() *domain.HealthHistory {
	return &domain.HealthHistory{
		ID:            po.ID,
		RunnerID:      po.RunnerID,
		CheckedAt:     po.CheckedAt,
		Healthy:       po.Healthy,
		LatencyMS:     po.LatencyMS,
		Error:         po.Error,
		CPUPercent:    po.CPUPercent,
		MemoryPercent: po.MemoryPercent,
		DiskPercent:   po.DiskPercent,
		ActiveJobs:    po.ActiveJobs,
	}
}

func patchToMap(input *domain.RunnerPatch) map[string]any {
	if input == nil {
		return nil
	}
	var values = make(map[string]any)

	if input.Name != nil {
		values["name"] = *input.Name
	}
	if input.BaseURL != nil {
		values["base_url"] = *input.BaseURL
	}
	if input.WebhookURL != nil {
		values["webhook_url"] = *input.WebhookURL
	}
	if input.HealthCheckURL != nil {
		values["health_check_url"] = *input.HealthCheckURL
	}
	if input.Status != nil {
		values["status"] = *input.Status
	}
	if input.Capabilities != nil {
		values["capabilities"] = *input.Capabilities
	}
	if input.MaxConcurrentJobs != nil {
		values["max_concurrent_jobs"] = *input.MaxConcurrentJobs
	}
	if input.CurrentJobs != nil {
		values["current_jobs"] = *input.CurrentJobs
	}
	if input.Priority != nil {
		values["priority"] = *input.Priority
	}
	if input.LastHealthCheck != nil {
		values["last_health_check"] = *input.LastHealthCheck
	}
	if input.HealthStatus != nil {
		values["health_status"] = *input.HealthStatus
	}

	return values
}
