package runner

// RunnerType 执行环境类型
type RunnerType string

const (
	RunnerTypeCIActions RunnerType = "ci-actions"
	RunnerTypeADO       RunnerType = "ado"
	RunnerTypeJenkins   RunnerType = "jenkins"
	RunnerTypeGitLab    RunnerType = "gitlab"
	RunnerTypeDocker    RunnerType = "docker"
	RunnerTypeCustom    RunnerType = "custom"
)

func (t RunnerType) Valid() bool {
	switch t {
	case RunnerTypeCIActions, RunnerTypeADO, RunnerTypeJenkins,
		RunnerTypeGitLab, RunnerTypeDocker, RunnerTypeCustom:
		return true
	}
	return false
}

type RunnerStatus string

const (
	RunnerStatusActive      RunnerStatus = "active"
	RunnerStatusInactive    RunnerStatus = "inactive"
	RunnerStatusError       RunnerStatus = "error"
	RunnerStatusMaintenance RunnerStatus = "maintenance"
)

func (s RunnerStatus) Valid() bool {
	switch s {
	case RunnerStatusActive, RunnerStatusInactive, RunnerStatusError, RunnerStatusMaintenance:
		return true
	}
	return false
}

type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
	HealthStatusUnknown   HealthStatus = "unknown"
)
