package executionrepo

import (
	"time"

	domain "github.com/testops/orchestrator/internal/biz/execution"
	"github.com/testops/orchestrator/internal/infra/persistence/commonrepo"
)

func (po *QueueItem) FromDomain(in *domain.QueueItem) *QueueItem {
	return &QueueItem{
		Mode: commonrepo.Mode{
			ID:        in.ID,
			CreatedAt: in.CreatedAt,
			UpdatedAt: in.UpdatedAt,
		},
		TestSuite:           in.TestSuite,
		Environment:         in.Environment,
		Priority:            in.Priority,
		EstimatedDuration:   in.EstimatedDuration.Milliseconds(),
		RequestedRunnerType: in.RequestedRunnerType,
		RequestedRunnerID:   in.RequestedRunnerID,
		AssignedRunnerID:    in.AssignedRunnerID,
		Status:              in.Status,
		AssignedAt:          in.AssignedAt,
		StartedAt:           in.StartedAt,
		CompletedAt:         in.CompletedAt,
		TimeoutAt:           in.TimeoutAt,
		RetryCount:          in.RetryCount,
		MaxRetries:          in.MaxRetries,
		ParentID:            in.ParentID,
		ShardIndex:          in.ShardIndex,
		TotalShards:         in.TotalShards,
		Metadata:            in.Metadata,
		WebhookURL:          in.WebhookURL,
		Result:              in.Result,
		Logs:                in.Logs,
	}
}

func (po *QueueItem) ToDomain() *domain.QueueItem {
	return &domain.QueueItem{
		ID:                  po.ID,
		CreatedAt:           po.CreatedAt,
		UpdatedAt:           po.UpdatedAt,
		TestSuite:           po.TestSuite,
		Environment:         po.Environment,
		Priority:            po.Priority,
		EstimatedDuration:   time.Duration(po.EstimatedDuration) * time.Millisecond,
		RequestedRunnerType: po.RequestedRunnerType,
		RequestedRunnerID:   po.RequestedRunnerID,
		AssignedRunnerID:    po.AssignedRunnerID,
		Status:              po.Status,
		AssignedAt:          po.AssignedAt,
		StartedAt:           po.StartedAt,
		CompletedAt:         po.CompletedAt,
		TimeoutAt:           po.TimeoutAt,
		RetryCount:          po.RetryCount,
		MaxRetries:          po.MaxRetries,
		ParentID:            po.ParentID,
		ShardIndex:          po.ShardIndex,
		TotalShards:         po.TotalShards,
		Metadata:            po.Metadata,
		WebhookURL:          po.WebhookURL,
		Result:              po.Result,
		Logs:                po.Logs,
	}
}
