package execution

import (
	"time"

	"github.com/testops/orchestrator/internal/biz/runner"
)

// QueueItem 调度单元，一个逻辑请求或其中一个分片
type QueueItem struct {
	ID        uint64
	CreatedAt time.Time
	UpdatedAt time.Time

	TestSuite         string
	Environment       string
	Priority          int
	EstimatedDuration time.Duration

	RequestedRunnerType runner.RunnerType
	RequestedRunnerID   *uint64
	AssignedRunnerID    *uint64

	Status      Status
	AssignedAt  *time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	TimeoutAt   *time.Time

	RetryCount int
	MaxRetries int

	// 分片执行: ParentID非空表示本项是一个分片
	ParentID    *uint64
	ShardIndex  int
	TotalShards int

	Metadata   map[string]any
	WebhookURL string
	Result     map[string]any
	Logs       string
}

// IsShard 是否为某个父执行的分片
func (q *QueueItem) IsShard() bool {
	return q.ParentID != nil
}

// IsFanOutParent 父执行本身不参与调度，由协调器聚合
func (q *QueueItem) IsFanOutParent() bool {
	return q.ParentID == nil && q.TotalShards > 0
}

// CanRetry 是否仍有重试额度
func (q *QueueItem) CanRetry() bool {
	return q.RetryCount < q.MaxRetries
}

// Expired 截止时间是否已过
func (q *QueueItem) Expired(now time.Time) bool {
	return q.TimeoutAt != nil && now.After(*q.TimeoutAt)
}

// MarkAssigned 分配到执行机并设置超时截止时间
func (q *QueueItem) MarkAssigned(runnerID uint64, deadline time.Time) *QueueItem {
	now := time.Now()
	q.Status = StatusAssigned
	q.AssignedRunnerID = &runnerID
	q.AssignedAt = &now
	q.TimeoutAt = &deadline
	return q
}

// MarkRunning 外部系统已接受派发
func (q *QueueItem) MarkRunning() *QueueItem {
	now := time.Now()
	q.Status = StatusRunning
	q.StartedAt = &now
	return q
}

// MarkCompleted 正常完成
func (q *QueueItem) MarkCompleted(result map[string]any) *QueueItem {
	now := time.Now()
	q.Status = StatusCompleted
	q.CompletedAt = &now
	q.Result = result
	return q
}

// MarkFailed 终态失败
func (q *QueueItem) MarkFailed(reason string) *QueueItem {
	now := time.Now()
	q.Status = StatusFailed
	q.CompletedAt = &now
	q.Logs = reason
	return q
}

// MarkCancelled 仅在queued状态下允许
func (q *QueueItem) MarkCancelled() *QueueItem {
	now := time.Now()
	q.Status = StatusCancelled
	q.CompletedAt = &now
	return q
}

// MarkTimeout 超时终态（重试额度耗尽时）
func (q *QueueItem) MarkTimeout() *QueueItem {
	now := time.Now()
	q.Status = StatusTimeout
	q.CompletedAt = &now
	q.Logs = "execution deadline exceeded"
	return q
}

// Requeue 释放分配并重新排队，计入一次重试
func (q *QueueItem) Requeue() *QueueItem {
	q.Status = StatusQueued
	q.AssignedRunnerID = nil
	q.AssignedAt = nil
	q.StartedAt = nil
	q.TimeoutAt = nil
	q.RetryCount++
	return q
}
