package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/testops/orchestrator/internal/biz/execution"
)

var webhookClient = &http.Client{Timeout: 10 * time.Second}

// notifyWebhook 终态回调，异步发送，失败只记日志
func (s *Service) notifyWebhook(item *execution.QueueItem) {
	if item.WebhookURL == "" {
		return
	}

	payload := map[string]any{
		"execution_id": item.ID,
		"test_suite":   item.TestSuite,
		"environment":  item.Environment,
		"status":       string(item.Status),
		"retry_count":  item.RetryCount,
		"result":       item.Result,
	}
	if item.CompletedAt != nil {
		payload["completed_at"] = item.CompletedAt.Unix()
	}

	go func() {
		body, err := json.Marshal(payload)
		if err != nil {
			s.logger.Error("failed to marshal webhook payload",
				zap.Uint64("execution_id", item.ID),
				zap.Error(err))
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, item.WebhookURL, bytes.NewBuffer(body))
		if err != nil {
			s.logger.Error("failed to create webhook request",
				zap.Uint64("execution_id", item.ID),
				zap.Error(err))
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := webhookClient.Do(req)
		if err != nil {
			s.logger.Warn("webhook notification failed",
				zap.Uint64("execution_id", item.ID),
				zap.String("url", item.WebhookURL),
				zap.Error(err))
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			s.logger.Warn("webhook notification rejected",
				zap.Uint64("execution_id", item.ID),
				zap.String("url", item.WebhookURL),
				zap.Int("status", resp.StatusCode))
		}
	}()
}
