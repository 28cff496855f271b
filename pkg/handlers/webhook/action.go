// Package webhook implements best-effort delivery of run results to an
// external URL.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gardenlabs/bazaar/pkg/models"
)

const deliveryTimeout = 10 * time.Second

type Action struct {
	client *http.Client
	url    string
}

func NewAction(config map[string]any) (*Action, error) {
	url, _ := config["url"].(string)

	return &Action{
		client: &http.Client{Timeout: deliveryTimeout},
		url:    url,
	}, nil
}

// Execute posts the payload and reports delivery as data. Delivery
// problems are logged, never returned; a webhook must not fail an
// economically committed run.
func (a *Action) Execute(ctx context.Context, executionCtx *models.ExecutionContext, params map[string]any, logger *slog.Logger) (map[string]any, error) {
	if a.url == "" {
		logger.Warn("webhook action without url, skipping")

		return map[string]any{"webhookDelivered": false}, nil
	}

	payload, ok := params["payload"].(map[string]any)
	if !ok {
		payload = executionCtx.Snapshot()
	}

	delivered := a.deliver(ctx, payload, logger)

	return map[string]any{"webhookDelivered": delivered}, nil
}

func (a *Action) deliver(ctx context.Context, payload map[string]any, logger *slog.Logger) bool {
	body, err := json.Marshal(payload)
	if err != nil {
		logger.Warn("failed to encode webhook payload", "error", err)

		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		logger.Warn("failed to build webhook request", "url", a.url, "error", err)

		return false
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		logger.Warn("webhook delivery failed", "url", a.url, "error", err)

		return false
	}

	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Warn("failed to close webhook response body", "error", err)
		}
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		logger.Warn("webhook delivery rejected", "url", a.url, "status", resp.StatusCode)

		return false
	}

	logger.Debug("webhook delivered", "url", a.url, "status", resp.StatusCode)

	return true
}
