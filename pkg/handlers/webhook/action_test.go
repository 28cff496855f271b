package webhook

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardenlabs/bazaar/pkg/models"
)

func TestWebhookDelivery(t *testing.T) {
	var received map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	action, err := NewAction(map[string]any{"url": server.URL})
	require.NoError(t, err)

	ctx := models.NewExecutionContext("exec-1", "hotel", nil)

	result, err := action.Execute(context.Background(), ctx, map[string]any{
		"payload": map[string]any{"txId": "tx-1"},
	}, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, true, result["webhookDelivered"])
	assert.Equal(t, "tx-1", received["txId"])
}

func TestWebhookFailureNeverFailsAction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	action, err := NewAction(map[string]any{"url": server.URL})
	require.NoError(t, err)

	ctx := models.NewExecutionContext("exec-1", "hotel", nil)

	result, err := action.Execute(context.Background(), ctx, nil, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, false, result["webhookDelivered"])
}

func TestWebhookWithoutURL(t *testing.T) {
	action, err := NewAction(map[string]any{})
	require.NoError(t, err)

	ctx := models.NewExecutionContext("exec-1", "hotel", nil)

	result, err := action.Execute(context.Background(), ctx, nil, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, false, result["webhookDelivered"])
}
