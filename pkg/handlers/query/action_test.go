package query

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardenlabs/bazaar/pkg/directory"
	"github.com/gardenlabs/bazaar/pkg/models"
)

func seedDirectory() *directory.Directory {
	dir := directory.New()
	dir.Register(&models.Provider{
		UUID: "prov-1", Name: "Grand Plaza", ServiceType: "hotel",
		Capabilities: []string{"booking"}, PoolID: "HOTEL",
	})
	dir.Register(&models.Provider{
		UUID: "prov-2", Name: "Budget Inn", ServiceType: "hotel",
		Capabilities: []string{"booking", "late-checkout"}, PoolID: "HOTEL",
	})
	dir.Register(&models.Provider{
		UUID: "prov-3", Name: "Sky Air", ServiceType: "flight",
		Capabilities: []string{"booking"}, PoolID: "FLIGHT",
	})

	return dir
}

func TestQueryByServiceType(t *testing.T) {
	action, err := NewAction(seedDirectory(), map[string]any{"service_type": "hotel"})
	require.NoError(t, err)

	ctx := models.NewExecutionContext("exec-1", "hotel", nil)

	result, err := action.Execute(context.Background(), ctx, nil, slog.Default())
	require.NoError(t, err)

	assert.Equal(t, 2, result["providerCount"])
	assert.Equal(t, "prov-1", result["providerUuid"])
	assert.Equal(t, "HOTEL", result["poolId"])
}

func TestQueryFallsBackToContextServiceType(t *testing.T) {
	action, err := NewAction(seedDirectory(), map[string]any{})
	require.NoError(t, err)

	ctx := models.NewExecutionContext("exec-1", "flight", nil)

	result, err := action.Execute(context.Background(), ctx, nil, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, 1, result["providerCount"])
	assert.Equal(t, "prov-3", result["providerUuid"])
}

func TestQueryByCapability(t *testing.T) {
	action, err := NewAction(seedDirectory(), map[string]any{
		"service_type": "hotel",
		"capability":   "late-checkout",
	})
	require.NoError(t, err)

	ctx := models.NewExecutionContext("exec-1", "hotel", nil)

	result, err := action.Execute(context.Background(), ctx, nil, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, 1, result["providerCount"])
	assert.Equal(t, "prov-2", result["providerUuid"])
}

func TestQueryNoMatches(t *testing.T) {
	action, err := NewAction(seedDirectory(), map[string]any{"service_type": "spa"})
	require.NoError(t, err)

	ctx := models.NewExecutionContext("exec-1", "spa", nil)

	result, err := action.Execute(context.Background(), ctx, nil, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, 0, result["providerCount"])
	assert.NotContains(t, result, "providerUuid")
}
