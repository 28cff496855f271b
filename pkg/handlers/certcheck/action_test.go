package certcheck

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardenlabs/bazaar/pkg/certs"
	"github.com/gardenlabs/bazaar/pkg/models"
)

func testStore() *certs.Store {
	store := certs.NewStore(slog.Default())
	store.Register("prov-1", &models.Certificate{
		Subject:   "prov-1",
		ExpiresAt: time.Now().Add(time.Hour),
	})

	return store
}

func TestCertificateValid(t *testing.T) {
	action, err := NewAction(testStore(), map[string]any{"provider_uuid": "prov-1"})
	require.NoError(t, err)

	ctx := models.NewExecutionContext("exec-1", "hotel", nil)

	result, err := action.Execute(context.Background(), ctx, nil, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, true, result["certificateValid"])
}

func TestCertificateFromContext(t *testing.T) {
	action, err := NewAction(testStore(), map[string]any{})
	require.NoError(t, err)

	ctx := models.NewExecutionContext("exec-1", "hotel", map[string]any{
		"providerUuid": "prov-1",
	})

	_, err = action.Execute(context.Background(), ctx, nil, slog.Default())
	require.NoError(t, err)
}

func TestCertificateInvalidFailsAction(t *testing.T) {
	action, err := NewAction(testStore(), map[string]any{"provider_uuid": "prov-unknown"})
	require.NoError(t, err)

	ctx := models.NewExecutionContext("exec-1", "hotel", nil)

	_, err = action.Execute(context.Background(), ctx, nil, slog.Default())
	require.ErrorIs(t, err, ErrInvalidCertificate)
}

func TestCertificateMissingProviderFailsAction(t *testing.T) {
	action, err := NewAction(testStore(), map[string]any{})
	require.NoError(t, err)

	ctx := models.NewExecutionContext("exec-1", "hotel", nil)

	_, err = action.Execute(context.Background(), ctx, nil, slog.Default())
	require.ErrorIs(t, err, ErrInvalidCertificate)
}
