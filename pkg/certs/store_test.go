package certs

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gardenlabs/bazaar/pkg/models"
)

func TestValidate(t *testing.T) {
	store := NewStore(slog.Default())

	store.Register("prov-1", &models.Certificate{
		Subject:   "prov-1",
		ExpiresAt: time.Now().Add(time.Hour),
	})
	store.Register("prov-expired", &models.Certificate{
		Subject:   "prov-expired",
		ExpiresAt: time.Now().Add(-time.Hour),
	})

	assert.True(t, store.Validate("prov-1"))
	assert.False(t, store.Validate("prov-expired"))
	assert.False(t, store.Validate("prov-unknown"))
}

func TestRevoke(t *testing.T) {
	store := NewStore(slog.Default())

	store.Register("prov-1", &models.Certificate{
		Subject:   "prov-1",
		ExpiresAt: time.Now().Add(time.Hour),
	})

	assert.True(t, store.Validate("prov-1"))
	assert.True(t, store.Revoke("prov-1"))
	assert.False(t, store.Validate("prov-1"))
	assert.False(t, store.Revoke("prov-unknown"))
}
