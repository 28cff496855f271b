// Package certs holds provider certificates and the validity gate checked
// before a provider may participate in a pipeline action.
package certs

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gardenlabs/bazaar/pkg/models"
)

type Store struct {
	mu     sync.RWMutex
	certs  map[string]*models.Certificate
	logger *slog.Logger
}

func NewStore(logger *slog.Logger) *Store {
	return &Store{
		certs:  make(map[string]*models.Certificate),
		logger: logger,
	}
}

func (s *Store) Register(providerUUID string, cert *models.Certificate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.certs[providerUUID] = cert
}

// Get returns the certificate for a provider, or nil when none is known.
func (s *Store) Get(providerUUID string) *models.Certificate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.certs[providerUUID]
}

// Validate is the trust gate: the certificate must exist, be unexpired and
// unrevoked. Checked fresh at every booking, never cached across runs.
func (s *Store) Validate(providerUUID string) bool {
	s.mu.RLock()
	cert := s.certs[providerUUID]
	s.mu.RUnlock()

	if cert == nil {
		s.logger.Warn("no certificate for provider", "provider_uuid", providerUUID)

		return false
	}

	if !cert.Valid(time.Now().UTC()) {
		s.logger.Warn("certificate invalid", "provider_uuid", providerUUID,
			"revoked", cert.Revoked, "expires_at", cert.ExpiresAt)

		return false
	}

	return true
}

func (s *Store) Revoke(providerUUID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cert, ok := s.certs[providerUUID]
	if !ok {
		return false
	}

	cert.Revoked = true

	return true
}
