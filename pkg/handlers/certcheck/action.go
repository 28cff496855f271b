// Package certcheck implements the certificate validation gate action.
package certcheck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gardenlabs/bazaar/pkg/certs"
	"github.com/gardenlabs/bazaar/pkg/models"
)

var ErrInvalidCertificate = errors.New("provider certificate invalid")

type Action struct {
	store        *certs.Store
	providerUUID string
}

func NewAction(store *certs.Store, config map[string]any) (*Action, error) {
	providerUUID, _ := config["provider_uuid"].(string)

	return &Action{
		store:        store,
		providerUUID: providerUUID,
	}, nil
}

// Execute fails the action when the provider's certificate does not pass
// the trust gate; the engine's error routing decides what happens next.
func (a *Action) Execute(_ context.Context, executionCtx *models.ExecutionContext, _ map[string]any, logger *slog.Logger) (map[string]any, error) {
	providerUUID := a.providerUUID
	if providerUUID == "" {
		if value, ok := executionCtx.Get("providerUuid"); ok {
			providerUUID, _ = value.(string)
		}
	}

	if providerUUID == "" {
		return nil, fmt.Errorf("%w: no provider to validate", ErrInvalidCertificate)
	}

	if !a.store.Validate(providerUUID) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCertificate, providerUUID)
	}

	logger.Debug("certificate validated", "provider_uuid", providerUUID)

	return map[string]any{"certificateValid": true}, nil
}
