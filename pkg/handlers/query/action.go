// Package query implements the service-registry lookup action.
package query

import (
	"context"
	"log/slog"

	"github.com/gardenlabs/bazaar/pkg/directory"
	"github.com/gardenlabs/bazaar/pkg/models"
)

// Action filters the provider directory by service type and capability and
// contributes the match list to the execution context.
type Action struct {
	directory   *directory.Directory
	serviceType string
	capability  string
}

func NewAction(dir *directory.Directory, config map[string]any) (*Action, error) {
	serviceType, _ := config["service_type"].(string)
	capability, _ := config["capability"].(string)

	return &Action{
		directory:   dir,
		serviceType: serviceType,
		capability:  capability,
	}, nil
}

func (a *Action) Execute(_ context.Context, executionCtx *models.ExecutionContext, _ map[string]any, logger *slog.Logger) (map[string]any, error) {
	serviceType := a.serviceType
	if serviceType == "" {
		serviceType = executionCtx.ServiceType
	}

	matched := a.directory.Find(serviceType, a.capability)

	providers := make([]any, 0, len(matched))
	for _, provider := range matched {
		providers = append(providers, providerMap(provider))
	}

	logger.Info("provider query completed", "service_type", serviceType,
		"capability", a.capability, "matches", len(providers))

	result := map[string]any{
		"providers":     providers,
		"providerCount": len(providers),
	}

	if len(matched) > 0 {
		result["provider"] = providerMap(matched[0])
		result["providerUuid"] = matched[0].UUID
		result["poolId"] = matched[0].PoolID
	}

	return result, nil
}

func providerMap(provider *models.Provider) map[string]any {
	return map[string]any{
		"uuid":         provider.UUID,
		"name":         provider.Name,
		"service_type": provider.ServiceType,
		"capabilities": provider.Capabilities,
		"pool_id":      provider.PoolID,
		"amplified":    provider.Amplified,
	}
}
