// Package directory is the in-process service provider registry queried by
// the pipeline's lookup step.
package directory

import (
	"sync"

	"github.com/gardenlabs/bazaar/pkg/models"
)

type Directory struct {
	mu        sync.RWMutex
	providers map[string]*models.Provider
	order     []string
}

func New() *Directory {
	return &Directory{
		providers: make(map[string]*models.Provider),
	}
}

func (d *Directory) Register(provider *models.Provider) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.providers[provider.UUID]; !exists {
		d.order = append(d.order, provider.UUID)
	}

	d.providers[provider.UUID] = provider
}

func (d *Directory) Get(providerUUID string) (*models.Provider, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	provider, ok := d.providers[providerUUID]

	return provider, ok
}

// Find filters providers by service type and, when non-empty, by a
// required capability. Results keep registration order so lookups stay
// deterministic.
func (d *Directory) Find(serviceType, capability string) []*models.Provider {
	d.mu.RLock()
	defer d.mu.RUnlock()

	matched := make([]*models.Provider, 0)

	for _, uuid := range d.order {
		provider := d.providers[uuid]

		if serviceType != "" && provider.ServiceType != serviceType {
			continue
		}

		if capability != "" && !hasCapability(provider, capability) {
			continue
		}

		matched = append(matched, provider)
	}

	return matched
}

func hasCapability(provider *models.Provider, capability string) bool {
	for _, candidate := range provider.Capabilities {
		if candidate == capability {
			return true
		}
	}

	return false
}
