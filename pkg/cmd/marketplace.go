package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/gardenlabs/bazaar/pkg/amm"
	"github.com/gardenlabs/bazaar/pkg/certs"
	"github.com/gardenlabs/bazaar/pkg/directory"
	"github.com/gardenlabs/bazaar/pkg/ledger"
	"github.com/gardenlabs/bazaar/pkg/models"
)

// MarketplaceSeed is the startup fixture: pools, providers, their
// certificates and initial wallet balances.
type MarketplaceSeed struct {
	Pools        []*models.Pool                 `json:"pools"`
	Providers    []*models.Provider             `json:"providers"`
	Certificates map[string]*models.Certificate `json:"certificates"`
	Wallets      map[string]float64             `json:"wallets"`
}

// SeedMarketplace loads a marketplace fixture and registers everything it
// declares. An empty path seeds nothing.
func SeedMarketplace(path string, logger *slog.Logger, dir *directory.Directory, store *certs.Store, engine *amm.Engine, wallet *ledger.Wallet) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read marketplace seed %s: %w", path, err)
	}

	var seed MarketplaceSeed
	if err := json.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parse marketplace seed %s: %w", path, err)
	}

	for _, pool := range seed.Pools {
		engine.AddPool(pool)
	}

	for _, provider := range seed.Providers {
		dir.Register(provider)
	}

	for providerUUID, cert := range seed.Certificates {
		store.Register(providerUUID, cert)
	}

	for user, balance := range seed.Wallets {
		wallet.Credit(user, balance)
	}

	logger.Info("marketplace seeded",
		"pools", len(seed.Pools),
		"providers", len(seed.Providers),
		"certificates", len(seed.Certificates),
		"wallets", len(seed.Wallets),
	)

	return nil
}
