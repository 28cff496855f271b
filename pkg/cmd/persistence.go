package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gardenlabs/bazaar/pkg/persistence"
	"github.com/gardenlabs/bazaar/pkg/persistence/file"
	"github.com/gardenlabs/bazaar/pkg/persistence/postgres"
)

// NewPersistence picks the backend from the URL scheme. Anything without a
// recognized scheme is treated as a filesystem path.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	switch parsePersistenceProvider(databaseURL) {
	case "postgres":
		p, err := postgres.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to initialize PostgreSQL persistence: %w", err))
		}

		return p
	default:
		p, err := file.NewPersistence(databaseURL, logger)
		if err != nil {
			panic(fmt.Errorf("failed to initialize file persistence: %w", err))
		}

		return p
	}
}

func parsePersistenceProvider(databaseURL string) string {
	scheme, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	switch scheme {
	case "postgres", "postgresql":
		return "postgres"
	default:
		return "file"
	}
}
