package workflow

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gardenlabs/bazaar/pkg/persistence"

	"github.com/gardenlabs/bazaar/pkg/models"
)

// Repository resolves workflow definitions per service type on top of the
// persistence layer. Definitions are re-fetched per run and never mutated.
type Repository struct {
	persistence persistence.Persistence
	loader      *Loader
}

func NewRepository(p persistence.Persistence) (*Repository, error) {
	loader, err := NewLoader()
	if err != nil {
		return nil, err
	}

	return &Repository{
		persistence: p,
		loader:      loader,
	}, nil
}

func (r *Repository) HealthCheck(ctx context.Context) (string, bool) {
	if r.persistence == nil {
		return "Persistence layer not initialized", false
	}

	if err := r.persistence.HealthCheck(ctx); err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

func (r *Repository) FetchByServiceType(ctx context.Context, serviceType string) (*models.WorkflowDefinition, error) {
	def, err := r.persistence.Definitions().FetchByServiceType(ctx, serviceType)
	if err != nil {
		return nil, err
	}

	return def, nil
}

func (r *Repository) FetchAll(ctx context.Context) ([]*models.WorkflowDefinition, error) {
	defs, err := r.persistence.Definitions().All(ctx)
	if err != nil {
		return make([]*models.WorkflowDefinition, 0), err
	}

	return defs, nil
}

func (r *Repository) Save(ctx context.Context, def *models.WorkflowDefinition) error {
	if err := checkReferences(def); err != nil {
		return err
	}

	return r.persistence.Definitions().Save(ctx, def)
}

// LoadDirectory parses every *.json definition under path and stores it
// keyed by service type. Used at startup to seed the definition store.
func (r *Repository) LoadDirectory(ctx context.Context, path string) (int, error) {
	loaded := 0

	err := filepath.WalkDir(path, func(entry string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() || !strings.HasSuffix(entry, ".json") {
			return nil
		}

		data, err := os.ReadFile(entry)
		if err != nil {
			return fmt.Errorf("read definition %s: %w", entry, err)
		}

		def, err := r.loader.Load(data)
		if err != nil {
			return fmt.Errorf("load definition %s: %w", entry, err)
		}

		if err := r.persistence.Definitions().Save(ctx, def); err != nil {
			return err
		}

		loaded++

		return nil
	})
	if err != nil {
		return loaded, err
	}

	return loaded, nil
}
