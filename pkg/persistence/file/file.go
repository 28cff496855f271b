// Package file is the JSON-on-disk persistence used for local development
// and tests. One document per file; reads scan the directory.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gardenlabs/bazaar/pkg/models"
	"github.com/gardenlabs/bazaar/pkg/persistence"
)

type Persistence struct {
	root        string
	logger      *slog.Logger
	definitions *definitionRepository
	ledger      *ledgerRepository
	snapshots   *snapshotRepository
}

func NewPersistence(root string, logger *slog.Logger) (*Persistence, error) {
	for _, dir := range []string{"definitions", "ledger", "snapshots"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("create persistence directory: %w", err)
		}
	}

	return &Persistence{
		root:        root,
		logger:      logger,
		definitions: &definitionRepository{dir: filepath.Join(root, "definitions")},
		ledger:      &ledgerRepository{dir: filepath.Join(root, "ledger")},
		snapshots:   &snapshotRepository{dir: filepath.Join(root, "snapshots")},
	}, nil
}

func (p *Persistence) Definitions() persistence.DefinitionRepository {
	return p.definitions
}

func (p *Persistence) LedgerEntries() persistence.LedgerRepository {
	return p.ledger
}

func (p *Persistence) Snapshots() persistence.SnapshotRepository {
	return p.snapshots
}

func (p *Persistence) HealthCheck(_ context.Context) error {
	info, err := os.Stat(p.root)
	if err != nil {
		return fmt.Errorf("persistence root unavailable: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("persistence root %s is not a directory", p.root)
	}

	return nil
}

func (p *Persistence) Close(_ context.Context) error {
	return nil
}

func safeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '_'
		default:
			return r
		}
	}, name)
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

func readJSON(path string, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, target)
}

func eachJSON(dir string, visit func(path string) error) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}

		return visit(path)
	})
}

type definitionRepository struct {
	mu  sync.Mutex
	dir string
}

func (r *definitionRepository) Save(_ context.Context, def *models.WorkflowDefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return writeJSON(filepath.Join(r.dir, safeName(def.ServiceType)+".json"), def)
}

func (r *definitionRepository) FetchByServiceType(_ context.Context, serviceType string) (*models.WorkflowDefinition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var def models.WorkflowDefinition

	err := readJSON(filepath.Join(r.dir, safeName(serviceType)+".json"), &def)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", persistence.ErrDefinitionNotFound, serviceType)
		}

		return nil, err
	}

	return &def, nil
}

func (r *definitionRepository) All(ctx context.Context) ([]*models.WorkflowDefinition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	defs := make([]*models.WorkflowDefinition, 0)

	err := eachJSON(r.dir, func(path string) error {
		var def models.WorkflowDefinition
		if err := readJSON(path, &def); err != nil {
			return err
		}

		defs = append(defs, &def)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return defs, nil
}

type ledgerRepository struct {
	mu  sync.Mutex
	dir string
}

func (r *ledgerRepository) Save(_ context.Context, entry *models.LedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := writeJSON(filepath.Join(r.dir, safeName(entry.EntryID)+".json"), entry); err != nil {
		return persistence.NewLedgerError("save", entry.EntryID, err)
	}

	return nil
}

func (r *ledgerRepository) FetchByTxID(ctx context.Context, txID string) (*models.LedgerEntry, error) {
	entries, err := r.list(ctx, func(entry *models.LedgerEntry) bool {
		return entry.TxID == txID
	})
	if err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: tx %s", persistence.ErrEntryNotFound, txID)
	}

	return entries[0], nil
}

func (r *ledgerRepository) ListByPayer(ctx context.Context, payer string) ([]*models.LedgerEntry, error) {
	return r.list(ctx, func(entry *models.LedgerEntry) bool {
		return entry.Payer == payer
	})
}

func (r *ledgerRepository) ListByStatus(ctx context.Context, status models.EntryStatus) ([]*models.LedgerEntry, error) {
	return r.list(ctx, func(entry *models.LedgerEntry) bool {
		return entry.Status == status
	})
}

func (r *ledgerRepository) list(_ context.Context, match func(*models.LedgerEntry) bool) ([]*models.LedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := make([]*models.LedgerEntry, 0)

	err := eachJSON(r.dir, func(path string) error {
		var entry models.LedgerEntry
		if err := readJSON(path, &entry); err != nil {
			return err
		}

		if match(&entry) {
			entries = append(entries, &entry)
		}

		return nil
	})
	if err != nil {
		return nil, persistence.NewLedgerError("list", "", err)
	}

	return entries, nil
}

type snapshotRepository struct {
	mu  sync.Mutex
	dir string
}

func (r *snapshotRepository) Save(_ context.Context, snapshot *models.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return writeJSON(filepath.Join(r.dir, safeName(snapshot.TxID)+".json"), snapshot)
}

func (r *snapshotRepository) FetchByTxID(_ context.Context, txID string) (*models.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var snapshot models.Snapshot

	err := readJSON(filepath.Join(r.dir, safeName(txID)+".json"), &snapshot)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: tx %s", persistence.ErrSnapshotNotFound, txID)
		}

		return nil, err
	}

	return &snapshot, nil
}

func (r *snapshotRepository) LatestByProvider(_ context.Context, providerUUID string) (*models.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var latest *models.Snapshot

	err := eachJSON(r.dir, func(path string) error {
		var snapshot models.Snapshot
		if err := readJSON(path, &snapshot); err != nil {
			return err
		}

		if snapshot.ProviderUUID != providerUUID {
			return nil
		}

		if latest == nil || snapshot.Timestamp.After(latest.Timestamp) {
			latest = &snapshot
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if latest == nil {
		return nil, fmt.Errorf("%w: provider %s", persistence.ErrSnapshotNotFound, providerUUID)
	}

	return latest, nil
}
