package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gardenlabs/bazaar/pkg/models"
	"github.com/gardenlabs/bazaar/pkg/persistence"
)

type DefinitionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func (r *DefinitionRepository) Save(ctx context.Context, def *models.WorkflowDefinition) error {
	data, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("failed to marshal definition: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO workflow_definitions (service_type, name, definition, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (service_type) DO UPDATE
		SET name = EXCLUDED.name, definition = EXCLUDED.definition, updated_at = NOW()
	`, def.ServiceType, def.Name, data)
	if err != nil {
		return fmt.Errorf("failed to save definition: %w", err)
	}

	return nil
}

func (r *DefinitionRepository) FetchByServiceType(ctx context.Context, serviceType string) (*models.WorkflowDefinition, error) {
	var data []byte

	err := r.db.QueryRowContext(ctx,
		"SELECT definition FROM workflow_definitions WHERE service_type = $1",
		serviceType).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", persistence.ErrDefinitionNotFound, serviceType)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to fetch definition: %w", err)
	}

	var def models.WorkflowDefinition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to unmarshal definition: %w", err)
	}

	return &def, nil
}

func (r *DefinitionRepository) All(ctx context.Context) ([]*models.WorkflowDefinition, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT definition FROM workflow_definitions ORDER BY service_type")
	if err != nil {
		return nil, fmt.Errorf("failed to list definitions: %w", err)
	}
	defer rows.Close()

	defs := make([]*models.WorkflowDefinition, 0)

	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan definition: %w", err)
		}

		var def models.WorkflowDefinition
		if err := json.Unmarshal(data, &def); err != nil {
			return nil, fmt.Errorf("failed to unmarshal definition: %w", err)
		}

		defs = append(defs, &def)
	}

	return defs, rows.Err()
}

type LedgerRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

const ledgerColumns = `entry_id, tx_id, payer, merchant, provider_uuid, service_type,
	amount, igas_cost, itax, fees, status, booking_details, created_at`

func (r *LedgerRepository) Save(ctx context.Context, entry *models.LedgerEntry) error {
	fees, err := json.Marshal(entry.Fees)
	if err != nil {
		return persistence.NewLedgerError("save", entry.EntryID, err)
	}

	details, err := json.Marshal(entry.BookingDetails)
	if err != nil {
		return persistence.NewLedgerError("save", entry.EntryID, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO ledger_entries (`+ledgerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (entry_id) DO UPDATE
		SET status = EXCLUDED.status, fees = EXCLUDED.fees,
			booking_details = EXCLUDED.booking_details
	`, entry.EntryID, entry.TxID, entry.Payer, entry.Merchant, entry.ProviderUUID,
		entry.ServiceType, entry.Amount, entry.IGasCost, entry.ITax, fees,
		entry.Status, details, entry.Timestamp)
	if err != nil {
		return persistence.NewLedgerError("save", entry.EntryID, err)
	}

	return nil
}

func (r *LedgerRepository) FetchByTxID(ctx context.Context, txID string) (*models.LedgerEntry, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+ledgerColumns+" FROM ledger_entries WHERE tx_id = $1 ORDER BY created_at LIMIT 1",
		txID)

	entry, err := scanLedgerEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: tx %s", persistence.ErrEntryNotFound, txID)
	}

	if err != nil {
		return nil, persistence.NewLedgerError("fetch", txID, err)
	}

	return entry, nil
}

func (r *LedgerRepository) ListByPayer(ctx context.Context, payer string) ([]*models.LedgerEntry, error) {
	return r.list(ctx, "SELECT "+ledgerColumns+" FROM ledger_entries WHERE payer = $1 ORDER BY created_at", payer)
}

func (r *LedgerRepository) ListByStatus(ctx context.Context, status models.EntryStatus) ([]*models.LedgerEntry, error) {
	return r.list(ctx, "SELECT "+ledgerColumns+" FROM ledger_entries WHERE status = $1 ORDER BY created_at", status)
}

func (r *LedgerRepository) list(ctx context.Context, query string, arg any) ([]*models.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, persistence.NewLedgerError("list", "", err)
	}
	defer rows.Close()

	entries := make([]*models.LedgerEntry, 0)

	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, persistence.NewLedgerError("list", "", err)
		}

		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLedgerEntry(row rowScanner) (*models.LedgerEntry, error) {
	var (
		entry   models.LedgerEntry
		fees    []byte
		details []byte
	)

	err := row.Scan(&entry.EntryID, &entry.TxID, &entry.Payer, &entry.Merchant,
		&entry.ProviderUUID, &entry.ServiceType, &entry.Amount, &entry.IGasCost,
		&entry.ITax, &fees, &entry.Status, &details, &entry.Timestamp)
	if err != nil {
		return nil, err
	}

	if len(fees) > 0 {
		if err := json.Unmarshal(fees, &entry.Fees); err != nil {
			return nil, fmt.Errorf("failed to unmarshal fees: %w", err)
		}
	}

	if len(details) > 0 {
		if err := json.Unmarshal(details, &entry.BookingDetails); err != nil {
			return nil, fmt.Errorf("failed to unmarshal booking details: %w", err)
		}
	}

	return &entry, nil
}

type SnapshotRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

const snapshotColumns = `tx_id, payer, merchant, provider_uuid, service_type, amount, fees, created_at`

func (r *SnapshotRepository) Save(ctx context.Context, snapshot *models.Snapshot) error {
	fees, err := json.Marshal(snapshot.Fees)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot fees: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO settlement_snapshots (`+snapshotColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (tx_id) DO UPDATE
		SET amount = EXCLUDED.amount, fees = EXCLUDED.fees
	`, snapshot.TxID, snapshot.Payer, snapshot.Merchant, snapshot.ProviderUUID,
		snapshot.ServiceType, snapshot.Amount, fees, snapshot.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	return nil
}

func (r *SnapshotRepository) FetchByTxID(ctx context.Context, txID string) (*models.Snapshot, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+snapshotColumns+" FROM settlement_snapshots WHERE tx_id = $1", txID)

	snapshot, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: tx %s", persistence.ErrSnapshotNotFound, txID)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to fetch snapshot: %w", err)
	}

	return snapshot, nil
}

func (r *SnapshotRepository) LatestByProvider(ctx context.Context, providerUUID string) (*models.Snapshot, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+snapshotColumns+` FROM settlement_snapshots
		WHERE provider_uuid = $1 ORDER BY created_at DESC LIMIT 1
	`, providerUUID)

	snapshot, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: provider %s", persistence.ErrSnapshotNotFound, providerUUID)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest snapshot: %w", err)
	}

	return snapshot, nil
}

func scanSnapshot(row rowScanner) (*models.Snapshot, error) {
	var (
		snapshot models.Snapshot
		fees     []byte
	)

	err := row.Scan(&snapshot.TxID, &snapshot.Payer, &snapshot.Merchant,
		&snapshot.ProviderUUID, &snapshot.ServiceType, &snapshot.Amount,
		&fees, &snapshot.Timestamp)
	if err != nil {
		return nil, err
	}

	if len(fees) > 0 {
		if err := json.Unmarshal(fees, &snapshot.Fees); err != nil {
			return nil, fmt.Errorf("failed to unmarshal snapshot fees: %w", err)
		}
	}

	return &snapshot, nil
}
