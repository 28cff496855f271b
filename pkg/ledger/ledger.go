// Package ledger records every economically meaningful action as an
// append-only entry and drives the payment status machine.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gardenlabs/bazaar/pkg/eventbus"
	"github.com/gardenlabs/bazaar/pkg/events"
	"github.com/gardenlabs/bazaar/pkg/models"
	"github.com/gardenlabs/bazaar/pkg/persistence"
)

var ErrNonPositiveAmount = errors.New("ledger entry amount must be positive")

// SettlementStream receives booked entries for fee accounting. Implemented
// by pkg/settlement; declared here so the ledger stays import-cycle free.
type SettlementStream interface {
	Forward(ctx context.Context, entry *models.LedgerEntry) (*models.Snapshot, error)
}

// Manager is the single writer for ledger state. The in-memory list is the
// source of truth; disk persistence and settlement forwarding are
// best-effort mirrors, except on the payment path which persists
// synchronously.
type Manager struct {
	mu      sync.Mutex
	entries []*models.LedgerEntry
	byTxID  map[string]*models.LedgerEntry

	wallet    *Wallet
	repo      persistence.LedgerRepository
	stream    SettlementStream
	publisher eventbus.EventPublisher
	logger    *slog.Logger

	totalProcessed float64
}

func NewManager(wallet *Wallet, repo persistence.LedgerRepository, stream SettlementStream, publisher eventbus.EventPublisher, logger *slog.Logger) *Manager {
	return &Manager{
		entries:   make([]*models.LedgerEntry, 0),
		byTxID:    make(map[string]*models.LedgerEntry),
		wallet:    wallet,
		repo:      repo,
		stream:    stream,
		publisher: publisher,
		logger:    logger,
	}
}

func (m *Manager) Wallet() *Wallet {
	return m.wallet
}

// resolveAmount applies the fallback chain: snapshot amount, then booking
// totalAmount, price, baseAmount.
func resolveAmount(snapshot *models.Snapshot, details map[string]any) float64 {
	if snapshot != nil && snapshot.Amount > 0 {
		return snapshot.Amount
	}

	for _, key := range []string{"totalAmount", "price", "baseAmount"} {
		if amount, ok := asFloat(details[key]); ok && amount > 0 {
			return amount
		}
	}

	return 0
}

func asFloat(value any) (float64, bool) {
	switch typed := value.(type) {
	case float64:
		return typed, true
	case float32:
		return float64(typed), true
	case int:
		return float64(typed), true
	case int64:
		return float64(typed), true
	default:
		return 0, false
	}
}

// AddEntry books a transaction. The amount invariant is checked before
// anything is created; a non-positive amount books nothing.
func (m *Manager) AddEntry(ctx context.Context, snapshot *models.Snapshot, serviceType string, iGasCost float64, payer, merchant, providerUUID string, bookingDetails map[string]any) (*models.LedgerEntry, error) {
	amount := resolveAmount(snapshot, bookingDetails)
	if amount <= 0 {
		return nil, fmt.Errorf("%w: resolved %f", ErrNonPositiveAmount, amount)
	}

	txID := ""
	fees := map[string]float64{}

	if snapshot != nil {
		txID = snapshot.TxID

		for party, fee := range snapshot.Fees {
			fees[party] = fee
		}
	}

	if txID == "" {
		txID = "tx-" + uuid.New().String()
	}

	entry := &models.LedgerEntry{
		EntryID:        "entry-" + uuid.New().String()[:8],
		TxID:           txID,
		Timestamp:      time.Now().UTC(),
		Payer:          payer,
		Merchant:       merchant,
		ProviderUUID:   providerUUID,
		ServiceType:    serviceType,
		Amount:         amount,
		IGasCost:       iGasCost,
		Fees:           fees,
		Status:         models.EntryStatusPending,
		BookingDetails: bookingDetails,
	}

	m.mu.Lock()
	m.entries = append(m.entries, entry)
	m.byTxID[entry.TxID] = entry
	m.mu.Unlock()

	m.logger.Info("ledger entry booked",
		"entry_id", entry.EntryID,
		"tx_id", entry.TxID,
		"payer", payer,
		"amount", amount,
	)

	// Fire-and-forget mirror to disk; the in-memory list stays
	// authoritative.
	go m.persist(context.WithoutCancel(ctx), entry)

	m.forward(ctx, entry)

	m.publish(ctx, entry.TxID, events.LedgerEntryBooked{
		BaseEvent: events.NewBaseEvent(events.LedgerEntryBookedEvent, serviceType),
		EntryID:   entry.EntryID,
		TxID:      entry.TxID,
		Payer:     payer,
		Amount:    amount,
	})

	return entry, nil
}

// ProcessPayment debits the payer and flips the entry to processed. The
// debit and the status change happen together or not at all. Insufficient
// funds fail the entry and return (false, nil); validation problems return
// an error without touching the entry.
func (m *Manager) ProcessPayment(ctx context.Context, entry *models.LedgerEntry, user string) (bool, error) {
	if entry.Amount <= 0 {
		return false, fmt.Errorf("%w: %f", ErrNonPositiveAmount, entry.Amount)
	}

	m.mu.Lock()

	err := m.wallet.Debit(user, entry.TxID, entry.EntryID, entry.Amount)
	if err != nil {
		if !errors.Is(err, ErrInsufficientFunds) {
			m.mu.Unlock()

			return false, err
		}

		if transitionErr := entry.TransitionTo(models.EntryStatusFailed); transitionErr != nil {
			m.mu.Unlock()

			return false, transitionErr
		}

		m.mu.Unlock()

		m.persist(ctx, entry)
		m.publishPayment(ctx, entry, user, false, err.Error())
		m.logger.Warn("payment failed", "entry_id", entry.EntryID, "user", user, "error", err)

		return false, nil
	}

	if err := entry.TransitionTo(models.EntryStatusProcessed); err != nil {
		m.mu.Unlock()

		return false, err
	}

	m.totalProcessed += entry.Amount
	m.mu.Unlock()

	// Payment-critical path persists synchronously.
	m.persist(ctx, entry)
	m.publishPayment(ctx, entry, user, true, "")

	m.logger.Info("payment processed", "entry_id", entry.EntryID, "user", user, "amount", entry.Amount)

	return true, nil
}

// CompleteBooking moves a processed entry to its terminal completed state.
func (m *Manager) CompleteBooking(ctx context.Context, entry *models.LedgerEntry) error {
	m.mu.Lock()

	if err := entry.TransitionTo(models.EntryStatusCompleted); err != nil {
		m.mu.Unlock()

		return err
	}
	m.mu.Unlock()

	m.persist(ctx, entry)
	m.logger.Info("booking completed", "entry_id", entry.EntryID, "tx_id", entry.TxID)

	return nil
}

func (m *Manager) EntryByTxID(txID string) (*models.LedgerEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.byTxID[txID]

	return entry, ok
}

func (m *Manager) EntriesByPayer(payer string) []*models.LedgerEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	matched := make([]*models.LedgerEntry, 0)

	for _, entry := range m.entries {
		if entry.Payer == payer {
			matched = append(matched, entry)
		}
	}

	return matched
}

func (m *Manager) Entries() []*models.LedgerEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := make([]*models.LedgerEntry, len(m.entries))
	copy(entries, m.entries)

	return entries
}

// ProcessedBefore returns processed entries booked before cutoff. The
// settlement poller uses this to sweep entries whose hold period elapsed.
func (m *Manager) ProcessedBefore(cutoff time.Time) []*models.LedgerEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	matched := make([]*models.LedgerEntry, 0)

	for _, entry := range m.entries {
		if entry.Status == models.EntryStatusProcessed && entry.Timestamp.Before(cutoff) {
			matched = append(matched, entry)
		}
	}

	return matched
}

func (m *Manager) TotalProcessed() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.totalProcessed
}

func (m *Manager) persist(ctx context.Context, entry *models.LedgerEntry) {
	if m.repo == nil {
		return
	}

	if err := m.repo.Save(ctx, entry); err != nil {
		m.logger.Error("failed to persist ledger entry", "entry_id", entry.EntryID, "error", err)
	}
}

func (m *Manager) forward(ctx context.Context, entry *models.LedgerEntry) {
	if m.stream == nil {
		return
	}

	if _, err := m.stream.Forward(ctx, entry); err != nil {
		m.logger.Warn("settlement forward failed", "entry_id", entry.EntryID, "error", err)
	}
}

func (m *Manager) publishPayment(ctx context.Context, entry *models.LedgerEntry, user string, success bool, reason string) {
	m.publish(ctx, entry.TxID, events.PaymentProcessed{
		BaseEvent: events.NewBaseEvent(events.PaymentProcessedEvent, entry.ServiceType),
		TxID:      entry.TxID,
		Payer:     user,
		Amount:    entry.Amount,
		Success:   success,
		Reason:    reason,
	})
}

func (m *Manager) publish(ctx context.Context, key string, event eventbus.Event) {
	if m.publisher == nil {
		return
	}

	if err := m.publisher.Publish(ctx, key, event); err != nil {
		m.logger.Warn("failed to publish ledger event", "event_type", event.GetType(), "error", err)
	}
}
