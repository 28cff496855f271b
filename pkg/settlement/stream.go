// Package settlement forwards booked ledger entries to the settlement
// stream with their fee breakdown and sweeps processed bookings to
// completion.
package settlement

import (
	"context"
	"log/slog"
	"time"

	"github.com/gardenlabs/bazaar/pkg/eventbus"
	"github.com/gardenlabs/bazaar/pkg/events"
	"github.com/gardenlabs/bazaar/pkg/models"
	"github.com/gardenlabs/bazaar/pkg/persistence"
)

const (
	// Default fee rates applied to iGas when the entry carries no
	// explicit fee for the party.
	DefaultRootCAFee  = 0.02
	DefaultIndexerFee = 0.01
)

// Stream derives settlement snapshots from ledger entries. Fees are
// recorded for accounting only; the payer debit stays the entry amount.
type Stream struct {
	publisher  eventbus.EventPublisher
	snapshots  persistence.SnapshotRepository
	logger     *slog.Logger
	rootCAFee  float64
	indexerFee float64
}

func NewStream(publisher eventbus.EventPublisher, snapshots persistence.SnapshotRepository, logger *slog.Logger) *Stream {
	return &Stream{
		publisher:  publisher,
		snapshots:  snapshots,
		logger:     logger,
		rootCAFee:  DefaultRootCAFee,
		indexerFee: DefaultIndexerFee,
	}
}

// Forward attaches the fee breakdown and pushes the snapshot onto the
// settlement stream. Entry-supplied fees win over the computed defaults.
func (s *Stream) Forward(ctx context.Context, entry *models.LedgerEntry) (*models.Snapshot, error) {
	fees := make(map[string]float64, len(entry.Fees)+2)
	for party, fee := range entry.Fees {
		fees[party] = fee
	}

	if _, ok := fees["rootCA"]; !ok {
		fees["rootCA"] = entry.IGasCost * s.rootCAFee
	}

	if _, ok := fees["indexer"]; !ok {
		fees["indexer"] = entry.IGasCost * s.indexerFee
	}

	snapshot := &models.Snapshot{
		TxID:         entry.TxID,
		Payer:        entry.Payer,
		Merchant:     entry.Merchant,
		ProviderUUID: entry.ProviderUUID,
		ServiceType:  entry.ServiceType,
		Amount:       entry.Amount,
		Fees:         fees,
		Timestamp:    time.Now().UTC(),
	}

	if s.snapshots != nil {
		if err := s.snapshots.Save(ctx, snapshot); err != nil {
			s.logger.Warn("failed to persist snapshot", "tx_id", snapshot.TxID, "error", err)
		}
	}

	if s.publisher != nil {
		event := events.SettlementForwarded{
			BaseEvent: events.NewBaseEvent(events.SettlementForwardedEvent, entry.ServiceType),
			Snapshot:  *snapshot,
		}

		if err := s.publisher.Publish(ctx, snapshot.TxID, event); err != nil {
			return snapshot, err
		}
	}

	s.logger.Debug("settlement forwarded", "tx_id", snapshot.TxID, "amount", snapshot.Amount)

	return snapshot, nil
}
