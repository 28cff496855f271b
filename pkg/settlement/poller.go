package settlement

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/gardenlabs/bazaar/pkg/ledger"
)

const DefaultHoldPeriod = 5 * time.Minute

// Poller periodically completes processed entries whose hold period has
// elapsed. The hold gives external settlement a window to dispute before a
// booking becomes terminal.
type Poller struct {
	cron       *cron.Cron
	ledger     *ledger.Manager
	holdPeriod time.Duration
	logger     *slog.Logger
}

func NewPoller(manager *ledger.Manager, holdPeriod time.Duration, logger *slog.Logger) *Poller {
	if holdPeriod <= 0 {
		holdPeriod = DefaultHoldPeriod
	}

	return &Poller{
		cron:       cron.New(),
		ledger:     manager,
		holdPeriod: holdPeriod,
		logger:     logger,
	}
}

func (p *Poller) Start(spec string) error {
	if spec == "" {
		spec = "@every 30s"
	}

	_, err := p.cron.AddFunc(spec, func() {
		p.Sweep(context.Background())
	})
	if err != nil {
		return err
	}

	p.cron.Start()
	p.logger.Info("settlement poller started", "schedule", spec, "hold_period", p.holdPeriod)

	return nil
}

func (p *Poller) Stop() {
	<-p.cron.Stop().Done()
}

// Sweep completes every processed entry older than the hold period and
// reports how many it completed.
func (p *Poller) Sweep(ctx context.Context) int {
	cutoff := time.Now().UTC().Add(-p.holdPeriod)
	completed := 0

	for _, entry := range p.ledger.ProcessedBefore(cutoff) {
		if err := p.ledger.CompleteBooking(ctx, entry); err != nil {
			p.logger.Warn("failed to complete booking", "entry_id", entry.EntryID, "error", err)

			continue
		}

		completed++
	}

	if completed > 0 {
		p.logger.Info("settlement sweep completed bookings", "count", completed)
	}

	return completed
}
