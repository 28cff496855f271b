package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/gardenlabs/bazaar/pkg/amm"
	"github.com/gardenlabs/bazaar/pkg/certs"
	"github.com/gardenlabs/bazaar/pkg/directory"
	"github.com/gardenlabs/bazaar/pkg/eventbus"
	"github.com/gardenlabs/bazaar/pkg/ledger"
	"github.com/gardenlabs/bazaar/pkg/persistence"
	"github.com/gardenlabs/bazaar/pkg/settlement"
	"github.com/gardenlabs/bazaar/pkg/workflow"
)

// StackOptions carries the configuration shared by the api and worker
// binaries.
type StackOptions struct {
	DatabaseURL     string
	EventBusType    string
	PoolLookupMode  string
	MarketplacePath string
	DefinitionsPath string
	HoldPeriod      time.Duration
	WorkerID        string
}

// Stack is the fully wired pipeline: persistence, event bus, trade engine,
// ledger, settlement and the workflow engine on top.
type Stack struct {
	Persistence persistence.Persistence
	EventBus    eventbus.EventBus
	Directory   *directory.Directory
	Certs       *certs.Store
	AMM         *amm.Engine
	Wallet      *ledger.Wallet
	Ledger      *ledger.Manager
	Stream      *settlement.Stream
	Poller      *settlement.Poller
	Engine      *workflow.Engine
	Repository  *workflow.Repository
}

func NewStack(ctx context.Context, logger *slog.Logger, opts StackOptions) (*Stack, error) {
	p := NewPersistence(ctx, logger, opts.DatabaseURL)
	bus := NewEventBus(opts.EventBusType, logger)

	dir := directory.New()
	store := certs.NewStore(logger)
	ammEngine := amm.NewEngine(amm.LookupMode(opts.PoolLookupMode), bus, logger)

	wallet := ledger.NewWallet()
	stream := settlement.NewStream(bus, p.Snapshots(), logger)
	manager := ledger.NewManager(wallet, p.LedgerEntries(), stream, bus, logger)
	poller := settlement.NewPoller(manager, opts.HoldPeriod, logger)

	if err := SeedMarketplace(opts.MarketplacePath, logger, dir, store, ammEngine, wallet); err != nil {
		return nil, err
	}

	reg := NewRegistry(logger, dir, store, ammEngine, manager)
	engine := workflow.NewEngine(reg, workflow.NewDecisionManager(), workflow.NewExecutionStore(), bus, logger, opts.WorkerID)

	repository, err := workflow.NewRepository(p)
	if err != nil {
		return nil, err
	}

	if opts.DefinitionsPath != "" {
		loaded, err := repository.LoadDirectory(ctx, opts.DefinitionsPath)
		if err != nil {
			return nil, err
		}

		logger.Info("workflow definitions loaded", "count", loaded, "path", opts.DefinitionsPath)
	}

	return &Stack{
		Persistence: p,
		EventBus:    bus,
		Directory:   dir,
		Certs:       store,
		AMM:         ammEngine,
		Wallet:      wallet,
		Ledger:      manager,
		Stream:      stream,
		Poller:      poller,
		Engine:      engine,
		Repository:  repository,
	}, nil
}

func (s *Stack) Close(ctx context.Context, logger *slog.Logger) {
	s.Poller.Stop()

	if err := s.EventBus.Close(); err != nil {
		logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
	}

	if err := s.Persistence.Close(ctx); err != nil {
		logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
	}
}
