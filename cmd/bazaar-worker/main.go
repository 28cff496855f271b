package main

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/gardenlabs/bazaar/pkg/cmd"
	"github.com/gardenlabs/bazaar/pkg/log"
)

func main() {
	command := &cli.Command{
		Name:                  "bazaar-worker",
		Usage:                 "Consume booking requests and execute transaction pipelines",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "worker-id",
				Aliases: []string{"id"},
				Usage:   "Custom worker ID (auto-generated if not provided)",
				Sources: cli.EnvVars("WORKER_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (kafka, gochannel)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis connection URL for the booking request queue",
				Value:   "redis://localhost:6379",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "queue",
				Usage:   "Redis list holding booking requests",
				Value:   "bazaar:bookings",
				Sources: cli.EnvVars("BOOKING_QUEUE"),
			},
			&cli.StringFlag{
				Name:    "definitions-path",
				Usage:   "Directory of workflow definition JSON files loaded at startup",
				Sources: cli.EnvVars("DEFINITIONS_PATH"),
			},
			&cli.StringFlag{
				Name:    "marketplace-path",
				Usage:   "Marketplace seed file (pools, providers, certificates, wallets)",
				Sources: cli.EnvVars("MARKETPLACE_PATH"),
			},
			&cli.StringFlag{
				Name:    "pool-lookup-mode",
				Usage:   "Pool lookup mode (strict, lenient)",
				Value:   "lenient",
				Sources: cli.EnvVars("POOL_LOOKUP_MODE"),
			},
			&cli.DurationFlag{
				Name:    "hold-period",
				Usage:   "Hold period before processed entries complete",
				Value:   5 * time.Minute,
				Sources: cli.EnvVars("HOLD_PERIOD"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			workerID := command.String("worker-id")
			if workerID == "" {
				workerID = "worker-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("worker").With("worker_id", workerID)
			logger.InfoContext(ctx, "Initializing Bazaar Worker")

			stack, err := cmd.NewStack(ctx, logger, cmd.StackOptions{
				DatabaseURL:     command.String("database-url"),
				EventBusType:    command.String("event-bus"),
				PoolLookupMode:  command.String("pool-lookup-mode"),
				MarketplacePath: command.String("marketplace-path"),
				DefinitionsPath: command.String("definitions-path"),
				HoldPeriod:      command.Duration("hold-period"),
				WorkerID:        workerID,
			})
			if err != nil {
				return err
			}

			defer stack.Close(ctx, logger)

			worker := NewWorker(workerID, stack, logger,
				command.String("redis-url"), command.String("queue"))

			return worker.Run(ctx)
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
