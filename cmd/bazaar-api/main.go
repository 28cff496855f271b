package main

import (
	"context"
	"os"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/gardenlabs/bazaar/pkg/cmd"
	"github.com/gardenlabs/bazaar/pkg/log"
)

const defaultPort = 9091

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "bazaar-api",
		Usage:                 "Run transaction pipelines and query the ledger",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
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

			logger.InfoContext(ctx, "Initializing Bazaar API")

			stack, err := cmd.NewStack(ctx, logger, cmd.StackOptions{
				DatabaseURL:     command.String("database-url"),
				EventBusType:    command.String("event-bus"),
				PoolLookupMode:  command.String("pool-lookup-mode"),
				MarketplacePath: command.String("marketplace-path"),
				DefinitionsPath: command.String("definitions-path"),
				HoldPeriod:      command.Duration("hold-period"),
				WorkerID:        "api",
			})
			if err != nil {
				return err
			}

			defer stack.Close(ctx, logger)

			if err := stack.Poller.Start(""); err != nil {
				return err
			}

			api := NewAPI(logger, stack)

			if err := api.Start(command.Int("port")); err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
