// Package cmd provides common initialization for command-line applications.
package cmd

import (
	"log/slog"

	"github.com/gardenlabs/bazaar/pkg/amm"
	"github.com/gardenlabs/bazaar/pkg/certs"
	"github.com/gardenlabs/bazaar/pkg/directory"
	"github.com/gardenlabs/bazaar/pkg/handlers/certcheck"
	"github.com/gardenlabs/bazaar/pkg/handlers/ledgerentry"
	"github.com/gardenlabs/bazaar/pkg/handlers/payment"
	"github.com/gardenlabs/bazaar/pkg/handlers/query"
	"github.com/gardenlabs/bazaar/pkg/handlers/trade"
	"github.com/gardenlabs/bazaar/pkg/handlers/webhook"
	"github.com/gardenlabs/bazaar/pkg/ledger"
	"github.com/gardenlabs/bazaar/pkg/registry"
)

// NewRegistry wires every native action handler against the shared
// services a worker holds.
func NewRegistry(log *slog.Logger, dir *directory.Directory, store *certs.Store, engine *amm.Engine, manager *ledger.Manager) *registry.Registry {
	reg := registry.NewRegistry(log)

	reg.RegisterHandler(query.NewFactory(dir))
	reg.RegisterHandler(certcheck.NewFactory(store))
	reg.RegisterHandler(trade.NewFactory(engine))
	reg.RegisterHandler(ledgerentry.NewFactory(manager))
	reg.RegisterHandler(payment.NewFactory(manager))
	reg.RegisterHandler(webhook.NewFactory())

	return reg
}
