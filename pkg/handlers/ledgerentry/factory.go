package ledgerentry

import (
	"github.com/gardenlabs/bazaar/pkg/ledger"
	"github.com/gardenlabs/bazaar/pkg/models"
	"github.com/gardenlabs/bazaar/pkg/protocol"
)

type Factory struct {
	ledger *ledger.Manager
}

func NewFactory(manager *ledger.Manager) *Factory {
	return &Factory{ledger: manager}
}

func (f *Factory) Create(_ map[string]any) (protocol.Handler, error) {
	return NewAction(f.ledger)
}

func (f *Factory) ID() models.ActionType {
	return models.ActionLedgerEntry
}
