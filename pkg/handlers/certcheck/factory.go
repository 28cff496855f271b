package certcheck

import (
	"github.com/gardenlabs/bazaar/pkg/certs"
	"github.com/gardenlabs/bazaar/pkg/models"
	"github.com/gardenlabs/bazaar/pkg/protocol"
)

type Factory struct {
	store *certs.Store
}

func NewFactory(store *certs.Store) *Factory {
	return &Factory{store: store}
}

func (f *Factory) Create(config map[string]any) (protocol.Handler, error) {
	return NewAction(f.store, config)
}

func (f *Factory) ID() models.ActionType {
	return models.ActionCertificateCheck
}
