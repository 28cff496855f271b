package trade

import (
	"github.com/gardenlabs/bazaar/pkg/amm"
	"github.com/gardenlabs/bazaar/pkg/models"
	"github.com/gardenlabs/bazaar/pkg/protocol"
)

type Factory struct {
	engine *amm.Engine
}

func NewFactory(engine *amm.Engine) *Factory {
	return &Factory{engine: engine}
}

func (f *Factory) Create(_ map[string]any) (protocol.Handler, error) {
	return NewAction(f.engine)
}

func (f *Factory) ID() models.ActionType {
	return models.ActionTradeExecution
}
