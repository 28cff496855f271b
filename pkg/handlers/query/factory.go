package query

import (
	"github.com/gardenlabs/bazaar/pkg/directory"
	"github.com/gardenlabs/bazaar/pkg/models"
	"github.com/gardenlabs/bazaar/pkg/protocol"
)

type Factory struct {
	directory *directory.Directory
}

func NewFactory(dir *directory.Directory) *Factory {
	return &Factory{directory: dir}
}

func (f *Factory) Create(config map[string]any) (protocol.Handler, error) {
	return NewAction(f.directory, config)
}

func (f *Factory) ID() models.ActionType {
	return models.ActionServiceQuery
}
