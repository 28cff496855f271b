// Package registry maps action types to their handler factories.
package registry

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gardenlabs/bazaar/pkg/models"
	"github.com/gardenlabs/bazaar/pkg/protocol"
)

var ErrHandlerNotRegistered = errors.New("handler not registered")

type Registry struct {
	logger           *slog.Logger
	handlerFactories map[models.ActionType]protocol.HandlerFactory
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger:           log,
		handlerFactories: make(map[models.ActionType]protocol.HandlerFactory),
	}
}

func (r *Registry) RegisterHandler(factory protocol.HandlerFactory) {
	r.handlerFactories[factory.ID()] = factory
	r.logger.Debug("registered handler", "action_type", factory.ID())
}

func (r *Registry) CreateHandler(actionType models.ActionType, config map[string]any) (protocol.Handler, error) {
	factory, ok := r.handlerFactories[actionType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotRegistered, actionType)
	}

	return factory.Create(config)
}

func (r *Registry) RegisteredTypes() []models.ActionType {
	types := make([]models.ActionType, 0, len(r.handlerFactories))
	for actionType := range r.handlerFactories {
		types = append(types, actionType)
	}

	return types
}
