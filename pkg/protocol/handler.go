// Package protocol declares the contracts between the pipeline engine and
// its pluggable action handlers.
package protocol

import (
	"context"
	"log/slog"

	"github.com/gardenlabs/bazaar/pkg/models"
)

// Handler executes one action of a pipeline step. Params arrive already
// interpolated against the execution context. The returned map is merged
// into the context under the action's result keys.
type Handler interface {
	Execute(ctx context.Context, executionCtx *models.ExecutionContext, params map[string]any, logger *slog.Logger) (map[string]any, error)
}

// HandlerFactory builds handlers for one action type. Factories are
// registered once at startup; Create may be called per execution.
type HandlerFactory interface {
	Create(config map[string]any) (Handler, error)
	ID() models.ActionType
}
