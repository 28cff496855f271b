// Package workflow runs declarative transaction pipelines: typed steps,
// conditional transitions, decision suspension and error routing.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/gardenlabs/bazaar/pkg/eventbus"
	"github.com/gardenlabs/bazaar/pkg/events"
	"github.com/gardenlabs/bazaar/pkg/models"
	"github.com/gardenlabs/bazaar/pkg/otelhelper"
	"github.com/gardenlabs/bazaar/pkg/registry"
	"github.com/gardenlabs/bazaar/pkg/template"
)

// ExecutionResult reports how a run ended. Failures are data, not panics;
// the caller decides how to present them.
type ExecutionResult struct {
	ExecutionID   string                   `json:"execution_id"`
	Success       bool                     `json:"success"`
	FailedStepID  string                   `json:"failed_step_id,omitempty"`
	Error         string                   `json:"error,omitempty"`
	StepsExecuted int                      `json:"steps_executed"`
	DurationMs    int64                    `json:"duration_ms"`
	Context       *models.ExecutionContext `json:"context,omitempty"`
}

type Engine struct {
	registry  *registry.Registry
	decisions *DecisionManager
	store     *ExecutionStore
	publisher eventbus.EventPublisher
	tracer    trace.Tracer
	logger    *slog.Logger
	workerID  string
}

func NewEngine(reg *registry.Registry, decisions *DecisionManager, store *ExecutionStore, publisher eventbus.EventPublisher, logger *slog.Logger, workerID string) *Engine {
	return &Engine{
		registry:  reg,
		decisions: decisions,
		store:     store,
		publisher: publisher,
		tracer:    otel.Tracer("bazaar/workflow"),
		logger:    logger,
		workerID:  workerID,
	}
}

func (e *Engine) Decisions() *DecisionManager {
	return e.decisions
}

func (e *Engine) Store() *ExecutionStore {
	return e.store
}

// SubmitDecision resolves a run suspended at a decision step. Returns false
// when nothing is pending for that execution id.
func (e *Engine) SubmitDecision(executionID string, decision any) bool {
	return e.decisions.Submit(executionID, decision)
}

func GenerateExecutionID() string {
	return "exec-" + uuid.New().String()[:8]
}

// Execute runs def to completion under executionID. It is safe to run many
// executions concurrently; they share the registry and whatever state the
// handlers touch, never the context.
func (e *Engine) Execute(ctx context.Context, executionID string, def *models.WorkflowDefinition, input map[string]any) *ExecutionResult {
	started := time.Now()

	executionCtx := models.NewExecutionContext(executionID, def.ServiceType, input)

	logger := e.logger.With(
		"execution_id", executionID,
		"workflow", def.Name,
		"service_type", def.ServiceType,
	)
	logger.Info("starting execution")

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.execute",
		attribute.String(otelhelper.ExecutionIDKey, executionID),
		attribute.String(otelhelper.ServiceTypeKey, def.ServiceType),
	)
	defer span.End()

	e.store.Start(executionID, def.ServiceType)

	startedEvent := events.ExecutionStarted{
		BaseEvent:    events.NewBaseEvent(events.ExecutionStartedEvent, def.ServiceType),
		ExecutionID:  executionID,
		WorkflowName: def.Name,
		Variables:    executionCtx.Snapshot(),
	}
	startedEvent.WorkerID = e.workerID
	e.publish(ctx, executionID, startedEvent)

	steps := def.StepIndex()
	currentStepID := def.InitialStep
	stepsExecuted := 0

	for {
		step, found := steps[currentStepID]
		if !found {
			return e.fail(ctx, span, logger, executionCtx, started, stepsExecuted, currentStepID,
				fmt.Errorf("%w: %s", ErrStepNotFound, currentStepID))
		}

		stepsExecuted++
		stepStarted := time.Now()

		stepLogger := logger.With("step_id", step.ID)
		stepLogger.Debug("executing step", "step_type", step.Type)

		e.publish(ctx, executionID, events.StepStarted{
			BaseEvent:   events.NewBaseEvent(events.StepStartedEvent, def.ServiceType),
			ExecutionID: executionID,
			StepID:      step.ID,
		})

		var stepErr error

		if step.IsDecision() {
			decision, err := e.awaitDecision(ctx, executionID, step, executionCtx, stepLogger)

			switch {
			case err == nil:
				executionCtx.Set("decision", decision)
			case errors.Is(err, ErrDecisionTimeout):
				timedOut := events.DecisionTimedOut{
					BaseEvent:   events.NewBaseEvent(events.DecisionTimedOutEvent, def.ServiceType),
					ExecutionID: executionID,
					StepID:      step.ID,
					RoutedTo:    step.OnTimeout,
				}
				e.publish(ctx, executionID, timedOut)

				if step.OnTimeout != "" {
					stepLogger.Warn("decision timed out, routing", "on_timeout", step.OnTimeout)
					e.store.SetStatus(executionID, StatusRunning, step.OnTimeout)
					currentStepID = step.OnTimeout

					continue
				}

				stepErr = err
			default:
				return e.fail(ctx, span, logger, executionCtx, started, stepsExecuted, step.ID, err)
			}
		} else {
			stepErr = e.runActions(ctx, step, executionCtx, stepLogger)
		}

		if stepErr == nil {
			for key, tmpl := range step.Outputs {
				executionCtx.Set(key, template.InterpolateString(tmpl, executionCtx))
			}

			e.publish(ctx, executionID, events.StepCompleted{
				BaseEvent:   events.NewBaseEvent(events.StepCompletedEvent, def.ServiceType),
				ExecutionID: executionID,
				StepID:      step.ID,
				DurationMs:  time.Since(stepStarted).Milliseconds(),
			})
		}

		if stepErr != nil {
			if step.ErrorHandling != nil && step.ErrorHandling.OnError != "" {
				stepLogger.Warn("step failed, routing to error handler",
					"error", stepErr, "on_error", step.ErrorHandling.OnError)
				executionCtx.Set("error", stepErr.Error())
				currentStepID = step.ErrorHandling.OnError

				continue
			}

			return e.fail(ctx, span, logger, executionCtx, started, stepsExecuted, step.ID, stepErr)
		}

		if def.IsFinal(currentStepID) {
			return e.succeed(ctx, span, logger, executionCtx, started, stepsExecuted)
		}

		nextStepID := nextStep(def, currentStepID, executionCtx)
		if nextStepID == "" {
			return e.fail(ctx, span, logger, executionCtx, started, stepsExecuted, currentStepID,
				fmt.Errorf("%w from step %s", ErrNoValidTransition, currentStepID))
		}

		e.store.SetStatus(executionID, StatusRunning, nextStepID)
		currentStepID = nextStepID
	}
}

func (e *Engine) awaitDecision(ctx context.Context, executionID string, step *models.Step, executionCtx *models.ExecutionContext, logger *slog.Logger) (any, error) {
	prompt := ""
	if step.DecisionPrompt != "" {
		if resolved, ok := template.InterpolateString(step.DecisionPrompt, executionCtx).(string); ok {
			prompt = resolved
		}
	}

	requested := events.DecisionRequested{
		BaseEvent:   events.NewBaseEvent(events.DecisionRequestedEvent, executionCtx.ServiceType),
		ExecutionID: executionID,
		StepID:      step.ID,
		Prompt:      prompt,
		Channels:    step.Notifications,
		TimeoutMs:   step.Timeout().Milliseconds(),
	}
	e.publish(ctx, executionID, requested)

	e.store.SetStatus(executionID, StatusWaitingDecision, step.ID)
	logger.Info("waiting for decision", "timeout", step.Timeout())

	decision, err := e.decisions.Await(ctx, executionID, step)

	e.store.SetStatus(executionID, StatusRunning, step.ID)

	return decision, err
}

// runActions executes the step's actions strictly in order. A handler that
// is not registered logs a warning and is skipped; a handler error stops
// the step.
func (e *Engine) runActions(ctx context.Context, step *models.Step, executionCtx *models.ExecutionContext, logger *slog.Logger) error {
	for _, action := range step.Actions {
		params, _ := template.Interpolate(action.Params, executionCtx).(map[string]any)

		handler, err := e.registry.CreateHandler(action.Type, params)
		if err != nil {
			if errors.Is(err, registry.ErrHandlerNotRegistered) {
				logger.Warn("no handler for action, skipping", "action_type", action.Type)

				continue
			}

			return fmt.Errorf("create handler %s: %w", action.Type, err)
		}

		update, err := handler.Execute(ctx, executionCtx, params, logger.With("action_type", action.Type))
		if err != nil {
			return fmt.Errorf("action %s: %w", action.Type, err)
		}

		executionCtx.Merge(update)
	}

	return nil
}

// nextStep scans transitions in definition order and takes the first whose
// condition evaluates true for the current context.
func nextStep(def *models.WorkflowDefinition, currentStepID string, executionCtx *models.ExecutionContext) string {
	for _, transition := range def.Transitions {
		if transition.From != currentStepID {
			continue
		}

		if template.Evaluate(transition.Condition, executionCtx) {
			return transition.To
		}
	}

	return ""
}

func (e *Engine) succeed(ctx context.Context, span trace.Span, logger *slog.Logger, executionCtx *models.ExecutionContext, started time.Time, stepsExecuted int) *ExecutionResult {
	duration := time.Since(started)

	result := &ExecutionResult{
		ExecutionID:   executionCtx.ID,
		Success:       true,
		StepsExecuted: stepsExecuted,
		DurationMs:    duration.Milliseconds(),
		Context:       executionCtx,
	}

	e.store.Finish(executionCtx.ID, result)

	completed := events.ExecutionCompleted{
		BaseEvent:     events.NewBaseEvent(events.ExecutionCompletedEvent, executionCtx.ServiceType),
		ExecutionID:   executionCtx.ID,
		DurationMs:    duration.Milliseconds(),
		StepsExecuted: stepsExecuted,
		FinalResults:  executionCtx.Snapshot(),
	}
	e.publish(ctx, executionCtx.ID, completed)

	logger.Info("execution completed", "steps_executed", stepsExecuted, "duration", duration)

	return result
}

func (e *Engine) fail(ctx context.Context, span trace.Span, logger *slog.Logger, executionCtx *models.ExecutionContext, started time.Time, stepsExecuted int, failedStepID string, err error) *ExecutionResult {
	duration := time.Since(started)

	otelhelper.SetError(span, err, attribute.String(otelhelper.StepIDKey, failedStepID))

	result := &ExecutionResult{
		ExecutionID:   executionCtx.ID,
		Success:       false,
		FailedStepID:  failedStepID,
		Error:         err.Error(),
		StepsExecuted: stepsExecuted,
		DurationMs:    duration.Milliseconds(),
		Context:       executionCtx,
	}

	e.store.Finish(executionCtx.ID, result)

	failed := events.ExecutionFailed{
		BaseEvent:    events.NewBaseEvent(events.ExecutionFailedEvent, executionCtx.ServiceType),
		ExecutionID:  executionCtx.ID,
		FailedStepID: failedStepID,
		Error:        err.Error(),
		DurationMs:   duration.Milliseconds(),
		PartialState: executionCtx.Snapshot(),
	}
	e.publish(ctx, executionCtx.ID, failed)

	logger.Error("execution failed", "failed_step_id", failedStepID, "error", err)

	return result
}

func (e *Engine) publish(ctx context.Context, key string, event eventbus.Event) {
	if e.publisher == nil {
		return
	}

	if err := e.publisher.Publish(ctx, key, event); err != nil {
		e.logger.Warn("failed to publish event", "event_type", event.GetType(), "error", err)
	}
}
