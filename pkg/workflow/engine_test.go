package workflow

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardenlabs/bazaar/pkg/models"
	"github.com/gardenlabs/bazaar/pkg/protocol"
	"github.com/gardenlabs/bazaar/pkg/registry"
)

type stubHandler struct {
	result map[string]any
	err    error
	calls  *int
}

func (h stubHandler) Execute(_ context.Context, _ *models.ExecutionContext, _ map[string]any, _ *slog.Logger) (map[string]any, error) {
	if h.calls != nil {
		*h.calls++
	}

	return h.result, h.err
}

type stubFactory struct {
	id      models.ActionType
	handler protocol.Handler
}

func (f stubFactory) ID() models.ActionType { return f.id }

func (f stubFactory) Create(_ map[string]any) (protocol.Handler, error) {
	return f.handler, nil
}

func newTestEngine(t *testing.T, factories ...protocol.HandlerFactory) *Engine {
	t.Helper()

	reg := registry.NewRegistry(slog.Default())
	for _, factory := range factories {
		reg.RegisterHandler(factory)
	}

	return NewEngine(reg, NewDecisionManager(), NewExecutionStore(), nil, slog.Default(), "worker-test")
}

func queryDefinition() *models.WorkflowDefinition {
	return &models.WorkflowDefinition{
		Name:        "booking pipeline",
		ServiceType: "hotel",
		InitialStep: "extract",
		Steps: []*models.Step{
			{ID: "extract", Type: models.StepTypeAction},
			{ID: "query", Type: models.StepTypeAction, Actions: []models.Action{
				{Type: models.ActionServiceQuery},
			}},
			{ID: "pay", Type: models.StepTypeAction, Actions: []models.Action{
				{Type: models.ActionProcessPayment},
			}},
			{ID: "no_results", Type: models.StepTypeAction},
			{ID: "done", Type: models.StepTypeAction},
		},
		Transitions: []*models.Transition{
			{From: "extract", To: "query"},
			{From: "query", To: "pay", Condition: "{{providers.length}} > 0"},
			{From: "query", To: "no_results"},
			{From: "pay", To: "done"},
			{From: "no_results", To: "done"},
		},
		FinalSteps: []string{"done"},
	}
}

func TestExecuteRoutesOnProviderCount(t *testing.T) {
	payCalls := 0
	engine := newTestEngine(t,
		stubFactory{id: models.ActionServiceQuery, handler: stubHandler{result: map[string]any{
			"providers": []any{"p1", "p2"},
		}}},
		stubFactory{id: models.ActionProcessPayment, handler: stubHandler{
			result: map[string]any{"paymentProcessed": true},
			calls:  &payCalls,
		}},
	)

	result := engine.Execute(context.Background(), GenerateExecutionID(), queryDefinition(), nil)

	require.True(t, result.Success)
	assert.Equal(t, 1, payCalls)

	value, ok := result.Context.Get("paymentProcessed")
	require.True(t, ok)
	assert.Equal(t, true, value)
}

func TestExecuteRoutesToNoResultsBranch(t *testing.T) {
	payCalls := 0
	engine := newTestEngine(t,
		stubFactory{id: models.ActionServiceQuery, handler: stubHandler{result: map[string]any{
			"providers": []any{},
		}}},
		stubFactory{id: models.ActionProcessPayment, handler: stubHandler{calls: &payCalls}},
	)

	result := engine.Execute(context.Background(), GenerateExecutionID(), queryDefinition(), nil)

	require.True(t, result.Success)
	assert.Zero(t, payCalls, "payment must not run when no providers matched")
}

func TestExecuteTransitionDeterminism(t *testing.T) {
	for range 10 {
		engine := newTestEngine(t,
			stubFactory{id: models.ActionServiceQuery, handler: stubHandler{result: map[string]any{
				"providers": []any{"p1"},
			}}},
			stubFactory{id: models.ActionProcessPayment, handler: stubHandler{result: map[string]any{}}},
		)

		result := engine.Execute(context.Background(), GenerateExecutionID(), queryDefinition(), nil)
		require.True(t, result.Success)
	}
}

func TestExecuteMissingHandlerIsNonFatal(t *testing.T) {
	engine := newTestEngine(t)

	def := &models.WorkflowDefinition{
		Name:        "sparse pipeline",
		ServiceType: "hotel",
		InitialStep: "only",
		Steps: []*models.Step{
			{ID: "only", Type: models.StepTypeAction, Actions: []models.Action{
				{Type: models.ActionWebhook},
			}},
		},
		FinalSteps: []string{"only"},
	}

	result := engine.Execute(context.Background(), GenerateExecutionID(), def, nil)
	assert.True(t, result.Success)
}

func TestExecuteStepNotFound(t *testing.T) {
	engine := newTestEngine(t)

	def := &models.WorkflowDefinition{
		Name:        "broken pipeline",
		ServiceType: "hotel",
		InitialStep: "missing",
		Steps:       []*models.Step{{ID: "other", Type: models.StepTypeAction}},
		FinalSteps:  []string{"other"},
	}

	result := engine.Execute(context.Background(), GenerateExecutionID(), def, nil)
	require.False(t, result.Success)
	assert.Contains(t, result.Error, "step not found")
}

func TestExecuteNoValidTransitionFails(t *testing.T) {
	engine := newTestEngine(t)

	def := &models.WorkflowDefinition{
		Name:        "dead end",
		ServiceType: "hotel",
		InitialStep: "start",
		Steps: []*models.Step{
			{ID: "start", Type: models.StepTypeAction},
			{ID: "end", Type: models.StepTypeAction},
		},
		Transitions: []*models.Transition{
			{From: "start", To: "end", Condition: "{{nope}}"},
		},
		FinalSteps: []string{"end"},
	}

	result := engine.Execute(context.Background(), GenerateExecutionID(), def, nil)
	require.False(t, result.Success)
	assert.Contains(t, result.Error, "no valid transition")
	assert.Equal(t, "start", result.FailedStepID)
}

func TestExecuteErrorRouting(t *testing.T) {
	engine := newTestEngine(t,
		stubFactory{id: models.ActionTradeExecution, handler: stubHandler{err: errors.New("pool exhausted")}},
	)

	def := &models.WorkflowDefinition{
		Name:        "trade pipeline",
		ServiceType: "exchange",
		InitialStep: "trade",
		Steps: []*models.Step{
			{
				ID:            "trade",
				Type:          models.StepTypeAction,
				Actions:       []models.Action{{Type: models.ActionTradeExecution}},
				ErrorHandling: &models.ErrorHandling{OnError: "report"},
			},
			{ID: "report", Type: models.StepTypeAction},
		},
		FinalSteps: []string{"report"},
	}

	result := engine.Execute(context.Background(), GenerateExecutionID(), def, nil)
	require.True(t, result.Success)

	value, ok := result.Context.Get("error")
	require.True(t, ok)
	assert.Contains(t, value, "pool exhausted")
}

func TestExecuteUnhandledErrorFailsRun(t *testing.T) {
	engine := newTestEngine(t,
		stubFactory{id: models.ActionTradeExecution, handler: stubHandler{err: errors.New("pool exhausted")}},
	)

	def := &models.WorkflowDefinition{
		Name:        "trade pipeline",
		ServiceType: "exchange",
		InitialStep: "trade",
		Steps: []*models.Step{
			{ID: "trade", Type: models.StepTypeAction, Actions: []models.Action{{Type: models.ActionTradeExecution}}},
		},
		FinalSteps: []string{"trade"},
	}

	result := engine.Execute(context.Background(), GenerateExecutionID(), def, nil)
	require.False(t, result.Success)
	assert.Equal(t, "trade", result.FailedStepID)
	assert.Contains(t, result.Error, "pool exhausted")
}

func TestExecuteStepOutputs(t *testing.T) {
	engine := newTestEngine(t,
		stubFactory{id: models.ActionServiceQuery, handler: stubHandler{result: map[string]any{
			"providers": []any{"p1"},
		}}},
	)

	def := &models.WorkflowDefinition{
		Name:        "output pipeline",
		ServiceType: "hotel",
		InitialStep: "query",
		Steps: []*models.Step{
			{
				ID:      "query",
				Type:    models.StepTypeAction,
				Actions: []models.Action{{Type: models.ActionServiceQuery}},
				Outputs: map[string]string{"providerCount": "{{providers.length}}"},
			},
		},
		FinalSteps: []string{"query"},
	}

	result := engine.Execute(context.Background(), GenerateExecutionID(), def, nil)
	require.True(t, result.Success)

	value, ok := result.Context.Get("providerCount")
	require.True(t, ok)
	assert.Equal(t, 1, value)
}

func decisionDefinition(timeoutMs int64, onTimeout string) *models.WorkflowDefinition {
	step := &models.Step{
		ID:                   "approve",
		Type:                 models.StepTypeDecision,
		RequiresUserDecision: true,
		DecisionPrompt:       "Approve booking?",
		TimeoutMs:            timeoutMs,
		OnTimeout:            onTimeout,
	}

	return &models.WorkflowDefinition{
		Name:        "approval pipeline",
		ServiceType: "hotel",
		InitialStep: "approve",
		Steps: []*models.Step{
			step,
			{ID: "timed_out", Type: models.StepTypeAction},
			{ID: "done", Type: models.StepTypeAction},
		},
		Transitions: []*models.Transition{
			{From: "approve", To: "done", Condition: "{{decision}} === approved"},
			{From: "approve", To: "timed_out"},
			{From: "timed_out", To: "done"},
		},
		FinalSteps: []string{"done"},
	}
}

func TestExecuteDecisionSubmission(t *testing.T) {
	engine := newTestEngine(t)
	executionID := GenerateExecutionID()

	results := make(chan *ExecutionResult, 1)

	go func() {
		results <- engine.Execute(context.Background(), executionID, decisionDefinition(5000, "timed_out"), nil)
	}()

	require.Eventually(t, func() bool {
		return engine.SubmitDecision(executionID, "approved")
	}, time.Second, 5*time.Millisecond)

	select {
	case result := <-results:
		require.True(t, result.Success)

		value, ok := result.Context.Get("decision")
		require.True(t, ok)
		assert.Equal(t, "approved", value)
	case <-time.After(2 * time.Second):
		t.Fatal("execution did not finish")
	}
}

func TestExecuteDecisionTimeoutRouting(t *testing.T) {
	engine := newTestEngine(t)

	started := time.Now()
	result := engine.Execute(context.Background(), GenerateExecutionID(), decisionDefinition(100, "timed_out"), nil)
	elapsed := time.Since(started)

	require.True(t, result.Success)
	assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
	assert.Less(t, elapsed, 500*time.Millisecond)

	_, ok := result.Context.Get("decision")
	assert.False(t, ok, "timed out run must not carry a decision")
}

func TestExecuteDecisionTimeoutWithoutRouteFails(t *testing.T) {
	engine := newTestEngine(t)

	result := engine.Execute(context.Background(), GenerateExecutionID(), decisionDefinition(50, ""), nil)
	require.False(t, result.Success)
	assert.Equal(t, "approve", result.FailedStepID)
	assert.Contains(t, result.Error, "decision timed out")
}

func TestSubmitDecisionWithoutPendingRun(t *testing.T) {
	engine := newTestEngine(t)

	assert.False(t, engine.SubmitDecision("exec-unknown", "approved"))
}

func TestExecutionStoreLifecycle(t *testing.T) {
	engine := newTestEngine(t)
	executionID := GenerateExecutionID()

	go engine.Execute(context.Background(), executionID, decisionDefinition(5000, "timed_out"), nil)

	require.Eventually(t, func() bool {
		state, ok := engine.Store().Get(executionID)

		return ok && state.Status == StatusWaitingDecision
	}, time.Second, 5*time.Millisecond)

	engine.SubmitDecision(executionID, "approved")

	require.Eventually(t, func() bool {
		state, ok := engine.Store().Get(executionID)

		return ok && state.Status == StatusCompleted
	}, time.Second, 5*time.Millisecond)
}
