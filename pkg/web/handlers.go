package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/gardenlabs/bazaar/pkg/amm"
	"github.com/gardenlabs/bazaar/pkg/ledger"
	"github.com/gardenlabs/bazaar/pkg/persistence"
	"github.com/gardenlabs/bazaar/pkg/workflow"
)

type APIHandlers struct {
	engine     *workflow.Engine
	repository *workflow.Repository
	manager    *ledger.Manager
	ammEngine  *amm.Engine
	snapshots  persistence.SnapshotRepository
	validator  *validator.Validate
}

func NewAPIHandlers(
	engine *workflow.Engine,
	repository *workflow.Repository,
	manager *ledger.Manager,
	ammEngine *amm.Engine,
	snapshots persistence.SnapshotRepository,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		engine:     engine,
		repository: repository,
		manager:    manager,
		ammEngine:  ammEngine,
		snapshots:  snapshots,
		validator:  validator,
	}
}

// RunExecution accepts a run and executes it asynchronously. The response
// carries the execution id to poll or decide against.
func (h *APIHandlers) RunExecution(c fiber.Ctx) error {
	var req RunExecutionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	def, err := h.repository.FetchByServiceType(c.Context(), req.ServiceType)
	if err != nil {
		if errors.Is(err, persistence.ErrDefinitionNotFound) {
			return notFound(c, "No workflow definition for service type "+req.ServiceType)
		}

		return internalError(c, err)
	}

	executionID := workflow.GenerateExecutionID()

	// The run outlives this request; detach it from the request context.
	go h.engine.Execute(context.WithoutCancel(c.Context()), executionID, def, req.Input)

	return c.Status(fiber.StatusAccepted).JSON(RunExecutionResponse{
		ExecutionID: executionID,
		ServiceType: req.ServiceType,
		Status:      string(workflow.StatusRunning),
	})
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Execution ID is required")
	}

	state, ok := h.engine.Store().Get(id)
	if !ok {
		return notFound(c, "Execution not found")
	}

	return c.JSON(state)
}

// SubmitDecision resolves a pending decision step. 404 when the run has no
// pending decision, 409 when the run finished already.
func (h *APIHandlers) SubmitDecision(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Execution ID is required")
	}

	var req DecisionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	if h.engine.SubmitDecision(id, req.Decision) {
		return c.JSON(fiber.Map{"execution_id": id, "accepted": true})
	}

	state, ok := h.engine.Store().Get(id)
	if !ok {
		return notFound(c, "Execution not found")
	}

	if state.Status == workflow.StatusCompleted || state.Status == workflow.StatusFailed {
		return conflict(c, "Execution already finished")
	}

	return notFound(c, "No pending decision for execution")
}

func (h *APIHandlers) ListLedgerEntries(c fiber.Ctx) error {
	if payer := c.Query("payer"); payer != "" {
		return c.JSON(h.manager.EntriesByPayer(payer))
	}

	return c.JSON(h.manager.Entries())
}

func (h *APIHandlers) GetSnapshot(c fiber.Ctx) error {
	txID := c.Params("txId")
	if txID == "" {
		return badRequest(c, "Transaction ID is required")
	}

	snapshot, err := h.snapshots.FetchByTxID(c.Context(), txID)
	if err != nil {
		if errors.Is(err, persistence.ErrSnapshotNotFound) {
			return notFound(c, "Snapshot not found")
		}

		return internalError(c, err)
	}

	return c.JSON(snapshot)
}

func (h *APIHandlers) LatestProviderSnapshot(c fiber.Ctx) error {
	providerUUID := c.Params("uuid")
	if providerUUID == "" {
		return badRequest(c, "Provider UUID is required")
	}

	snapshot, err := h.snapshots.LatestByProvider(c.Context(), providerUUID)
	if err != nil {
		if errors.Is(err, persistence.ErrSnapshotNotFound) {
			return notFound(c, "No snapshots for provider")
		}

		return internalError(c, err)
	}

	return c.JSON(snapshot)
}

func (h *APIHandlers) ListPools(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"pools":            h.ammEngine.Pools(),
		"global_liquidity": h.ammEngine.GlobalLiquidity(),
	})
}

func (h *APIHandlers) GetPool(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Pool ID is required")
	}

	pool, ok := h.ammEngine.Pool(id)
	if !ok {
		return notFound(c, "Pool not found")
	}

	return c.JSON(pool)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.repository.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Bazaar API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "Bazaar API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

// RegisterRoutes mounts every endpoint on the app.
func (h *APIHandlers) RegisterRoutes(app *fiber.App) {
	app.Get("/health", h.HealthCheck)

	app.Post("/executions", h.RunExecution)
	app.Get("/executions/:id", h.GetExecution)
	app.Post("/executions/:id/decision", h.SubmitDecision)

	app.Get("/ledger/entries", h.ListLedgerEntries)
	app.Get("/ledger/snapshots/:txId", h.GetSnapshot)
	app.Get("/ledger/providers/:uuid/latest", h.LatestProviderSnapshot)

	app.Get("/pools", h.ListPools)
	app.Get("/pools/:id", h.GetPool)
}
