// Package web provides the HTTP surface for executions, ledger queries and
// liquidity pools.
package web

// RunExecutionRequest starts a pipeline run for a service type.
type RunExecutionRequest struct {
	ServiceType string         `json:"service_type" validate:"required,min=1"`
	Input       map[string]any `json:"input"`
}

// DecisionRequest resolves a run suspended at a decision step.
type DecisionRequest struct {
	Decision any `json:"decision" validate:"required"`
}

// RunExecutionResponse acknowledges an accepted run.
type RunExecutionResponse struct {
	ExecutionID string `json:"execution_id"`
	ServiceType string `json:"service_type"`
	Status      string `json:"status"`
}
