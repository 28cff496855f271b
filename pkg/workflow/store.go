package workflow

import (
	"sync"
	"time"
)

type ExecutionStatus string

const (
	StatusRunning         ExecutionStatus = "running"
	StatusWaitingDecision ExecutionStatus = "waiting_decision"
	StatusCompleted       ExecutionStatus = "completed"
	StatusFailed          ExecutionStatus = "failed"
)

type ExecutionState struct {
	ExecutionID string           `json:"execution_id"`
	ServiceType string           `json:"service_type"`
	Status      ExecutionStatus  `json:"status"`
	CurrentStep string           `json:"current_step,omitempty"`
	StartedAt   time.Time        `json:"started_at"`
	FinishedAt  *time.Time       `json:"finished_at,omitempty"`
	Result      *ExecutionResult `json:"result,omitempty"`
}

// ExecutionStore keeps run state for the API surface. Runs are in-memory
// only; results disappear with the process, matching the ledger-is-truth
// durability model.
type ExecutionStore struct {
	mu     sync.RWMutex
	states map[string]*ExecutionState
}

func NewExecutionStore() *ExecutionStore {
	return &ExecutionStore{
		states: make(map[string]*ExecutionState),
	}
}

func (s *ExecutionStore) Start(executionID, serviceType string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[executionID] = &ExecutionState{
		ExecutionID: executionID,
		ServiceType: serviceType,
		Status:      StatusRunning,
		StartedAt:   time.Now().UTC(),
	}
}

func (s *ExecutionStore) SetStatus(executionID string, status ExecutionStatus, currentStep string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[executionID]
	if !ok {
		return
	}

	state.Status = status
	state.CurrentStep = currentStep
}

func (s *ExecutionStore) Finish(executionID string, result *ExecutionResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[executionID]
	if !ok {
		return
	}

	now := time.Now().UTC()
	state.FinishedAt = &now
	state.Result = result
	state.CurrentStep = ""

	if result.Success {
		state.Status = StatusCompleted
	} else {
		state.Status = StatusFailed
	}
}

func (s *ExecutionStore) Get(executionID string) (*ExecutionState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[executionID]

	return state, ok
}
