package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/gardenlabs/bazaar/pkg/models"
)

type pendingDecision struct {
	stepID string
	ch     chan any
}

// DecisionManager tracks runs suspended on user input. One pending decision
// per execution id; resolution, timeout and run cancellation all race on the
// same select so the timer is always stopped deterministically.
type DecisionManager struct {
	mu      sync.Mutex
	pending map[string]*pendingDecision
}

func NewDecisionManager() *DecisionManager {
	return &DecisionManager{
		pending: make(map[string]*pendingDecision),
	}
}

// Await suspends the calling run until a decision is submitted, the step
// timeout fires, or ctx is cancelled.
func (m *DecisionManager) Await(ctx context.Context, executionID string, step *models.Step) (any, error) {
	record := &pendingDecision{
		stepID: step.ID,
		ch:     make(chan any, 1),
	}

	m.mu.Lock()
	if _, exists := m.pending[executionID]; exists {
		m.mu.Unlock()

		return nil, ErrDecisionPending
	}

	m.pending[executionID] = record
	m.mu.Unlock()

	timer := time.NewTimer(step.Timeout())

	defer func() {
		timer.Stop()
		m.mu.Lock()
		delete(m.pending, executionID)
		m.mu.Unlock()
	}()

	select {
	case decision := <-record.ch:
		return decision, nil
	case <-timer.C:
		return nil, ErrDecisionTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Submit resolves the pending decision for executionID. Returns false when
// no run is waiting, which callers treat as a no-op.
func (m *DecisionManager) Submit(executionID string, decision any) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.pending[executionID]
	if !ok {
		return false
	}

	delete(m.pending, executionID)
	record.ch <- decision

	return true
}

// PendingStep reports the step a suspended run is waiting on.
func (m *DecisionManager) PendingStep(executionID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.pending[executionID]
	if !ok {
		return "", false
	}

	return record.stepID, true
}
