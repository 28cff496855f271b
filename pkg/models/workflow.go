// Package models defines the core domain models for the transaction pipeline.
package models

import "time"

type StepType string

const (
	StepTypeAction   StepType = "action"
	StepTypeDecision StepType = "decision"
)

// ActionType enumerates the action handlers known to the pipeline. The
// registry still resolves handlers at runtime, but definitions are checked
// against this set when loaded.
type ActionType string

const (
	ActionServiceQuery     ActionType = "service_query"
	ActionTradeExecution   ActionType = "amm_trade"
	ActionCertificateCheck ActionType = "certificate_check"
	ActionLedgerEntry      ActionType = "ledger_entry"
	ActionProcessPayment   ActionType = "process_payment"
	ActionWebhook          ActionType = "webhook"
)

// Action is one effect executed by a step. Params values may contain
// {{path}} templates resolved against the execution context.
type Action struct {
	Type   ActionType     `json:"type"   validate:"required"`
	Params map[string]any `json:"params,omitempty"`
}

type ErrorHandling struct {
	OnError string `json:"on_error,omitempty"`
}

const DefaultDecisionTimeout = 30 * time.Second

type Step struct {
	ID                   string            `json:"id"                      validate:"required"`
	Name                 string            `json:"name"`
	Type                 StepType          `json:"type"                    validate:"required,oneof=action decision"`
	Actions              []Action          `json:"actions,omitempty"       validate:"dive"`
	RequiresUserDecision bool              `json:"requires_user_decision,omitempty"`
	DecisionPrompt       string            `json:"decision_prompt,omitempty"`
	TimeoutMs            int64             `json:"timeout,omitempty"`
	OnTimeout            string            `json:"on_timeout,omitempty"`
	Outputs              map[string]string `json:"outputs,omitempty"`
	ErrorHandling        *ErrorHandling    `json:"error_handling,omitempty"`
	Notifications        []string          `json:"notifications,omitempty"`
}

// Timeout returns the decision wait budget for the step.
func (s *Step) Timeout() time.Duration {
	if s.TimeoutMs <= 0 {
		return DefaultDecisionTimeout
	}

	return time.Duration(s.TimeoutMs) * time.Millisecond
}

func (s *Step) IsDecision() bool {
	return s.Type == StepTypeDecision || s.RequiresUserDecision
}

// Transition routes a run from one step to the next. An empty condition
// means "always". When several transitions share the same From, the first
// whose condition evaluates true wins, in definition order.
type Transition struct {
	From      string `json:"from"                validate:"required"`
	To        string `json:"to"                  validate:"required"`
	Condition string `json:"condition,omitempty"`
}

// WorkflowDefinition is the declarative description of one service's
// transaction pipeline. It is immutable once loaded; the engine never
// mutates it during a run.
type WorkflowDefinition struct {
	Name        string        `json:"name"         validate:"required,min=3"`
	ServiceType string        `json:"service_type" validate:"required"`
	InitialStep string        `json:"initial_step" validate:"required"`
	Steps       []*Step       `json:"steps"        validate:"required,min=1,dive"`
	Transitions []*Transition `json:"transitions,omitempty" validate:"dive"`
	FinalSteps  []string      `json:"final_steps"  validate:"required,min=1"`
}

// StepIndex builds the step-id lookup used for one run.
func (d *WorkflowDefinition) StepIndex() map[string]*Step {
	index := make(map[string]*Step, len(d.Steps))
	for _, step := range d.Steps {
		index[step.ID] = step
	}

	return index
}

func (d *WorkflowDefinition) IsFinal(stepID string) bool {
	for _, id := range d.FinalSteps {
		if id == stepID {
			return true
		}
	}

	return false
}
