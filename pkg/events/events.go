// Package events defines event types and structures for pipeline lifecycle
// notifications.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/gardenlabs/bazaar/pkg/models"
)

type EventType string

// Kafka topics.
const Topic = "bazaar.events"                    // Pipeline lifecycle events
const SettlementTopic = "bazaar.settlement"      // Forwarded ledger snapshots
const NotificationTopic = "bazaar.notifications" // User-facing decision prompts

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Execution lifecycle events.
	ExecutionStartedEvent   EventType = "execution.started"
	ExecutionCompletedEvent EventType = "execution.completed"
	ExecutionFailedEvent    EventType = "execution.failed"

	// Step-level events.
	StepStartedEvent       EventType = "step.started"
	StepCompletedEvent     EventType = "step.completed"
	DecisionRequestedEvent EventType = "decision.requested"
	DecisionTimedOutEvent  EventType = "decision.timed_out"

	// Economy events.
	TradeExecutedEvent       EventType = "trade.executed"
	LedgerEntryBookedEvent   EventType = "ledger.entry.booked"
	SettlementForwardedEvent EventType = "settlement.forwarded"
	PaymentProcessedEvent    EventType = "payment.processed"
)

type BaseEvent struct {
	ID          string         `json:"id"`
	Type        EventType      `json:"type"`
	Timestamp   time.Time      `json:"timestamp"`
	ServiceType string         `json:"service_type"`
	WorkerID    string         `json:"worker_id,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, serviceType string) BaseEvent {
	return BaseEvent{
		ID:          uuid.New().String(),
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		ServiceType: serviceType,
		Metadata:    make(map[string]any),
	}
}

type ExecutionStarted struct {
	BaseEvent

	ExecutionID  string         `json:"execution_id"`
	WorkflowName string         `json:"workflow_name"`
	Variables    map[string]any `json:"variables,omitempty"`
	Initiator    string         `json:"initiator,omitempty"`
}

func (e ExecutionStarted) GetType() EventType {
	return ExecutionStartedEvent
}

type ExecutionCompleted struct {
	BaseEvent

	ExecutionID   string         `json:"execution_id"`
	DurationMs    int64          `json:"duration_ms"`
	StepsExecuted int            `json:"steps_executed"`
	FinalResults  map[string]any `json:"final_results,omitempty"`
}

func (e ExecutionCompleted) GetType() EventType {
	return ExecutionCompletedEvent
}

type ExecutionFailed struct {
	BaseEvent

	ExecutionID  string         `json:"execution_id"`
	FailedStepID string         `json:"failed_step_id"`
	Error        string         `json:"error"`
	DurationMs   int64          `json:"duration_ms"`
	PartialState map[string]any `json:"partial_state,omitempty"`
}

func (e ExecutionFailed) GetType() EventType {
	return ExecutionFailedEvent
}

type StepStarted struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	StepID      string `json:"step_id"`
}

func (e StepStarted) GetType() EventType {
	return StepStartedEvent
}

type StepCompleted struct {
	BaseEvent

	ExecutionID string         `json:"execution_id"`
	StepID      string         `json:"step_id"`
	Outputs     map[string]any `json:"outputs,omitempty"`
	DurationMs  int64          `json:"duration_ms"`
}

func (e StepCompleted) GetType() EventType {
	return StepCompletedEvent
}

// DecisionRequested is published when a run suspends waiting for user
// input. Notification channels fan this out to the user.
type DecisionRequested struct {
	BaseEvent

	ExecutionID string   `json:"execution_id"`
	StepID      string   `json:"step_id"`
	Prompt      string   `json:"prompt,omitempty"`
	Channels    []string `json:"channels,omitempty"`
	TimeoutMs   int64    `json:"timeout_ms"`
}

func (e DecisionRequested) GetType() EventType {
	return DecisionRequestedEvent
}

type DecisionTimedOut struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	StepID      string `json:"step_id"`
	RoutedTo    string `json:"routed_to,omitempty"`
}

func (e DecisionTimedOut) GetType() EventType {
	return DecisionTimedOutEvent
}

type TradeExecuted struct {
	BaseEvent

	ExecutionID string       `json:"execution_id,omitempty"`
	Trade       models.Trade `json:"trade"`
}

func (e TradeExecuted) GetType() EventType {
	return TradeExecutedEvent
}

type LedgerEntryBooked struct {
	BaseEvent

	EntryID string  `json:"entry_id"`
	TxID    string  `json:"tx_id"`
	Payer   string  `json:"payer"`
	Amount  float64 `json:"amount"`
}

func (e LedgerEntryBooked) GetType() EventType {
	return LedgerEntryBookedEvent
}

// SettlementForwarded carries a ledger snapshot with its fee split to the
// settlement consumers.
type SettlementForwarded struct {
	BaseEvent

	Snapshot models.Snapshot `json:"snapshot"`
}

func (e SettlementForwarded) GetType() EventType {
	return SettlementForwardedEvent
}

type PaymentProcessed struct {
	BaseEvent

	TxID    string  `json:"tx_id"`
	Payer   string  `json:"payer"`
	Amount  float64 `json:"amount"`
	Success bool    `json:"success"`
	Reason  string  `json:"reason,omitempty"`
}

func (e PaymentProcessed) GetType() EventType {
	return PaymentProcessedEvent
}
