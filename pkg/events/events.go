// Package events defines event types and structures for workflow lifecycle notifications.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicflow/clinicflow/pkg/models"
)

type EventType string

// Topic is the Kafka topic all workflow lifecycle events are published to.
const Topic = "clinicflow.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	WorkflowFireRequestedEvent EventType = "workflow.fire.requested"

	ExecutionStartedEvent   EventType = "workflow.execution.started"
	ExecutionCompletedEvent EventType = "workflow.execution.completed"
	ExecutionFailedEvent    EventType = "workflow.execution.failed"

	ActionCompletedEvent EventType = "workflow.action.completed"
	ActionFailedEvent    EventType = "workflow.action.failed"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id"`
	TenantID   string         `json:"tenant_id,omitempty"`
	WorkerID   string         `json:"worker_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
	}
}

// WorkflowFireRequested asks a worker to start a new execution of a workflow.
type WorkflowFireRequested struct {
	BaseEvent

	TriggerData map[string]any `json:"trigger_data,omitempty"`
}

func (w WorkflowFireRequested) GetType() EventType {
	return WorkflowFireRequestedEvent
}

type ExecutionStarted struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
}

func (e ExecutionStarted) GetType() EventType {
	return ExecutionStartedEvent
}

type ExecutionCompleted struct {
	BaseEvent

	ExecutionID string        `json:"execution_id"`
	Duration    time.Duration `json:"duration"`
}

func (e ExecutionCompleted) GetType() EventType {
	return ExecutionCompletedEvent
}

type ExecutionFailed struct {
	BaseEvent

	ExecutionID string        `json:"execution_id"`
	Error       string        `json:"error"`
	Duration    time.Duration `json:"duration"`
}

func (e ExecutionFailed) GetType() EventType {
	return ExecutionFailedEvent
}

type ActionCompleted struct {
	BaseEvent

	ExecutionID string            `json:"execution_id"`
	ActionID    string            `json:"action_id"`
	ActionType  models.ActionType `json:"action_type"`
	Skipped     bool              `json:"skipped,omitempty"`
	DurationMs  int64             `json:"duration_ms"`
}

func (a ActionCompleted) GetType() EventType {
	return ActionCompletedEvent
}

type ActionFailed struct {
	BaseEvent

	ExecutionID string            `json:"execution_id"`
	ActionID    string            `json:"action_id"`
	ActionType  models.ActionType `json:"action_type"`
	Error       string            `json:"error"`
	DurationMs  int64             `json:"duration_ms"`
}

func (a ActionFailed) GetType() EventType {
	return ActionFailedEvent
}
