package models

import "time"

// ExecutionStatus is the lifecycle state of a workflow execution.
type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "pending"
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
)

// IsTerminal reports whether no further transitions are possible.
func (s ExecutionStatus) IsTerminal() bool {
	return s == ExecutionStatusCompleted || s == ExecutionStatusFailed
}

// ActionExecutionStatus is the lifecycle state of one action attempt.
type ActionExecutionStatus string

const (
	ActionExecutionStatusRunning   ActionExecutionStatus = "running"
	ActionExecutionStatusCompleted ActionExecutionStatus = "completed"
	ActionExecutionStatusFailed    ActionExecutionStatus = "failed"
)

// WorkflowExecution is one firing instance of a workflow. It is created by
// trigger intake, mutated only by the execution runner that owns it, and kept
// forever as an audit record. TriggerData is snapshotted at creation and
// immutable thereafter.
type WorkflowExecution struct {
	ID               string                     `json:"id"`
	WorkflowID       string                     `json:"workflow_id"`
	TenantID         string                     `json:"tenant_id"`
	Status           ExecutionStatus            `json:"status"`
	TriggerData      map[string]any             `json:"trigger_data,omitempty"`
	StartedAt        time.Time                  `json:"started_at"`
	CompletedAt      *time.Time                 `json:"completed_at,omitempty"`
	Error            string                     `json:"error,omitempty"`
	ActionExecutions []*WorkflowActionExecution `json:"action_executions"`
}

// WorkflowActionExecution records one action's attempt within one execution.
// Re-attempts supersede rather than duplicate: there is exactly one record per
// (execution, action) pair, holding the latest outcome.
type WorkflowActionExecution struct {
	ID          string                `json:"id"`
	ExecutionID string                `json:"execution_id"`
	ActionID    string                `json:"action_id"`
	ActionName  string                `json:"action_name"`
	Order       int                   `json:"order"`
	Status      ActionExecutionStatus `json:"status"`
	StartedAt   time.Time             `json:"started_at"`
	CompletedAt *time.Time            `json:"completed_at,omitempty"`
	Error       string                `json:"error,omitempty"`
	Result      any                   `json:"result,omitempty"`
}

// Skipped reports whether the action was short-circuited by its condition.
func (ae *WorkflowActionExecution) Skipped() bool {
	marker, ok := ae.Result.(map[string]any)
	if !ok {
		return false
	}

	skipped, _ := marker["skipped"].(bool)

	return skipped
}

// UpsertActionExecution records an action attempt, replacing any prior record
// for the same action.
func (e *WorkflowExecution) UpsertActionExecution(ae *WorkflowActionExecution) {
	for i, existing := range e.ActionExecutions {
		if existing.ActionID == ae.ActionID {
			e.ActionExecutions[i] = ae

			return
		}
	}

	e.ActionExecutions = append(e.ActionExecutions, ae)
}

// Duration returns the wall time from start to completion, or zero while the
// execution is still in flight.
func (e *WorkflowExecution) Duration() time.Duration {
	if e.CompletedAt == nil {
		return 0
	}

	return e.CompletedAt.Sub(e.StartedAt)
}
