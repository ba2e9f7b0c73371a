// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicflow/clinicflow/pkg/models"
)

// CreateTestWorkflow creates an enabled event-triggered workflow with default
// values that can be overridden.
func CreateTestWorkflow(overrides ...func(*models.Workflow)) *models.Workflow {
	workflow := &models.Workflow{
		ID:          uuid.New().String(),
		TenantID:    "tenant-1",
		Name:        "Test Workflow",
		Description: "A workflow used in tests",
		IsEnabled:   true,
		TriggerType: models.TriggerTypeEvent,
		TriggerConfig: map[string]any{
			"queue": "clinic:events",
			"event": "appointment.created",
		},
		Actions:   []*models.WorkflowAction{},
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	for _, override := range overrides {
		override(workflow)
	}

	return workflow
}

// WithStopOnError sets the workflow's StopOnError policy.
func WithStopOnError(stop bool) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.StopOnError = stop
	}
}

// WithDisabled marks the workflow as disabled.
func WithDisabled() func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.IsEnabled = false
	}
}

// WithActions sets the workflow's action list and parents each action.
func WithActions(actions ...*models.WorkflowAction) func(*models.Workflow) {
	return func(w *models.Workflow) {
		for _, action := range actions {
			action.WorkflowID = w.ID
		}

		w.Actions = actions
	}
}

// CreateTestAction creates a webhook action with default values that can be
// overridden.
func CreateTestAction(overrides ...func(*models.WorkflowAction)) *models.WorkflowAction {
	action := &models.WorkflowAction{
		ID:    uuid.New().String(),
		Name:  "Test Action",
		Order: 1,
		Type:  models.ActionTypeWebhook,
		Config: map[string]any{
			"url": "http://localhost:8080/hook",
		},
	}

	for _, override := range overrides {
		override(action)
	}

	return action
}

// WithOrder sets the action's order.
func WithOrder(order int) func(*models.WorkflowAction) {
	return func(a *models.WorkflowAction) {
		a.Order = order
	}
}

// WithActionName sets the action's name.
func WithActionName(name string) func(*models.WorkflowAction) {
	return func(a *models.WorkflowAction) {
		a.Name = name
	}
}

// WithActionType sets the action's type and config.
func WithActionType(actionType models.ActionType, config map[string]any) func(*models.WorkflowAction) {
	return func(a *models.WorkflowAction) {
		a.Type = actionType
		a.Config = config
	}
}

// WithCondition sets the action's condition expression.
func WithCondition(condition string) func(*models.WorkflowAction) {
	return func(a *models.WorkflowAction) {
		a.Condition = condition
	}
}

// WithDelay sets the action's delay in seconds.
func WithDelay(seconds int) func(*models.WorkflowAction) {
	return func(a *models.WorkflowAction) {
		a.DelaySeconds = seconds
	}
}

// CreateTestExecution creates a pending execution for the given workflow.
func CreateTestExecution(workflow *models.Workflow, overrides ...func(*models.WorkflowExecution)) *models.WorkflowExecution {
	execution := &models.WorkflowExecution{
		ID:          "exec-" + uuid.New().String(),
		WorkflowID:  workflow.ID,
		TenantID:    workflow.TenantID,
		Status:      models.ExecutionStatusPending,
		TriggerData: map[string]any{"event": "appointment.created"},
		StartedAt:   time.Now().UTC(),
	}

	for _, override := range overrides {
		override(execution)
	}

	return execution
}
