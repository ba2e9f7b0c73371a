// Package web provides HTTP handlers and REST API endpoints for workflow management.
package web

import "github.com/clinicflow/clinicflow/pkg/models"

// ActionRequest is one ordered step in a create or update request.
type ActionRequest struct {
	Name         string         `json:"name"          validate:"required"`
	Order        int            `json:"order"         validate:"min=0"`
	Type         string         `json:"type"          validate:"required,oneof=email sms webhook tag ticket notification"`
	Config       map[string]any `json:"config"`
	Condition    string         `json:"condition,omitempty"`
	DelaySeconds int            `json:"delay_seconds,omitempty" validate:"min=0"`
}

// CreateWorkflowRequest is the request body for creating a new workflow.
type CreateWorkflowRequest struct {
	TenantID      string          `json:"tenant_id"      validate:"required"`
	Name          string          `json:"name"           validate:"required,min=3"`
	Description   string          `json:"description"`
	IsEnabled     *bool           `json:"is_enabled,omitempty"`
	TriggerType   string          `json:"trigger_type"   validate:"required,oneof=time event"`
	TriggerConfig map[string]any  `json:"trigger_config"`
	StopOnError   bool            `json:"stop_on_error"`
	Actions       []ActionRequest `json:"actions"        validate:"dive"`
}

// UpdateWorkflowRequest is the request body for updating an existing
// workflow. All fields are optional to support partial updates. Action edits
// replace the whole list and only affect executions created afterwards.
type UpdateWorkflowRequest struct {
	Name          *string          `json:"name,omitempty"        validate:"omitempty,min=3"`
	Description   *string          `json:"description,omitempty"`
	IsEnabled     *bool            `json:"is_enabled,omitempty"`
	TriggerType   *string          `json:"trigger_type,omitempty" validate:"omitempty,oneof=time event"`
	TriggerConfig map[string]any   `json:"trigger_config,omitempty"`
	StopOnError   *bool            `json:"stop_on_error,omitempty"`
	Actions       *[]ActionRequest `json:"actions,omitempty"      validate:"omitempty,dive"`
}

// FireWorkflowRequest carries the trigger payload for a manual fire.
type FireWorkflowRequest struct {
	TriggerData map[string]any `json:"trigger_data"`
}

// FireWorkflowResponse acknowledges an accepted fire without waiting for the
// execution to finish.
type FireWorkflowResponse struct {
	ExecutionID string                 `json:"execution_id"`
	WorkflowID  string                 `json:"workflow_id"`
	Status      models.ExecutionStatus `json:"status"`
}
