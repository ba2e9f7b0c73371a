package models

// ActionType identifies the capability that performs an action's side effect.
type ActionType string

const (
	ActionTypeEmail        ActionType = "email"
	ActionTypeSMS          ActionType = "sms"
	ActionTypeWebhook      ActionType = "webhook"
	ActionTypeTag          ActionType = "tag"
	ActionTypeTicket       ActionType = "ticket"
	ActionTypeNotification ActionType = "notification"
)

// WorkflowAction is one ordered step of a workflow. Actions are read-only from
// the engine's perspective while an execution is consuming them; edits apply
// only to executions created afterwards.
type WorkflowAction struct {
	ID         string         `json:"id"`
	WorkflowID string         `json:"workflow_id"`
	Name       string         `json:"name"          validate:"required"`
	Order      int            `json:"order"         validate:"min=0"`
	Type       ActionType     `json:"type"          validate:"required,oneof=email sms webhook tag ticket notification"`
	Config     map[string]any `json:"config"`
	// Condition gates the action for a given execution. Empty means always run.
	Condition string `json:"condition,omitempty"`
	// DelaySeconds defers the action's effect after its condition passes,
	// suspending only the owning execution.
	DelaySeconds int `json:"delay_seconds,omitempty" validate:"min=0"`
}

// ResultKey is the name under which this action's result is addressable by
// later actions' conditions and config templates.
func (a *WorkflowAction) ResultKey() string {
	if a.Name != "" {
		return a.Name
	}

	return a.ID
}
