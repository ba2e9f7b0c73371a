package models

// ExecutionContext is the data visible to conditions and capability config
// templates during one execution: the snapshotted trigger payload plus the
// result of every prior action, addressable by action name.
type ExecutionContext struct {
	ExecutionID   string         `json:"execution_id"`
	WorkflowID    string         `json:"workflow_id"`
	TenantID      string         `json:"tenant_id"`
	TriggerData   map[string]any `json:"trigger_data,omitempty"`
	ActionResults map[string]any `json:"action_results,omitempty"`
}

// NewExecutionContext builds the context for a fresh execution.
func NewExecutionContext(execution *WorkflowExecution) *ExecutionContext {
	return &ExecutionContext{
		ExecutionID:   execution.ID,
		WorkflowID:    execution.WorkflowID,
		TenantID:      execution.TenantID,
		TriggerData:   execution.TriggerData,
		ActionResults: make(map[string]any),
	}
}

// RecordResult makes an action's result visible to subsequent actions.
func (c *ExecutionContext) RecordResult(key string, result any) {
	if c.ActionResults == nil {
		c.ActionResults = make(map[string]any)
	}

	c.ActionResults[key] = result
}
