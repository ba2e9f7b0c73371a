package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExecutionStatus_IsTerminal(t *testing.T) {
	t.Parallel()

	assert.False(t, ExecutionStatusPending.IsTerminal())
	assert.False(t, ExecutionStatusRunning.IsTerminal())
	assert.True(t, ExecutionStatusCompleted.IsTerminal())
	assert.True(t, ExecutionStatusFailed.IsTerminal())
}

func TestWorkflowExecution_UpsertActionExecution(t *testing.T) {
	t.Parallel()

	execution := &WorkflowExecution{ID: "exec-1"}

	first := &WorkflowActionExecution{ID: "ae-1", ActionID: "a1", Status: ActionExecutionStatusRunning}
	execution.UpsertActionExecution(first)
	assert.Len(t, execution.ActionExecutions, 1)

	second := &WorkflowActionExecution{ID: "ae-2", ActionID: "a2", Status: ActionExecutionStatusRunning}
	execution.UpsertActionExecution(second)
	assert.Len(t, execution.ActionExecutions, 2)

	// A re-attempt supersedes rather than duplicating.
	retry := &WorkflowActionExecution{ID: "ae-3", ActionID: "a1", Status: ActionExecutionStatusCompleted}
	execution.UpsertActionExecution(retry)
	assert.Len(t, execution.ActionExecutions, 2)
	assert.Equal(t, "ae-3", execution.ActionExecutions[0].ID)
	assert.Equal(t, ActionExecutionStatusCompleted, execution.ActionExecutions[0].Status)
}

func TestWorkflowActionExecution_Skipped(t *testing.T) {
	t.Parallel()

	skipped := &WorkflowActionExecution{Result: map[string]any{"skipped": true}}
	assert.True(t, skipped.Skipped())

	normal := &WorkflowActionExecution{Result: map[string]any{"success": true}}
	assert.False(t, normal.Skipped())

	scalar := &WorkflowActionExecution{Result: "ok"}
	assert.False(t, scalar.Skipped())

	empty := &WorkflowActionExecution{}
	assert.False(t, empty.Skipped())
}

func TestWorkflowExecution_Duration(t *testing.T) {
	t.Parallel()

	started := time.Now().UTC()
	execution := &WorkflowExecution{StartedAt: started}

	assert.Equal(t, time.Duration(0), execution.Duration())

	completed := started.Add(3 * time.Second)
	execution.CompletedAt = &completed
	assert.Equal(t, 3*time.Second, execution.Duration())
}

func TestNewExecutionContext(t *testing.T) {
	t.Parallel()

	execution := &WorkflowExecution{
		ID:          "exec-1",
		WorkflowID:  "wf-1",
		TenantID:    "tenant-1",
		TriggerData: map[string]any{"event": "appointment.created"},
	}

	executionCtx := NewExecutionContext(execution)

	assert.Equal(t, "exec-1", executionCtx.ExecutionID)
	assert.Equal(t, "wf-1", executionCtx.WorkflowID)
	assert.Equal(t, "tenant-1", executionCtx.TenantID)
	assert.Equal(t, "appointment.created", executionCtx.TriggerData["event"])
	assert.NotNil(t, executionCtx.ActionResults)

	executionCtx.RecordResult("first", map[string]any{"success": true})
	assert.Contains(t, executionCtx.ActionResults, "first")
}
