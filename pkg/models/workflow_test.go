package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkflow_SortedActions(t *testing.T) {
	t.Parallel()

	workflow := &Workflow{
		ID: "wf-1",
		Actions: []*WorkflowAction{
			{ID: "a3", Order: 3},
			{ID: "a1", Order: 1},
			{ID: "a2", Order: 2},
		},
	}

	actions, err := workflow.SortedActions()
	require.NoError(t, err)
	require.Len(t, actions, 3)
	assert.Equal(t, "a1", actions[0].ID)
	assert.Equal(t, "a2", actions[1].ID)
	assert.Equal(t, "a3", actions[2].ID)

	// The workflow's own slice keeps its order.
	assert.Equal(t, "a3", workflow.Actions[0].ID)
}

func TestWorkflow_SortedActionsDuplicateOrder(t *testing.T) {
	t.Parallel()

	workflow := &Workflow{
		ID: "wf-1",
		Actions: []*WorkflowAction{
			{ID: "a1", Order: 1},
			{ID: "a2", Order: 1},
		},
	}

	_, err := workflow.SortedActions()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate action order")
}

func TestWorkflow_SortedActionsEmpty(t *testing.T) {
	t.Parallel()

	workflow := &Workflow{ID: "wf-1"}

	actions, err := workflow.SortedActions()
	require.NoError(t, err)
	assert.Empty(t, actions)
}

func TestWorkflowAction_ResultKey(t *testing.T) {
	t.Parallel()

	named := &WorkflowAction{ID: "a1", Name: "send email"}
	assert.Equal(t, "send email", named.ResultKey())

	unnamed := &WorkflowAction{ID: "a1"}
	assert.Equal(t, "a1", unnamed.ResultKey())
}
