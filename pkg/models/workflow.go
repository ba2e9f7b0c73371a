// Package models defines the core domain records for clinic workflow automation.
package models

import (
	"fmt"
	"sort"
	"time"
)

// TriggerType identifies how a workflow is fired.
type TriggerType string

const (
	TriggerTypeTime  TriggerType = "time"  // Fired by the cron scheduler
	TriggerTypeEvent TriggerType = "event" // Fired by an external clinic event
)

// Workflow is a tenant-defined automation rule. It owns an ordered set of
// actions and a history of executions. Workflows are never deleted while
// executions reference them; they are soft-disabled via IsEnabled instead.
type Workflow struct {
	ID            string            `json:"id"`
	TenantID      string            `json:"tenant_id"      validate:"required"`
	Name          string            `json:"name"           validate:"required,min=3"`
	Description   string            `json:"description"`
	IsEnabled     bool              `json:"is_enabled"`
	TriggerType   TriggerType       `json:"trigger_type"   validate:"required,oneof=time event"`
	TriggerConfig map[string]any    `json:"trigger_config"`
	StopOnError   bool              `json:"stop_on_error"`
	Actions       []*WorkflowAction `json:"actions"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// SortedActions returns the workflow's actions in ascending Order. Duplicate
// Order values are a configuration error: the sequence is only well defined
// when the orders form a strict total order.
func (w *Workflow) SortedActions() ([]*WorkflowAction, error) {
	actions := make([]*WorkflowAction, len(w.Actions))
	copy(actions, w.Actions)

	sort.Slice(actions, func(i, j int) bool {
		return actions[i].Order < actions[j].Order
	})

	for i := 1; i < len(actions); i++ {
		if actions[i].Order == actions[i-1].Order {
			return nil, fmt.Errorf("workflow %s: duplicate action order %d (%s, %s)",
				w.ID, actions[i].Order, actions[i-1].ID, actions[i].ID)
		}
	}

	return actions, nil
}
