package event_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicflow/clinicflow/pkg/triggers/event"
)

func TestNewTrigger_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		workflowID string
		config     map[string]any
		wantErr    string
	}{
		{
			name:       "valid",
			workflowID: "wf-1",
			config:     map[string]any{"queue": "clinic-events", "event": "appointment.created"},
		},
		{
			name:       "queue only",
			workflowID: "wf-1",
			config:     map[string]any{"queue": "clinic-events"},
		},
		{
			name:       "missing queue",
			workflowID: "wf-1",
			config:     map[string]any{"event": "appointment.created"},
			wantErr:    "queue name is required",
		},
		{
			name:    "missing workflow id",
			config:  map[string]any{"queue": "clinic-events"},
			wantErr: "workflow id is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			trigger, err := event.NewTrigger(tt.workflowID, tt.config, slog.Default())

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.workflowID, trigger.WorkflowID)
		})
	}
}

func TestNewTrigger_ConnectionConfig(t *testing.T) {
	t.Parallel()

	trigger, err := event.NewTrigger("wf-1", map[string]any{
		"queue": "clinic-events",
		"connection": map[string]any{
			"addr":     "redis.internal:6380",
			"password": "secret",
			"ignored":  42,
		},
	}, slog.Default())
	require.NoError(t, err)

	assert.Equal(t, "redis.internal:6380", trigger.Connection["addr"])
	assert.Equal(t, "secret", trigger.Connection["password"])
	assert.NotContains(t, trigger.Connection, "ignored")
}
