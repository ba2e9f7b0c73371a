package email_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicflow/clinicflow/pkg/capabilities/email"
	"github.com/clinicflow/clinicflow/pkg/models"
)

func TestNewCapability_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		config  map[string]any
		wantErr error
	}{
		{
			name:    "missing endpoint",
			config:  map[string]any{"to": "a@b.c"},
			wantErr: email.ErrEndpointMissing,
		},
		{
			name:    "missing recipient",
			config:  map[string]any{"endpoint": "http://mail.local"},
			wantErr: email.ErrRecipientMissing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := email.NewCapability(tt.config)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestExecute_SendsRenderedMessage(t *testing.T) {
	t.Parallel()

	var payload map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &payload)
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"message_id": "m-1"}`))
	}))
	defer server.Close()

	capability, err := email.NewCapability(map[string]any{
		"endpoint": server.URL,
		"to":       "{{.trigger.email}}",
		"subject":  "Appointment confirmed",
		"body":     "See you at {{.trigger.time}}",
	})
	require.NoError(t, err)

	executionCtx := models.ExecutionContext{
		TenantID:    "tenant-1",
		TriggerData: map[string]any{"email": "patient@clinic.io", "time": "10:30"},
	}

	result, err := capability.Execute(t.Context(), executionCtx, slog.Default())
	require.NoError(t, err)

	assert.Equal(t, "patient@clinic.io", payload["to"])
	assert.Equal(t, "See you at 10:30", payload["body"])
	assert.Equal(t, "tenant-1", payload["tenant_id"])

	resultMap, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, resultMap["success"])
	assert.Equal(t, "patient@clinic.io", resultMap["to"])
}

func TestExecute_ProviderErrorFails(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	capability, err := email.NewCapability(map[string]any{
		"endpoint": server.URL,
		"to":       "a@b.c",
	})
	require.NoError(t, err)

	_, err = capability.Execute(t.Context(), models.ExecutionContext{}, slog.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
