package webhook_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicflow/clinicflow/pkg/capabilities/webhook"
	"github.com/clinicflow/clinicflow/pkg/models"
)

func testExecutionContext() models.ExecutionContext {
	return models.ExecutionContext{
		ExecutionID: "exec-1",
		WorkflowID:  "wf-1",
		TenantID:    "tenant-1",
		TriggerData: map[string]any{"patient_id": "p-42"},
		ActionResults: map[string]any{
			"lookup": map[string]any{"phone": "+5511999"},
		},
	}
}

func TestNewCapability_RequiresURL(t *testing.T) {
	t.Parallel()

	_, err := webhook.NewCapability(map[string]any{})
	require.Error(t, err)
	assert.ErrorIs(t, err, webhook.ErrWebhookURLInvalid)
}

func TestNewCapability_Defaults(t *testing.T) {
	t.Parallel()

	capability, err := webhook.NewCapability(map[string]any{"url": "http://example.com"})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, capability.Method)
	assert.Equal(t, 1, capability.Retry.Attempts)
}

func TestExecute_Success(t *testing.T) {
	t.Parallel()

	var receivedBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"received": true}`))
	}))
	defer server.Close()

	capability, err := webhook.NewCapability(map[string]any{
		"url":  server.URL,
		"body": `{"patient": "{{.trigger.patient_id}}", "phone": "{{.results.lookup.phone}}"}`,
	})
	require.NoError(t, err)

	result, err := capability.Execute(t.Context(), testExecutionContext(), slog.Default())
	require.NoError(t, err)

	resultMap, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, resultMap["success"])
	assert.Equal(t, http.StatusOK, resultMap["status"])

	var sent map[string]any
	require.NoError(t, json.Unmarshal(receivedBody, &sent))
	assert.Equal(t, "p-42", sent["patient"])
	assert.Equal(t, "+5511999", sent["phone"])
}

func TestExecute_TemplatedURLAndHeaders(t *testing.T) {
	t.Parallel()

	var (
		receivedPath   string
		receivedHeader string
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedPath = r.URL.Path
		receivedHeader = r.Header.Get("X-Tenant")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	capability, err := webhook.NewCapability(map[string]any{
		"url":    server.URL + "/patients/{{.trigger.patient_id}}",
		"method": "get",
		"headers": map[string]any{
			"X-Tenant": "{{.execution.tenant_id}}",
		},
	})
	require.NoError(t, err)

	_, err = capability.Execute(t.Context(), testExecutionContext(), slog.Default())
	require.NoError(t, err)

	assert.Equal(t, "/patients/p-42", receivedPath)
	assert.Equal(t, "tenant-1", receivedHeader)
}

func TestExecute_ClientErrorFails(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error": "bad payload"}`))
	}))
	defer server.Close()

	capability, err := webhook.NewCapability(map[string]any{"url": server.URL})
	require.NoError(t, err)

	result, err := capability.Execute(t.Context(), testExecutionContext(), slog.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")

	// The structured result is still returned for the audit record.
	resultMap, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, resultMap["success"])
}

func TestExecute_RetriesOnServerError(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)

			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	capability, err := webhook.NewCapability(map[string]any{
		"url": server.URL,
		"retry": map[string]any{
			"attempts": float64(3),
			"delay":    float64(0),
		},
	})
	require.NoError(t, err)

	result, err := capability.Execute(t.Context(), testExecutionContext(), slog.Default())
	require.NoError(t, err)

	resultMap, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, resultMap["success"])
	assert.Equal(t, int32(3), attempts.Load())
}
