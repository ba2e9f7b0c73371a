package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicflow/clinicflow/pkg/engine"
	"github.com/clinicflow/clinicflow/pkg/history"
	"github.com/clinicflow/clinicflow/pkg/models"
	"github.com/clinicflow/clinicflow/pkg/persistence"
	"github.com/clinicflow/clinicflow/pkg/persistence/file"
	"github.com/clinicflow/clinicflow/pkg/registry"
	"github.com/clinicflow/clinicflow/pkg/testutil"
	"github.com/clinicflow/clinicflow/pkg/web"
)

func setupTestApp(t *testing.T) (*fiber.App, persistence.Persistence) {
	t.Helper()

	logger := slog.Default()
	store := file.NewPersistence(t.TempDir())
	registryInstance := registry.NewRegistry(logger)
	eng := engine.New("test-api", logger, store, registryInstance, nil, nil)
	historyService := history.NewService(logger, store)
	validate := validator.New(validator.WithRequiredStructEnabled())

	handlers := web.NewAPIHandlers(store, eng, historyService, validate, registryInstance)

	app := fiber.New()

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Patch("/:id", handlers.UpdateWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Post("/:id/fire", handlers.FireWorkflow)
	w.Get("/:id/executions", handlers.GetWorkflowExecutions)
	w.Get("/:id/stats", handlers.GetWorkflowStats)

	app.Get("/executions/:id", handlers.GetExecution)
	app.Get("/health", handlers.HealthCheck)

	return app, store
}

func doJSON(t *testing.T, app *fiber.App, method, url string, payload any) *http.Response {
	t.Helper()

	var body io.Reader

	if payload != nil {
		if str, ok := payload.(string); ok {
			body = bytes.NewBufferString(str)
		} else {
			raw, err := json.Marshal(payload)
			require.NoError(t, err)
			body = bytes.NewBuffer(raw)
		}
	}

	req := httptest.NewRequest(method, url, body)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var out T

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, &out))

	return out
}

func TestAPIHandlers_CreateWorkflow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		requestBody    any
		expectedStatus int
	}{
		{
			name: "successful creation",
			requestBody: web.CreateWorkflowRequest{
				TenantID:    "tenant-1",
				Name:        "No-show follow up",
				TriggerType: "event",
				TriggerConfig: map[string]any{
					"queue": "clinic-events",
					"event": "appointment.no_show",
				},
				Actions: []web.ActionRequest{
					{Name: "notify", Order: 1, Type: "sms", Config: map[string]any{
						"endpoint": "http://gw", "to": "+55", "message": "hi",
					}},
				},
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "missing tenant",
			requestBody: web.CreateWorkflowRequest{
				Name:        "No-show follow up",
				TriggerType: "event",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "name too short",
			requestBody: web.CreateWorkflowRequest{
				TenantID:    "tenant-1",
				Name:        "ab",
				TriggerType: "event",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "unknown trigger type",
			requestBody: web.CreateWorkflowRequest{
				TenantID:    "tenant-1",
				Name:        "No-show follow up",
				TriggerType: "carrier-pigeon",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "unknown action type",
			requestBody: web.CreateWorkflowRequest{
				TenantID:    "tenant-1",
				Name:        "No-show follow up",
				TriggerType: "event",
				Actions: []web.ActionRequest{
					{Name: "step", Order: 1, Type: "fax"},
				},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "duplicate action order",
			requestBody: web.CreateWorkflowRequest{
				TenantID:    "tenant-1",
				Name:        "No-show follow up",
				TriggerType: "event",
				Actions: []web.ActionRequest{
					{Name: "first", Order: 1, Type: "webhook", Config: map[string]any{"url": "http://a"}},
					{Name: "second", Order: 1, Type: "webhook", Config: map[string]any{"url": "http://b"}},
				},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid json",
			requestBody:    "not-json",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app, _ := setupTestApp(t)

			resp := doJSON(t, app, http.MethodPost, "/workflows", tt.requestBody)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusCreated {
				workflow := decodeBody[models.Workflow](t, resp)
				assert.NotEmpty(t, workflow.ID)
				assert.Equal(t, "tenant-1", workflow.TenantID)
				assert.True(t, workflow.IsEnabled)
				require.Len(t, workflow.Actions, 1)
				assert.NotEmpty(t, workflow.Actions[0].ID)
				assert.Equal(t, workflow.ID, workflow.Actions[0].WorkflowID)
			}
		})
	}
}

func TestAPIHandlers_GetWorkflows_TenantFilter(t *testing.T) {
	t.Parallel()

	app, store := setupTestApp(t)

	first := testutil.CreateTestWorkflow()
	first.TenantID = "tenant-a"
	second := testutil.CreateTestWorkflow()
	second.TenantID = "tenant-b"
	require.NoError(t, store.SaveWorkflow(t.Context(), first))
	require.NoError(t, store.SaveWorkflow(t.Context(), second))

	resp := doJSON(t, app, http.MethodGet, "/workflows?tenant_id=tenant-a", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	result := decodeBody[struct {
		Workflows  []*models.Workflow `json:"workflows"`
		TotalCount int                `json:"total_count"`
	}](t, resp)

	require.Equal(t, 1, result.TotalCount)
	assert.Equal(t, first.ID, result.Workflows[0].ID)
}

func TestAPIHandlers_GetWorkflow_NotFound(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	resp := doJSON(t, app, http.MethodGet, "/workflows/missing", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	problem := decodeBody[map[string]any](t, resp)
	assert.Equal(t, "workflow_not_found", problem["type"])
}

func TestAPIHandlers_UpdateWorkflow(t *testing.T) {
	t.Parallel()

	app, store := setupTestApp(t)

	workflow := testutil.CreateTestWorkflow()
	require.NoError(t, store.SaveWorkflow(t.Context(), workflow))

	newName := "Renamed recall"
	stop := true

	resp := doJSON(t, app, http.MethodPatch, "/workflows/"+workflow.ID, web.UpdateWorkflowRequest{
		Name:        &newName,
		StopOnError: &stop,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	updated := decodeBody[models.Workflow](t, resp)
	assert.Equal(t, newName, updated.Name)
	assert.True(t, updated.StopOnError)

	// Untouched fields keep their values.
	assert.Equal(t, workflow.TenantID, updated.TenantID)
	assert.Equal(t, workflow.TriggerType, updated.TriggerType)
}

func TestAPIHandlers_UpdateWorkflow_DuplicateOrder(t *testing.T) {
	t.Parallel()

	app, store := setupTestApp(t)

	workflow := testutil.CreateTestWorkflow()
	require.NoError(t, store.SaveWorkflow(t.Context(), workflow))

	actions := []web.ActionRequest{
		{Name: "first", Order: 2, Type: "webhook", Config: map[string]any{"url": "http://a"}},
		{Name: "second", Order: 2, Type: "webhook", Config: map[string]any{"url": "http://b"}},
	}

	resp := doJSON(t, app, http.MethodPatch, "/workflows/"+workflow.ID, web.UpdateWorkflowRequest{
		Actions: &actions,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPIHandlers_DeleteWorkflow_Disables(t *testing.T) {
	t.Parallel()

	app, store := setupTestApp(t)

	workflow := testutil.CreateTestWorkflow()
	require.NoError(t, store.SaveWorkflow(t.Context(), workflow))

	resp := doJSON(t, app, http.MethodDelete, "/workflows/"+workflow.ID, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// The record survives as a disabled workflow so its execution
	// history stays reachable.
	stored, err := store.WorkflowByID(t.Context(), workflow.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsEnabled)
}

func TestAPIHandlers_FireWorkflow(t *testing.T) {
	t.Parallel()

	app, store := setupTestApp(t)

	workflow := testutil.CreateTestWorkflow(testutil.WithActions())
	require.NoError(t, store.SaveWorkflow(t.Context(), workflow))

	resp := doJSON(t, app, http.MethodPost, "/workflows/"+workflow.ID+"/fire", web.FireWorkflowRequest{
		TriggerData: map[string]any{"patient_id": "p-1"},
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	fired := decodeBody[web.FireWorkflowResponse](t, resp)
	assert.NotEmpty(t, fired.ExecutionID)
	assert.Equal(t, workflow.ID, fired.WorkflowID)
	assert.Equal(t, models.ExecutionStatusPending, fired.Status)
}

func TestAPIHandlers_FireWorkflow_Disabled(t *testing.T) {
	t.Parallel()

	app, store := setupTestApp(t)

	workflow := testutil.CreateTestWorkflow(testutil.WithDisabled())
	require.NoError(t, store.SaveWorkflow(t.Context(), workflow))

	resp := doJSON(t, app, http.MethodPost, "/workflows/"+workflow.ID+"/fire", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPIHandlers_FireWorkflow_NotFound(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/workflows/missing/fire", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_GetExecution_NotFound(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	resp := doJSON(t, app, http.MethodGet, "/executions/missing", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	problem := decodeBody[map[string]any](t, resp)
	assert.Equal(t, "execution_not_found", problem["type"])
}

func TestAPIHandlers_GetWorkflowExecutions(t *testing.T) {
	t.Parallel()

	app, store := setupTestApp(t)

	workflow := testutil.CreateTestWorkflow()
	require.NoError(t, store.SaveWorkflow(t.Context(), workflow))

	completed := testutil.CreateTestExecution(workflow, func(execution *models.WorkflowExecution) {
		execution.Status = models.ExecutionStatusCompleted
	})
	failed := testutil.CreateTestExecution(workflow, func(execution *models.WorkflowExecution) {
		execution.Status = models.ExecutionStatusFailed
	})
	require.NoError(t, store.SaveExecution(t.Context(), completed))
	require.NoError(t, store.SaveExecution(t.Context(), failed))

	resp := doJSON(t, app, http.MethodGet, "/workflows/"+workflow.ID+"/executions?status=failed", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	result := decodeBody[struct {
		Executions []*models.WorkflowExecution `json:"executions"`
		TotalCount int                         `json:"total_count"`
	}](t, resp)

	require.Equal(t, 1, result.TotalCount)
	assert.Equal(t, failed.ID, result.Executions[0].ID)
}

func TestAPIHandlers_GetWorkflowExecutions_BadTimeRange(t *testing.T) {
	t.Parallel()

	app, store := setupTestApp(t)

	workflow := testutil.CreateTestWorkflow()
	require.NoError(t, store.SaveWorkflow(t.Context(), workflow))

	resp := doJSON(t, app, http.MethodGet, "/workflows/"+workflow.ID+"/executions?from=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPIHandlers_GetWorkflowStats(t *testing.T) {
	t.Parallel()

	app, store := setupTestApp(t)

	workflow := testutil.CreateTestWorkflow()
	require.NoError(t, store.SaveWorkflow(t.Context(), workflow))

	completed := testutil.CreateTestExecution(workflow, func(execution *models.WorkflowExecution) {
		now := execution.StartedAt.Add(2 * time.Second)
		execution.Status = models.ExecutionStatusCompleted
		execution.CompletedAt = &now
	})
	require.NoError(t, store.SaveExecution(t.Context(), completed))

	resp := doJSON(t, app, http.MethodGet, "/workflows/"+workflow.ID+"/stats", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	stats := decodeBody[history.Stats](t, resp)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Completed)
}

func TestAPIHandlers_HealthCheck(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	resp := doJSON(t, app, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	result := decodeBody[map[string]any](t, resp)
	assert.Equal(t, "healthy", result["status"])
}
