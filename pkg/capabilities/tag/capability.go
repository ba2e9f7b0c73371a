// Package tag assigns tags to patient records through the clinic record service.
package tag

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/clinicflow/clinicflow/pkg/models"
	"github.com/clinicflow/clinicflow/pkg/template"
)

const requestTimeout = 10 * time.Second

var (
	ErrEndpointMissing  = errors.New("record service endpoint is required")
	ErrPatientIDMissing = errors.New("patient id is required")
	ErrTagMissing       = errors.New("tag is required")
)

// Capability assigns one tag to one patient record.
type Capability struct {
	Endpoint  string
	PatientID string
	Tag       string
}

func NewCapability(config map[string]any) (*Capability, error) {
	endpoint, _ := config["endpoint"].(string)
	if endpoint == "" {
		return nil, ErrEndpointMissing
	}

	patientID, _ := config["patient_id"].(string)
	if patientID == "" {
		return nil, ErrPatientIDMissing
	}

	tagValue, _ := config["tag"].(string)
	if tagValue == "" {
		return nil, ErrTagMissing
	}

	return &Capability{Endpoint: endpoint, PatientID: patientID, Tag: tagValue}, nil
}

func (c *Capability) Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (any, error) {
	logger = logger.With("capability", "tag")

	patientID, err := template.RenderString(c.PatientID, &executionCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to render patient id: %w", err)
	}

	tagValue, err := template.RenderString(c.Tag, &executionCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to render tag: %w", err)
	}

	payload, err := json.Marshal(map[string]any{
		"patient_id": patientID,
		"tag":        tagValue,
		"tenant_id":  executionCtx.TenantID,
		"source":     "workflow:" + executionCtx.WorkflowID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tag payload: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create record service request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("record service call failed: %w", err)
	}

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			logger.ErrorContext(ctx, "failed to close response body", "error", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read record service response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("record service returned status %d: %s", resp.StatusCode, respBody)
	}

	logger.InfoContext(ctx, "Tag assigned", "patient_id", patientID, "tag", tagValue)

	return map[string]any{
		"success":    true,
		"patient_id": patientID,
		"tag":        tagValue,
	}, nil
}
