// Package ticket opens tickets in the clinic's support desk.
package ticket

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

const requestTimeout = 15 * time.Second

var (
	ErrEndpointMissing = errors.New("ticket service endpoint is required")
	ErrTitleMissing    = errors.New("ticket title is required")
)

// Capability creates one support ticket.
type Capability struct {
	Endpoint    string
	Title       string
	Description string
	Priority    string
	Assignee    string
}

func NewCapability(config map[string]any) (*Capability, error) {
	endpoint, _ := config["endpoint"].(string)
	if endpoint == "" {
		return nil, ErrEndpointMissing
	}

	title, _ := config["title"].(string)
	if title == "" {
		return nil, ErrTitleMissing
	}

	description, _ := config["description"].(string)

	priority, _ := config["priority"].(string)
	if priority == "" {
		priority = "normal"
	}

	assignee, _ := config["assignee"].(string)

	return &Capability{
		Endpoint:    endpoint,
		Title:       title,
		Description: description,
		Priority:    priority,
		Assignee:    assignee,
	}, nil
}

func (c *Capability) Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (any, error) {
	logger = logger.With("capability", "ticket")

	title, err := template.RenderString(c.Title, &executionCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to render title: %w", err)
	}

	description, err := template.RenderString(c.Description, &executionCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to render description: %w", err)
	}

	payload, err := json.Marshal(map[string]any{
		"title":       title,
		"description": description,
		"priority":    c.Priority,
		"assignee":    c.Assignee,
		"tenant_id":   executionCtx.TenantID,
		"source":      "workflow:" + executionCtx.WorkflowID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ticket payload: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create ticket service request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ticket service call failed: %w", err)
	}

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			logger.ErrorContext(ctx, "failed to close response body", "error", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read ticket service response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("ticket service returned status %d: %s", resp.StatusCode, respBody)
	}

	var created map[string]any

	err = json.Unmarshal(respBody, &created)
	if err != nil {
		created = map[string]any{}
	}

	logger.InfoContext(ctx, "Ticket created", "title", title, "priority", c.Priority)

	return map[string]any{
		"success": true,
		"title":   title,
		"ticket":  created,
	}, nil
}
