// Package email delivers workflow emails through the clinic's mail provider.
package email

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
	// ErrEndpointMissing is returned when no provider endpoint is configured.
	ErrEndpointMissing = errors.New("email provider endpoint is required")
	// ErrRecipientMissing is returned when the recipient address is missing.
	ErrRecipientMissing = errors.New("email recipient is required")
)

// Capability sends one email through the configured provider endpoint.
// Recipient, subject and body support templating.
type Capability struct {
	Endpoint string
	To       string
	Subject  string
	Body     string
}

func NewCapability(config map[string]any) (*Capability, error) {
	endpoint, _ := config["endpoint"].(string)
	if endpoint == "" {
		return nil, ErrEndpointMissing
	}

	to, _ := config["to"].(string)
	if to == "" {
		return nil, ErrRecipientMissing
	}

	subject, _ := config["subject"].(string)
	body, _ := config["body"].(string)

	return &Capability{
		Endpoint: endpoint,
		To:       to,
		Subject:  subject,
		Body:     body,
	}, nil
}

// Execute posts the rendered message to the provider and returns its response.
func (c *Capability) Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (any, error) {
	logger = logger.With("capability", "email")

	to, err := template.RenderString(c.To, &executionCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to render recipient: %w", err)
	}

	subject, err := template.RenderString(c.Subject, &executionCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to render subject: %w", err)
	}

	body, err := template.RenderString(c.Body, &executionCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to render body: %w", err)
	}

	payload, err := json.Marshal(map[string]any{
		"to":        to,
		"subject":   subject,
		"body":      body,
		"tenant_id": executionCtx.TenantID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal email payload: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create provider request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("email provider call failed: %w", err)
	}

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			logger.ErrorContext(ctx, "failed to close response body", "error", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read provider response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("email provider returned status %d: %s", resp.StatusCode, respBody)
	}

	var providerResult map[string]any

	err = json.Unmarshal(respBody, &providerResult)
	if err != nil {
		providerResult = map[string]any{}
	}

	logger.InfoContext(ctx, "Email delivered to provider", "to", to, "status", resp.StatusCode)

	return map[string]any{
		"success":  true,
		"to":       to,
		"subject":  subject,
		"provider": providerResult,
	}, nil
}
