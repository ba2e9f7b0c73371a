// Package sms delivers workflow text messages through the clinic's SMS gateway.
package sms

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
	ErrEndpointMissing = errors.New("sms gateway endpoint is required")
	ErrRecipientMissing = errors.New("sms recipient is required")
	ErrMessageMissing   = errors.New("sms message is required")
)

// Capability sends one text message through the configured gateway endpoint.
type Capability struct {
	Endpoint string
	To       string
	Message  string
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

	message, _ := config["message"].(string)
	if message == "" {
		return nil, ErrMessageMissing
	}

	return &Capability{Endpoint: endpoint, To: to, Message: message}, nil
}

func (c *Capability) Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (any, error) {
	logger = logger.With("capability", "sms")

	to, err := template.RenderString(c.To, &executionCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to render recipient: %w", err)
	}

	message, err := template.RenderString(c.Message, &executionCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to render message: %w", err)
	}

	payload, err := json.Marshal(map[string]any{
		"to":        to,
		"message":   message,
		"tenant_id": executionCtx.TenantID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sms payload: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sms gateway call failed: %w", err)
	}

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			logger.ErrorContext(ctx, "failed to close response body", "error", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("sms gateway returned status %d: %s", resp.StatusCode, respBody)
	}

	logger.InfoContext(ctx, "SMS delivered to gateway", "to", to)

	return map[string]any{
		"success": true,
		"to":      to,
	}, nil
}
