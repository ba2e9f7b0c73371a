// Package webhook provides the generic HTTP capability for workflow actions.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/clinicflow/clinicflow/pkg/models"
	"github.com/clinicflow/clinicflow/pkg/template"
)

const defaultTimeoutSeconds = 30

var (
	// ErrWebhookURLInvalid is returned when the webhook URL is missing or invalid.
	ErrWebhookURLInvalid = errors.New("invalid webhook url")
	// ErrWebhookServerError is returned when the remote endpoint answers 5xx.
	ErrWebhookServerError = errors.New("server error during webhook call")
)

// Capability performs an HTTP call to a configured URL with optional headers,
// body and retry behavior. URL, header values and body support templating.
type Capability struct {
	URL     string
	Method  string
	Headers map[string]string
	Body    string
	Timeout time.Duration
	Retry   RetryConfig
}

// RetryConfig defines retry behavior for failed webhook calls.
type RetryConfig struct {
	Attempts int
	Delay    int
}

// NewCapability creates a webhook capability from action configuration.
func NewCapability(config map[string]any) (*Capability, error) {
	url, ok := config["url"].(string)
	if !ok || url == "" {
		return nil, fmt.Errorf("missing or invalid 'url' in configuration: %w", ErrWebhookURLInvalid)
	}

	method, _ := config["method"].(string)
	if method == "" {
		method = http.MethodPost
	}

	body, _ := config["body"].(string)

	headers := make(map[string]string)

	if headersConfig, exists := config["headers"]; exists {
		if headersMap, ok := headersConfig.(map[string]any); ok {
			for k, v := range headersMap {
				if strVal, ok := v.(string); ok {
					headers[k] = strVal
				}
			}
		}
	}

	retry := RetryConfig{Attempts: 1, Delay: 0}

	if retryConfig, exists := config["retry"]; exists {
		retry = parseRetryConfig(retryConfig)
	}

	timeout := defaultTimeoutSeconds * time.Second
	if seconds, ok := config["timeout_seconds"].(float64); ok && seconds > 0 {
		timeout = time.Duration(seconds) * time.Second
	}

	return &Capability{
		URL:     url,
		Method:  strings.ToUpper(method),
		Headers: headers,
		Body:    body,
		Timeout: timeout,
		Retry:   retry,
	}, nil
}

func parseRetryConfig(retryConfig any) RetryConfig {
	retry := RetryConfig{Attempts: 1, Delay: 0}

	retryMap, ok := retryConfig.(map[string]any)
	if !ok {
		return retry
	}

	if attempts, ok := retryMap["attempts"].(float64); ok {
		retry.Attempts = int(attempts)
	}

	if delay, ok := retryMap["delay"].(float64); ok {
		retry.Delay = int(delay)
	}

	return retry
}

// Execute performs the HTTP call with retry logic and returns the response as
// a structured result.
func (c *Capability) Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (any, error) {
	logger = logger.With("capability", "webhook")
	logger.InfoContext(ctx, "Executing webhook capability")

	var (
		lastErr error
		resp    *http.Response
	)

	for attempt := 1; attempt <= c.Retry.Attempts; attempt++ {
		if attempt > 1 {
			logger.InfoContext(ctx, fmt.Sprintf("Webhook retry attempt %d/%d", attempt, c.Retry.Attempts))
			time.Sleep(time.Duration(c.Retry.Delay) * time.Second)
		}

		req, err := c.buildRequest(ctx, &executionCtx)
		if err != nil {
			lastErr = err

			continue
		}

		client := &http.Client{Timeout: c.Timeout}

		resp, err = client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("webhook call failed: %w", err)

			continue
		}

		if resp.StatusCode >= http.StatusInternalServerError && attempt < c.Retry.Attempts {
			err = resp.Body.Close()
			if err != nil {
				logger.ErrorContext(ctx, "failed to close response body", "error", err)
			}

			lastErr = fmt.Errorf("status %d, retrying: %w", resp.StatusCode, ErrWebhookServerError)

			continue
		}

		break
	}

	if resp == nil {
		return nil, fmt.Errorf("all retry attempts failed, last error: %w", lastErr)
	}

	return processResponse(ctx, resp, logger)
}

func (c *Capability) buildRequest(ctx context.Context, executionCtx *models.ExecutionContext) (*http.Request, error) {
	url, err := template.RenderString(c.URL, executionCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to render url: %w", err)
	}

	var bodyReader io.Reader

	if c.Body != "" {
		body, err := template.RenderString(c.Body, executionCtx)
		if err != nil {
			return nil, fmt.Errorf("failed to render body: %w", err)
		}

		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, c.Method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range c.Headers {
		rendered, err := template.RenderString(value, executionCtx)
		if err != nil {
			return nil, fmt.Errorf("failed to render header %s: %w", key, err)
		}

		req.Header.Set(key, rendered)
	}

	return req, nil
}

func processResponse(ctx context.Context, resp *http.Response, logger *slog.Logger) (any, error) {
	defer func() {
		err := resp.Body.Close()
		if err != nil {
			logger.ErrorContext(ctx, "failed to close response body", "error", err)
		}
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var body any

	err = json.Unmarshal(bodyBytes, &body)
	if err != nil {
		body = string(bodyBytes)
	}

	result := map[string]any{
		"success": resp.StatusCode < http.StatusBadRequest,
		"status":  resp.StatusCode,
		"body":    body,
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return result, fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	logger.InfoContext(ctx, "Webhook call completed", "status", resp.StatusCode)

	return result, nil
}
