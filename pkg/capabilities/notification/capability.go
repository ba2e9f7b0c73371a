// Package notification publishes in-app notifications to the clinic staff feed.
package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/clinicflow/clinicflow/pkg/models"
	"github.com/clinicflow/clinicflow/pkg/template"
	redis "github.com/redis/go-redis/v9"
)

const publishTimeout = 5 * time.Second

var (
	ErrStreamMissing    = errors.New("notification stream is required")
	ErrRecipientMissing = errors.New("notification recipient is required")
	ErrMessageMissing   = errors.New("notification message is required")
)

// Capability appends one notification to a Redis stream consumed by the
// clinic's in-app notification feed.
type Capability struct {
	Addr      string
	Stream    string
	Recipient string
	Message   string

	client redis.UniversalClient
}

func NewCapability(config map[string]any) (*Capability, error) {
	stream, _ := config["stream"].(string)
	if stream == "" {
		return nil, ErrStreamMissing
	}

	recipient, _ := config["recipient"].(string)
	if recipient == "" {
		return nil, ErrRecipientMissing
	}

	message, _ := config["message"].(string)
	if message == "" {
		return nil, ErrMessageMissing
	}

	addr, _ := config["addr"].(string)
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	if addr == "" {
		addr = "localhost:6379"
	}

	return &Capability{
		Addr:      addr,
		Stream:    stream,
		Recipient: recipient,
		Message:   message,
	}, nil
}

func (c *Capability) Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (any, error) {
	logger = logger.With("capability", "notification")

	recipient, err := template.RenderString(c.Recipient, &executionCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to render recipient: %w", err)
	}

	message, err := template.RenderString(c.Message, &executionCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to render message: %w", err)
	}

	client := c.client
	if client == nil {
		client = redis.NewClient(&redis.Options{Addr: c.Addr})
		defer func() {
			err := client.Close()
			if err != nil {
				logger.ErrorContext(ctx, "Error closing Redis client", "error", err)
			}
		}()
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	id, err := client.XAdd(pubCtx, &redis.XAddArgs{
		Stream: c.Stream,
		Values: map[string]any{
			"recipient":   recipient,
			"message":     message,
			"tenant_id":   executionCtx.TenantID,
			"workflow_id": executionCtx.WorkflowID,
			"created_at":  time.Now().UTC().Format(time.RFC3339),
		},
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to publish notification: %w", err)
	}

	logger.InfoContext(ctx, "Notification published", "stream", c.Stream, "recipient", recipient)

	return map[string]any{
		"success":    true,
		"message_id": id,
		"recipient":  recipient,
	}, nil
}

// WithClient replaces the Redis client used for publishing. Intended for tests.
func (c *Capability) WithClient(client redis.UniversalClient) *Capability {
	c.client = client

	return c
}
