// Package event provides the event-based trigger source backed by a Redis
// queue.
package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/clinicflow/clinicflow/pkg/protocol"
)

const popTimeout = 1 * time.Second

// Trigger fires a workflow whenever a matching event lands on a Redis list.
// The trigger config names the queue and an optional event-name filter; an
// empty filter fires on every message.
type Trigger struct {
	WorkflowID string
	Queue      string
	EventName  string
	Connection map[string]string

	client   redis.UniversalClient
	callback protocol.TriggerCallback
	logger   *slog.Logger
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewTrigger(workflowID string, config map[string]any, logger *slog.Logger) (*Trigger, error) {
	queue, _ := config["queue"].(string)
	eventName, _ := config["event"].(string)

	connectionConfig, _ := config["connection"].(map[string]any)

	connection := make(map[string]string)
	for k, v := range connectionConfig {
		if str, ok := v.(string); ok {
			connection[k] = str
		}
	}

	trigger := &Trigger{
		WorkflowID: workflowID,
		Queue:      queue,
		EventName:  eventName,
		Connection: connection,
		stopCh:     make(chan struct{}),
		logger: logger.With(
			"module", "event_trigger",
			"workflow_id", workflowID,
			"queue", queue,
		),
	}

	err := trigger.Validate()
	if err != nil {
		return nil, err
	}

	return trigger, nil
}

// WithClient overrides the Redis client, used by tests.
func (t *Trigger) WithClient(client redis.UniversalClient) *Trigger {
	t.client = client

	return t
}

func (t *Trigger) Validate() error {
	if t.WorkflowID == "" {
		return errors.New("event trigger workflow id is required")
	}

	if t.Queue == "" {
		return errors.New("event trigger queue name is required")
	}

	return nil
}

func (t *Trigger) Start(ctx context.Context, callback protocol.TriggerCallback) error {
	t.logger.InfoContext(ctx, "Starting event trigger")
	t.callback = callback

	if t.client == nil {
		err := t.initializeClient(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize redis client: %w", err)
		}
	}

	t.wg.Add(1)

	go t.consume(ctx)

	return nil
}

func (t *Trigger) initializeClient(ctx context.Context) error {
	addr := t.Connection["addr"]
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	if addr == "" {
		addr = "localhost:6379"
	}

	db := 0

	if dbStr := t.Connection["db"]; dbStr != "" {
		_, err := fmt.Sscanf(dbStr, "%d", &db)
		if err != nil {
			return fmt.Errorf("invalid db value: %w", err)
		}
	}

	t.client = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: t.Connection["password"],
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := t.client.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	t.logger.InfoContext(ctx, "Connected to redis", "addr", addr, "db", db)

	return nil
}

func (t *Trigger) consume(ctx context.Context) {
	defer t.wg.Done()

	t.logger.InfoContext(ctx, "Starting event consumer")

	for {
		select {
		case <-t.stopCh:
			t.logger.InfoContext(ctx, "Event consumer stopped")

			return
		case <-ctx.Done():
			t.logger.InfoContext(ctx, "Context cancelled, stopping event consumer")

			return
		default:
			err := t.processMessage(ctx)
			if err != nil {
				t.logger.ErrorContext(ctx, "Error processing message", "error", err)
				time.Sleep(1 * time.Second)
			}
		}
	}
}

func (t *Trigger) processMessage(ctx context.Context) error {
	result, err := t.client.BLPop(ctx, popTimeout, t.Queue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}

		return fmt.Errorf("failed to pop message from queue: %w", err)
	}

	if len(result) < 2 {
		return nil
	}

	message := result[1]

	var triggerData map[string]any

	err = json.Unmarshal([]byte(message), &triggerData)
	if err != nil {
		triggerData = map[string]any{"message": message}
	}

	if t.EventName != "" {
		name, _ := triggerData["event"].(string)
		if name != t.EventName {
			return nil
		}
	}

	if triggerData["timestamp"] == nil {
		triggerData["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	}

	triggerData["trigger_type"] = "event"

	t.logger.InfoContext(ctx, "Received matching event", "event", t.EventName)

	go func() {
		err := t.callback(ctx, t.WorkflowID, triggerData)
		if err != nil {
			t.logger.ErrorContext(ctx, "Failed to fire workflow", "error", err)
		}
	}()

	return nil
}

func (t *Trigger) Stop(ctx context.Context) error {
	t.logger.InfoContext(ctx, "Stopping event trigger")

	close(t.stopCh)
	t.wg.Wait()

	if t.client != nil {
		err := t.client.Close()
		if err != nil {
			t.logger.ErrorContext(ctx, "Error closing redis client", "error", err)
		}
	}

	return nil
}
