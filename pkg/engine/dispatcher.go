package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/clinicflow/clinicflow/pkg/condition"
	"github.com/clinicflow/clinicflow/pkg/eventbus"
	"github.com/clinicflow/clinicflow/pkg/events"
	"github.com/clinicflow/clinicflow/pkg/models"
	"github.com/clinicflow/clinicflow/pkg/otelhelper"
	"github.com/clinicflow/clinicflow/pkg/persistence"
	"github.com/clinicflow/clinicflow/pkg/registry"
)

// Dispatcher runs a single workflow action: condition gate, optional delay,
// capability invocation, and outcome recording. It owns the action execution
// record for the duration of the attempt.
type Dispatcher struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventPublisher
	evaluator   condition.Evaluator
	tracer      trace.Tracer
}

func NewDispatcher(
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *registry.Registry,
	eventBus eventbus.EventPublisher,
	tracer trace.Tracer,
) *Dispatcher {
	return &Dispatcher{
		logger:      logger.With("module", "dispatcher"),
		persistence: persistence,
		registry:    registry,
		eventBus:    eventBus,
		tracer:      tracer,
	}
}

// SkipMarker is the result recorded for an action whose condition evaluated
// to false. Conditions of later actions see this marker as the skipped
// action's result.
func SkipMarker() map[string]any {
	return map[string]any{"skipped": true}
}

// Run executes one action within an execution and returns the recorded
// result. A false condition short-circuits to a completed attempt carrying
// the skip marker. Any returned error has already been recorded on the
// action execution; the caller only decides whether it aborts the execution.
func (d *Dispatcher) Run(
	ctx context.Context,
	action *models.WorkflowAction,
	execution *models.WorkflowExecution,
	executionCtx *models.ExecutionContext,
) (any, error) {
	logger := d.logger.With(
		"execution_id", execution.ID,
		"action_id", action.ID,
		"action_type", action.Type,
		"action_order", action.Order,
	)

	if d.tracer != nil {
		var span trace.Span

		ctx, span = otelhelper.StartSpan(ctx, d.tracer, "action.dispatch",
			attribute.String(otelhelper.ExecutionIDKey, execution.ID),
			attribute.String(otelhelper.ActionIDKey, action.ID),
			attribute.String(otelhelper.ActionTypeKey, string(action.Type)),
		)
		defer span.End()
	}

	attempt := &models.WorkflowActionExecution{
		ID:          uuid.New().String(),
		ExecutionID: execution.ID,
		ActionID:    action.ID,
		ActionName:  action.Name,
		Order:       action.Order,
		Status:      models.ActionExecutionStatusRunning,
		StartedAt:   time.Now().UTC(),
	}
	execution.UpsertActionExecution(attempt)
	d.saveExecution(ctx, logger, execution)

	shouldRun, err := d.evaluator.Evaluate(action.Condition, executionCtx)
	if err != nil {
		evalErr := fmt.Errorf("condition evaluation: %w", err)

		return nil, d.finishFailed(ctx, logger, execution, attempt, action, evalErr)
	}

	if !shouldRun {
		logger.InfoContext(ctx, "Condition evaluated to false, skipping action")

		return d.finishCompleted(ctx, logger, execution, attempt, action, SkipMarker()), nil
	}

	if action.DelaySeconds > 0 {
		logger.InfoContext(ctx, "Delaying action", "delay_seconds", action.DelaySeconds)

		timer := time.NewTimer(time.Duration(action.DelaySeconds) * time.Second)
		select {
		case <-ctx.Done():
			timer.Stop()

			return nil, d.finishFailed(ctx, logger, execution, attempt, action, ctx.Err())
		case <-timer.C:
		}
	}

	capability, err := d.registry.CreateCapability(action.Type, action.Config)
	if err != nil {
		return nil, d.finishFailed(ctx, logger, execution, attempt, action, err)
	}

	result, err := capability.Execute(ctx, *executionCtx, logger)
	if err != nil {
		return nil, d.finishFailed(ctx, logger, execution, attempt, action, err)
	}

	return d.finishCompleted(ctx, logger, execution, attempt, action, result), nil
}

func (d *Dispatcher) finishCompleted(
	ctx context.Context,
	logger *slog.Logger,
	execution *models.WorkflowExecution,
	attempt *models.WorkflowActionExecution,
	action *models.WorkflowAction,
	result any,
) any {
	now := time.Now().UTC()
	attempt.Status = models.ActionExecutionStatusCompleted
	attempt.CompletedAt = &now
	attempt.Result = result
	d.saveExecution(ctx, logger, execution)

	logger.InfoContext(ctx, "Action completed")

	event := events.ActionCompleted{
		BaseEvent:   events.NewBaseEvent(events.ActionCompletedEvent, execution.WorkflowID),
		ExecutionID: execution.ID,
		ActionID:    action.ID,
		ActionType:  action.Type,
		Skipped:     attempt.Skipped(),
		DurationMs:  now.Sub(attempt.StartedAt).Milliseconds(),
	}
	event.TenantID = execution.TenantID
	d.publish(ctx, logger, execution.WorkflowID, event)

	return result
}

func (d *Dispatcher) finishFailed(
	ctx context.Context,
	logger *slog.Logger,
	execution *models.WorkflowExecution,
	attempt *models.WorkflowActionExecution,
	action *models.WorkflowAction,
	cause error,
) error {
	now := time.Now().UTC()
	attempt.Status = models.ActionExecutionStatusFailed
	attempt.CompletedAt = &now
	attempt.Error = cause.Error()
	d.saveExecution(ctx, logger, execution)

	logger.ErrorContext(ctx, "Action failed", "error", cause)

	event := events.ActionFailed{
		BaseEvent:   events.NewBaseEvent(events.ActionFailedEvent, execution.WorkflowID),
		ExecutionID: execution.ID,
		ActionID:    action.ID,
		ActionType:  action.Type,
		Error:       cause.Error(),
		DurationMs:  now.Sub(attempt.StartedAt).Milliseconds(),
	}
	event.TenantID = execution.TenantID
	d.publish(ctx, logger, execution.WorkflowID, event)

	return cause
}

func (d *Dispatcher) saveExecution(ctx context.Context, logger *slog.Logger, execution *models.WorkflowExecution) {
	err := d.persistence.SaveExecution(ctx, execution)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to persist execution state", "error", err)
	}
}

func (d *Dispatcher) publish(ctx context.Context, logger *slog.Logger, key string, event eventbus.Event) {
	if d.eventBus == nil {
		return
	}

	err := d.eventBus.Publish(ctx, key, event)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to publish action event", "error", err, "event_type", event.GetType())
	}
}
