package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/clinicflow/clinicflow/pkg/eventbus"
	"github.com/clinicflow/clinicflow/pkg/events"
	"github.com/clinicflow/clinicflow/pkg/models"
	"github.com/clinicflow/clinicflow/pkg/otelhelper"
	"github.com/clinicflow/clinicflow/pkg/persistence"
)

// Runner drives one workflow execution through its state machine. It is the
// sole writer of its execution record: actions run strictly in order, and the
// next action starts only after the previous attempt reached a terminal
// status.
type Runner struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	dispatcher  *Dispatcher
	eventBus    eventbus.EventPublisher
	tracer      trace.Tracer
}

func NewRunner(
	logger *slog.Logger,
	persistence persistence.Persistence,
	dispatcher *Dispatcher,
	eventBus eventbus.EventPublisher,
	tracer trace.Tracer,
) *Runner {
	return &Runner{
		logger:      logger.With("module", "runner"),
		persistence: persistence,
		dispatcher:  dispatcher,
		eventBus:    eventBus,
		tracer:      tracer,
	}
}

// Run processes the execution to a terminal status. Errors are recorded on
// the execution itself; Run only returns an error when the execution could
// not even be transitioned, so callers can log it.
func (r *Runner) Run(ctx context.Context, workflow *models.Workflow, execution *models.WorkflowExecution) error {
	logger := r.logger.With(
		"workflow_id", workflow.ID,
		"execution_id", execution.ID,
		"tenant_id", execution.TenantID,
	)

	if r.tracer != nil {
		var span trace.Span

		ctx, span = otelhelper.StartSpan(ctx, r.tracer, "execution.run",
			attribute.String(otelhelper.WorkflowIDKey, workflow.ID),
			attribute.String(otelhelper.ExecutionIDKey, execution.ID),
			attribute.String(otelhelper.TenantIDKey, execution.TenantID),
		)
		defer span.End()
	}

	logger.InfoContext(ctx, "Starting workflow execution")

	actions, err := workflow.SortedActions()
	if err != nil {
		return r.fail(ctx, logger, execution, err.Error())
	}

	execution.Status = models.ExecutionStatusRunning

	err = r.persistence.SaveExecution(ctx, execution)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to persist running execution", "error", err)
	}

	startedEvent := events.ExecutionStarted{
		BaseEvent:   events.NewBaseEvent(events.ExecutionStartedEvent, workflow.ID),
		ExecutionID: execution.ID,
	}
	startedEvent.TenantID = execution.TenantID
	r.publish(ctx, logger, workflow.ID, startedEvent)

	executionCtx := models.NewExecutionContext(execution)

	var failures []string

	for _, action := range actions {
		result, err := r.dispatcher.Run(ctx, action, execution, executionCtx)
		if err != nil {
			if workflow.StopOnError {
				return r.fail(ctx, logger, execution, fmt.Sprintf("action %q: %v", action.ResultKey(), err))
			}

			failures = append(failures, fmt.Sprintf("action %q: %v", action.ResultKey(), err))

			continue
		}

		executionCtx.RecordResult(action.ResultKey(), result)
	}

	if len(failures) > 0 {
		return r.fail(ctx, logger, execution, strings.Join(failures, "; "))
	}

	return r.complete(ctx, logger, execution)
}

func (r *Runner) complete(ctx context.Context, logger *slog.Logger, execution *models.WorkflowExecution) error {
	now := time.Now().UTC()
	execution.Status = models.ExecutionStatusCompleted
	execution.CompletedAt = &now

	err := r.persistence.SaveExecution(ctx, execution)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to persist completed execution", "error", err)

		return err
	}

	logger.InfoContext(ctx, "Workflow execution completed", "duration", execution.Duration())

	event := events.ExecutionCompleted{
		BaseEvent:   events.NewBaseEvent(events.ExecutionCompletedEvent, execution.WorkflowID),
		ExecutionID: execution.ID,
		Duration:    execution.Duration(),
	}
	event.TenantID = execution.TenantID
	r.publish(ctx, logger, execution.WorkflowID, event)

	return nil
}

func (r *Runner) fail(ctx context.Context, logger *slog.Logger, execution *models.WorkflowExecution, reason string) error {
	now := time.Now().UTC()
	execution.Status = models.ExecutionStatusFailed
	execution.Error = reason
	execution.CompletedAt = &now

	err := r.persistence.SaveExecution(ctx, execution)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to persist failed execution", "error", err)

		return err
	}

	logger.WarnContext(ctx, "Workflow execution failed", "error", reason, "duration", execution.Duration())

	event := events.ExecutionFailed{
		BaseEvent:   events.NewBaseEvent(events.ExecutionFailedEvent, execution.WorkflowID),
		ExecutionID: execution.ID,
		Error:       reason,
		Duration:    execution.Duration(),
	}
	event.TenantID = execution.TenantID
	r.publish(ctx, logger, execution.WorkflowID, event)

	return nil
}

func (r *Runner) publish(ctx context.Context, logger *slog.Logger, key string, event eventbus.Event) {
	if r.eventBus == nil {
		return
	}

	err := r.eventBus.Publish(ctx, key, event)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to publish execution event", "error", err, "event_type", event.GetType())
	}
}
