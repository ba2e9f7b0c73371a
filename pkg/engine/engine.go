// Package engine fires workflows and drives their executions to completion.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/clinicflow/clinicflow/pkg/eventbus"
	"github.com/clinicflow/clinicflow/pkg/models"
	"github.com/clinicflow/clinicflow/pkg/persistence"
	"github.com/clinicflow/clinicflow/pkg/registry"
)

// ErrWorkflowDisabled is returned by Fire for workflows with IsEnabled false.
var ErrWorkflowDisabled = errors.New("workflow is disabled")

// Engine is the trigger intake. Fire validates the workflow, creates a pending
// execution, and hands it to a runner on its own goroutine. Executions of the
// same or different workflows run concurrently and independently; only the
// actions within one execution are sequential.
type Engine struct {
	workerID    string
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventPublisher
	tracer      trace.Tracer

	wg sync.WaitGroup
}

func New(
	workerID string,
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *registry.Registry,
	eventBus eventbus.EventPublisher,
	tracer trace.Tracer,
) *Engine {
	return &Engine{
		workerID:    workerID,
		logger:      logger.With("module", "engine", "worker_id", workerID),
		persistence: persistence,
		registry:    registry,
		eventBus:    eventBus,
		tracer:      tracer,
	}
}

// Fire starts a new execution of the workflow with the given trigger payload.
// It returns the pending execution without waiting for the workflow to run;
// the caller can poll history by execution ID. Disabled or missing workflows
// produce an error and no execution record.
func (e *Engine) Fire(ctx context.Context, workflowID string, triggerData map[string]any) (*models.WorkflowExecution, error) {
	workflow, err := e.persistence.WorkflowByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if !workflow.IsEnabled {
		return nil, fmt.Errorf("workflow %s: %w", workflowID, ErrWorkflowDisabled)
	}

	if triggerData == nil {
		triggerData = make(map[string]any)
	}

	execution := &models.WorkflowExecution{
		ID:          "exec-" + uuid.New().String(),
		WorkflowID:  workflow.ID,
		TenantID:    workflow.TenantID,
		Status:      models.ExecutionStatusPending,
		TriggerData: triggerData,
		StartedAt:   time.Now().UTC(),
	}

	err = e.persistence.SaveExecution(ctx, execution)
	if err != nil {
		return nil, fmt.Errorf("failed to create execution: %w", err)
	}

	e.logger.InfoContext(ctx, "Fired workflow",
		"workflow_id", workflow.ID,
		"execution_id", execution.ID,
		"tenant_id", workflow.TenantID,
	)

	pending := *execution

	// The runner outlives the Fire request; detach it from the caller's
	// cancellation but keep its values for tracing.
	runCtx := context.WithoutCancel(ctx)

	e.wg.Add(1)

	go func() {
		defer e.wg.Done()

		dispatcher := NewDispatcher(e.logger, e.persistence, e.registry, e.eventBus, e.tracer)
		runner := NewRunner(e.logger, e.persistence, dispatcher, e.eventBus, e.tracer)

		err := runner.Run(runCtx, workflow, execution)
		if err != nil {
			e.logger.Error("Execution runner finished with error",
				"workflow_id", workflow.ID,
				"execution_id", execution.ID,
				"error", err,
			)
		}
	}()

	return &pending, nil
}

// Shutdown waits for in-flight executions to reach a terminal state, or for
// the context to expire.
func (e *Engine) Shutdown(ctx context.Context) error {
	done := make(chan struct{})

	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
