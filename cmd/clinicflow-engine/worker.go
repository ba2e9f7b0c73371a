// Package main provides the workflow engine worker.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clinicflow/clinicflow/pkg/engine"
	"github.com/clinicflow/clinicflow/pkg/eventbus"
	"github.com/clinicflow/clinicflow/pkg/events"
	"github.com/clinicflow/clinicflow/pkg/otelhelper"
	"github.com/clinicflow/clinicflow/pkg/persistence"
	"github.com/clinicflow/clinicflow/pkg/registry"
)

const shutdownTimeout = 30 * time.Second

// Worker consumes fire requests from the event bus and hands them to the
// engine. Executions run concurrently; the worker only serializes intake.
type Worker struct {
	id       string
	logger   *slog.Logger
	engine   *engine.Engine
	eventBus eventbus.EventBus
}

func NewWorker(
	id string,
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *registry.Registry,
	eventBus eventbus.EventBus,
) *Worker {
	tracer, err := otelhelper.NewTracer(context.Background(), "clinicflow-engine")
	if err != nil {
		logger.Warn("Tracing disabled", "error", err)

		tracer = nil
	}

	return &Worker{
		id:       id,
		logger:   logger,
		engine:   engine.New(id, logger, persistence, registry, eventBus, tracer),
		eventBus: eventBus,
	}
}

func (w *Worker) Start(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Starting engine worker")

	err := w.eventBus.Handle(events.WorkflowFireRequestedEvent, w.handleFireRequested)
	if err != nil {
		return err
	}

	err = w.eventBus.Subscribe(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to subscribe to event bus", "error", err)

		return err
	}

	w.logger.InfoContext(ctx, "Engine worker started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	w.logger.InfoContext(ctx, "Shutting down engine worker...")

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	return w.engine.Shutdown(shutdownCtx)
}

func (w *Worker) handleFireRequested(ctx context.Context, event any) error {
	fireEvent, ok := event.(*events.WorkflowFireRequested)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event type for WorkflowFireRequested")

		return nil
	}

	logger := w.logger.With(
		"workflow_id", fireEvent.WorkflowID,
		"event_id", fireEvent.ID,
	)
	logger.InfoContext(ctx, "Processing fire request")

	execution, err := w.engine.Fire(ctx, fireEvent.WorkflowID, fireEvent.TriggerData)
	if err != nil {
		// Disabled and deleted workflows are routine between trigger
		// detection and intake; don't redeliver those requests.
		if errors.Is(err, engine.ErrWorkflowDisabled) || persistence.IsWorkflowNotFound(err) {
			logger.WarnContext(ctx, "Dropping fire request", "error", err)

			return nil
		}

		logger.ErrorContext(ctx, "Failed to fire workflow", "error", err)

		return err
	}

	logger.InfoContext(ctx, "Execution started", "execution_id", execution.ID)

	return nil
}
