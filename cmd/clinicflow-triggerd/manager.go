// Package main provides the trigger daemon that turns cron ticks and clinic
// events into workflow fire requests.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/clinicflow/clinicflow/pkg/eventbus"
	"github.com/clinicflow/clinicflow/pkg/events"
	"github.com/clinicflow/clinicflow/pkg/models"
	"github.com/clinicflow/clinicflow/pkg/persistence"
	"github.com/clinicflow/clinicflow/pkg/protocol"
	"github.com/clinicflow/clinicflow/pkg/triggers/event"
	"github.com/clinicflow/clinicflow/pkg/triggers/schedule"
)

const restartLimit = 5

type TriggerManager struct {
	id              string
	logger          *slog.Logger
	persistence     persistence.Persistence
	eventBus        eventbus.EventBus
	runningTriggers map[string]protocol.Trigger
	triggerMutex    sync.RWMutex
	restartCount    int
}

func NewTriggerManager(
	id string,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	logger *slog.Logger,
) *TriggerManager {
	return &TriggerManager{
		id:              id,
		logger:          logger.With("module", "trigger_manager", "daemon_id", id),
		persistence:     persistence,
		eventBus:        eventBus,
		runningTriggers: make(map[string]protocol.Trigger),
	}
}

func (tm *TriggerManager) Start(ctx context.Context) {
	tmCtx, cancel := context.WithCancel(ctx)
	tm.logger.InfoContext(tmCtx, "Starting trigger manager")

	tm.signals(tmCtx, cancel)
	tm.run(tmCtx, cancel)
	tm.logger.InfoContext(tmCtx, "Trigger manager stopped")
}

func (tm *TriggerManager) restart(ctx context.Context, cancel context.CancelFunc) {
	tm.restartCount++

	// The reloaded triggers must outlive the context cancelled by stop.
	newCtx := context.WithoutCancel(ctx)

	tm.stop(ctx, cancel)

	if tm.restartCount > restartLimit {
		tm.logger.ErrorContext(ctx, "Restart limit reached, exiting...")
		os.Exit(1)
	} else {
		tm.logger.InfoContext(newCtx, "Restarting trigger manager...")
		tm.Start(newCtx)
	}
}

func (tm *TriggerManager) signals(ctx context.Context, cancel context.CancelFunc) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-signals
		tm.logger.InfoContext(ctx, "Received signal", "signal", sig)

		switch sig {
		case syscall.SIGHUP:
			tm.logger.InfoContext(ctx, "Reloading workflows...")
			tm.restart(ctx, cancel)
		case syscall.SIGINT, syscall.SIGTERM:
			tm.logger.InfoContext(ctx, "Shutting down gracefully...")
			tm.stop(ctx, cancel)
			os.Exit(0)
		default:
			tm.logger.WarnContext(ctx, "Unhandled signal received", "signal", sig)
		}
	}()
}

func (tm *TriggerManager) run(ctx context.Context, cancel context.CancelFunc) {
	workflows, err := tm.persistence.Workflows(ctx)
	if err != nil {
		tm.logger.ErrorContext(ctx, "Failed to fetch workflows", "error", err)
		tm.logger.InfoContext(ctx, "Retrying in 5 seconds...")

		time.Sleep(5 * time.Second)

		tm.restart(ctx, cancel)

		return
	}

	tm.logger.InfoContext(ctx, "Fetched workflows", "count", len(workflows))

	var wg sync.WaitGroup

	for _, workflow := range workflows {
		if !workflow.IsEnabled {
			tm.logger.InfoContext(ctx, "Skipping disabled workflow", "workflow_id", workflow.ID)

			continue
		}

		wg.Add(1)

		go func(wf *models.Workflow) {
			defer wg.Done()

			tm.startWorkflowTrigger(ctx, wf)
		}(workflow)
	}

	wg.Wait()
}

func (tm *TriggerManager) startWorkflowTrigger(ctx context.Context, workflow *models.Workflow) {
	logger := tm.logger.With("workflow_id", workflow.ID, "workflow_name", workflow.Name)
	logger.InfoContext(ctx, "Starting trigger for workflow", "trigger_type", workflow.TriggerType)

	trigger, err := tm.createTrigger(workflow)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to create trigger", "error", err)

		return
	}

	tm.triggerMutex.Lock()
	tm.runningTriggers[workflow.ID] = trigger
	tm.triggerMutex.Unlock()

	err = trigger.Start(ctx, tm.fireCallback())
	if err != nil {
		logger.ErrorContext(ctx, "Failed to start trigger", "error", err)

		tm.triggerMutex.Lock()
		delete(tm.runningTriggers, workflow.ID)
		tm.triggerMutex.Unlock()

		return
	}

	logger.InfoContext(ctx, "Started trigger successfully")

	<-ctx.Done()
}

func (tm *TriggerManager) createTrigger(workflow *models.Workflow) (protocol.Trigger, error) {
	switch workflow.TriggerType {
	case models.TriggerTypeTime:
		return schedule.NewTrigger(workflow.ID, workflow.TriggerConfig, tm.logger)
	default:
		return event.NewTrigger(workflow.ID, workflow.TriggerConfig, tm.logger)
	}
}

func (tm *TriggerManager) fireCallback() protocol.TriggerCallback {
	return func(ctx context.Context, workflowID string, triggerData map[string]any) error {
		logger := tm.logger.With("workflow_id", workflowID)
		logger.InfoContext(ctx, "Trigger fired, publishing fire request")

		fireEvent := events.WorkflowFireRequested{
			BaseEvent:   events.NewBaseEvent(events.WorkflowFireRequestedEvent, workflowID),
			TriggerData: triggerData,
		}
		fireEvent.WorkerID = tm.id

		err := tm.eventBus.Publish(ctx, workflowID, fireEvent)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to publish fire request", "error", err)

			return err
		}

		logger.InfoContext(ctx, "Published fire request", "event_id", fireEvent.ID)

		return nil
	}
}

func (tm *TriggerManager) stop(ctx context.Context, cancel context.CancelFunc) {
	tm.logger.InfoContext(ctx, "Stopping trigger manager")
	cancel()

	tm.triggerMutex.Lock()
	defer tm.triggerMutex.Unlock()

	for workflowID, trigger := range tm.runningTriggers {
		tm.logger.InfoContext(ctx, "Stopping trigger", "workflow_id", workflowID)

		err := trigger.Stop(ctx)
		if err != nil {
			tm.logger.ErrorContext(ctx, "Error stopping trigger", "workflow_id", workflowID, "error", err)
		}
	}

	tm.runningTriggers = make(map[string]protocol.Trigger)
	tm.logger.InfoContext(ctx, "All triggers stopped")
}
