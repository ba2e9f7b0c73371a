// Package schedule provides the time-based trigger source.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/clinicflow/clinicflow/pkg/protocol"
)

// Trigger fires a workflow on a cron schedule. The cron expression and an
// optional timezone come from the workflow's trigger config.
type Trigger struct {
	WorkflowID string
	CronExpr   string
	Timezone   string

	cron     *cron.Cron
	callback protocol.TriggerCallback
	logger   *slog.Logger
}

func NewTrigger(workflowID string, config map[string]any, logger *slog.Logger) (*Trigger, error) {
	cronExpr, _ := config["cron"].(string)
	timezone, _ := config["timezone"].(string)

	trigger := &Trigger{
		WorkflowID: workflowID,
		CronExpr:   cronExpr,
		Timezone:   timezone,
		logger: logger.With(
			"module", "schedule_trigger",
			"workflow_id", workflowID,
		),
	}

	err := trigger.Validate()
	if err != nil {
		return nil, err
	}

	return trigger, nil
}

func (t *Trigger) Validate() error {
	if t.WorkflowID == "" {
		return errors.New("schedule trigger workflow id is required")
	}

	if t.CronExpr == "" {
		return errors.New("schedule trigger cron expression is required")
	}

	_, err := cron.ParseStandard(t.CronExpr)
	if err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	return nil
}

func (t *Trigger) Start(ctx context.Context, callback protocol.TriggerCallback) error {
	t.logger.InfoContext(ctx, "Starting schedule trigger", "cron", t.CronExpr)
	t.callback = callback

	opts := []cron.Option{}

	if t.Timezone != "" {
		loc, err := time.LoadLocation(t.Timezone)
		if err != nil {
			return fmt.Errorf("invalid timezone %q: %w", t.Timezone, err)
		}

		opts = append(opts, cron.WithLocation(loc))
	}

	t.cron = cron.New(opts...)

	_, err := t.cron.AddFunc(t.CronExpr, func() { t.fire(ctx) })
	if err != nil {
		return fmt.Errorf("failed to schedule trigger for workflow %s: %w", t.WorkflowID, err)
	}

	t.cron.Start()

	return nil
}

func (t *Trigger) fire(ctx context.Context) {
	triggerData := map[string]any{
		"trigger_type": "time",
		"cron":         t.CronExpr,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
	}

	// Fire on a separate goroutine so a slow intake never delays the
	// scheduler's other entries.
	go func() {
		err := t.callback(ctx, t.WorkflowID, triggerData)
		if err != nil {
			t.logger.ErrorContext(ctx, "Failed to fire workflow", "error", err)
		}
	}()
}

func (t *Trigger) Stop(ctx context.Context) error {
	t.logger.InfoContext(ctx, "Stopping schedule trigger")

	if t.cron != nil {
		<-t.cron.Stop().Done()
	}

	return nil
}
