// Package history provides read-only queries over workflow execution records.
package history

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/clinicflow/clinicflow/pkg/models"
	"github.com/clinicflow/clinicflow/pkg/persistence"
)

// Service answers audit queries from the persisted execution records. It
// never mutates them.
type Service struct {
	logger      *slog.Logger
	persistence persistence.Persistence
}

func NewService(logger *slog.Logger, persistence persistence.Persistence) *Service {
	return &Service{
		logger:      logger.With("module", "history"),
		persistence: persistence,
	}
}

// Stats aggregates terminal outcomes of a workflow's executions.
type Stats struct {
	Total           int           `json:"total"`
	Completed       int           `json:"completed"`
	Failed          int           `json:"failed"`
	Running         int           `json:"running"`
	AverageDuration time.Duration `json:"average_duration"`
}

// ExecutionByID returns one execution with its action attempts ordered by
// action order.
func (s *Service) ExecutionByID(ctx context.Context, executionID string) (*models.WorkflowExecution, error) {
	execution, err := s.persistence.ExecutionByID(ctx, executionID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(execution.ActionExecutions, func(i, j int) bool {
		return execution.ActionExecutions[i].Order < execution.ActionExecutions[j].Order
	})

	return execution, nil
}

// ListExecutions returns a workflow's executions, newest first, filtered by
// the given options.
func (s *Service) ListExecutions(ctx context.Context, workflowID string, opts persistence.ListExecutionsOptions) ([]*models.WorkflowExecution, error) {
	return s.persistence.ExecutionsByWorkflow(ctx, workflowID, opts)
}

// WorkflowStats aggregates success and failure counts for a workflow within
// an optional time range. The average duration covers terminal executions
// only.
func (s *Service) WorkflowStats(ctx context.Context, workflowID string, from, to *time.Time) (*Stats, error) {
	executions, err := s.persistence.ExecutionsByWorkflow(ctx, workflowID, persistence.ListExecutionsOptions{
		From: from,
		To:   to,
	})
	if err != nil {
		return nil, err
	}

	stats := &Stats{}

	var terminal int

	var totalDuration time.Duration

	for _, execution := range executions {
		stats.Total++

		switch execution.Status {
		case models.ExecutionStatusCompleted:
			stats.Completed++
		case models.ExecutionStatusFailed:
			stats.Failed++
		default:
			stats.Running++
		}

		if execution.Status.IsTerminal() {
			terminal++
			totalDuration += execution.Duration()
		}
	}

	if terminal > 0 {
		stats.AverageDuration = totalDuration / time.Duration(terminal)
	}

	return stats, nil
}
