package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/clinicflow/clinicflow/pkg/models"
	"github.com/clinicflow/clinicflow/pkg/persistence"
)

// ExecutionRepository handles execution-related database operations.
type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(db *sql.DB, logger *slog.Logger) *ExecutionRepository {
	return &ExecutionRepository{db: db, logger: logger}
}

const executionColumns = `
	id
  , workflow_id
  , tenant_id
  , status
  , trigger_data
  , started_at
  , completed_at
  , error
  , action_executions
`

// Save upserts an execution record with its nested action executions.
func (r *ExecutionRepository) Save(ctx context.Context, execution *models.WorkflowExecution) error {
	triggerData, err := json.Marshal(execution.TriggerData)
	if err != nil {
		return fmt.Errorf("failed to marshal trigger data: %w", err)
	}

	actionExecutions, err := json.Marshal(execution.ActionExecutions)
	if err != nil {
		return fmt.Errorf("failed to marshal action executions: %w", err)
	}

	query := `
		INSERT INTO workflow_executions (
			id, workflow_id, tenant_id, status, trigger_data,
			started_at, completed_at, error, action_executions
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			completed_at = EXCLUDED.completed_at,
			error = EXCLUDED.error,
			action_executions = EXCLUDED.action_executions
	`

	_, err = r.db.ExecContext(ctx, query,
		execution.ID, execution.WorkflowID, execution.TenantID, execution.Status,
		triggerData, execution.StartedAt, execution.CompletedAt,
		execution.Error, actionExecutions,
	)
	if err != nil {
		return persistence.NewExecutionError("Save", execution.ID, err)
	}

	return nil
}

// GetByID returns the execution with the given ID.
func (r *ExecutionRepository) GetByID(ctx context.Context, id string) (*models.WorkflowExecution, error) {
	query := `SELECT ` + executionColumns + ` FROM workflow_executions WHERE id = $1`

	execution, err := r.scanExecution(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewExecutionError("GetByID", id, persistence.ErrExecutionNotFound)
		}

		return nil, fmt.Errorf("failed to scan execution: %w", err)
	}

	return execution, nil
}

// ListByWorkflow returns a workflow's executions matching the filter, newest first.
func (r *ExecutionRepository) ListByWorkflow(ctx context.Context, workflowID string, opts persistence.ListExecutionsOptions) ([]*models.WorkflowExecution, error) {
	var (
		conditions = []string{"workflow_id = $1"}
		args       = []any{workflowID}
	)

	if opts.Status != nil {
		args = append(args, *opts.Status)
		conditions = append(conditions, "status = $"+strconv.Itoa(len(args)))
	}

	if opts.From != nil {
		args = append(args, *opts.From)
		conditions = append(conditions, "started_at >= $"+strconv.Itoa(len(args)))
	}

	if opts.To != nil {
		args = append(args, *opts.To)
		conditions = append(conditions, "started_at <= $"+strconv.Itoa(len(args)))
	}

	query := `SELECT ` + executionColumns + ` FROM workflow_executions WHERE ` +
		strings.Join(conditions, " AND ") + ` ORDER BY started_at DESC`

	if opts.Limit > 0 {
		query += " LIMIT " + strconv.Itoa(opts.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	executions := make([]*models.WorkflowExecution, 0)

	for rows.Next() {
		execution, err := r.scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}

		executions = append(executions, execution)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating executions: %w", err)
	}

	return executions, nil
}

func (r *ExecutionRepository) scanExecution(row rowScanner) (*models.WorkflowExecution, error) {
	var (
		execution        models.WorkflowExecution
		triggerData      []byte
		actionExecutions []byte
	)

	err := row.Scan(
		&execution.ID, &execution.WorkflowID, &execution.TenantID, &execution.Status,
		&triggerData, &execution.StartedAt, &execution.CompletedAt,
		&execution.Error, &actionExecutions,
	)
	if err != nil {
		return nil, err
	}

	if len(triggerData) > 0 {
		err = json.Unmarshal(triggerData, &execution.TriggerData)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal trigger data: %w", err)
		}
	}

	if len(actionExecutions) > 0 {
		err = json.Unmarshal(actionExecutions, &execution.ActionExecutions)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal action executions: %w", err)
		}
	}

	return &execution, nil
}
