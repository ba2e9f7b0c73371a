// Package persistence provides the durable store the engine records workflows
// and executions in.
package persistence

import (
	"context"
	"time"

	"github.com/clinicflow/clinicflow/pkg/models"
)

// ListExecutionsOptions filters execution history queries.
type ListExecutionsOptions struct {
	Status *models.ExecutionStatus
	From   *time.Time
	To     *time.Time
	Limit  int
}

// Persistence is the storage collaborator for workflow definitions and
// execution history. Execution rows are owned by the single runner processing
// them; implementations need no locking beyond one-writer-per-execution.
type Persistence interface {
	Workflows(ctx context.Context) ([]*models.Workflow, error)
	WorkflowByID(ctx context.Context, id string) (*models.Workflow, error)
	SaveWorkflow(ctx context.Context, workflow *models.Workflow) error

	SaveExecution(ctx context.Context, execution *models.WorkflowExecution) error
	ExecutionByID(ctx context.Context, id string) (*models.WorkflowExecution, error)
	ExecutionsByWorkflow(ctx context.Context, workflowID string, opts ListExecutionsOptions) ([]*models.WorkflowExecution, error)

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
