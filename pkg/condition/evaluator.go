// Package condition evaluates action gate expressions against an execution's
// context.
package condition

import (
	"fmt"

	"github.com/clinicflow/clinicflow/pkg/models"
	"github.com/clinicflow/clinicflow/pkg/template"
)

// Evaluator decides whether an action runs during a given execution.
// Conditions are template expressions rendered against the execution context
// and coerced to a boolean. The zero value is ready to use.
type Evaluator struct{}

// Evaluate returns true for an empty condition. A condition that fails to
// render, or renders to something that is not a boolean, is an evaluation
// error: it is never coerced to a default. Results of skipped prior actions
// are present in the context as their skip marker, so a condition reaching
// into fields those markers lack fails evaluation rather than guessing.
func (Evaluator) Evaluate(condition string, executionCtx *models.ExecutionContext) (bool, error) {
	if condition == "" {
		return true, nil
	}

	rendered, err := template.RenderWithContext(condition, executionCtx)
	if err != nil {
		return false, fmt.Errorf("condition %q: %w", condition, err)
	}

	return toBool(condition, rendered)
}

func toBool(condition string, value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case int:
		return v != 0, nil
	case int64:
		return v != 0, nil
	case float64:
		return v != 0, nil
	default:
		return false, fmt.Errorf("condition %q evaluated to non-boolean %T (%v)", condition, value, value)
	}
}
