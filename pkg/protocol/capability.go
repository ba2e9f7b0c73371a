// Package protocol defines the contracts between the engine and its external
// collaborators.
package protocol

import (
	"context"
	"log/slog"

	"github.com/clinicflow/clinicflow/pkg/models"
)

// Capability performs the real-world side effect of one action type. The
// adapter bounds its own invocation with a timeout; a timeout surfaces to the
// dispatcher as an ordinary failure.
type Capability interface {
	Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (any, error)
}

// CapabilityFactory creates configured capability instances and describes the
// configuration shape the capability accepts.
type CapabilityFactory interface {
	// Create instantiates a capability bound to the given action config.
	Create(config map[string]any) (Capability, error)

	// ID returns the action type this factory serves.
	ID() string

	// Name returns a human-readable name for this capability.
	Name() string

	// Description returns what this capability does.
	Description() string

	// Schema returns the JSON Schema the action config is validated against
	// at dispatch time.
	Schema() map[string]any
}

// TriggerCallback is invoked by a trigger source when a workflow should fire.
type TriggerCallback func(ctx context.Context, workflowID string, triggerData map[string]any) error

// Trigger is a running source of fire signals for one workflow, either a cron
// entry or an external event subscription.
type Trigger interface {
	Start(ctx context.Context, callback TriggerCallback) error
	Stop(ctx context.Context) error
	Validate() error
}
