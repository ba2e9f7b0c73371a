// Package registry maps action types to their capability implementations.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/clinicflow/clinicflow/pkg/models"
	"github.com/clinicflow/clinicflow/pkg/protocol"
	"github.com/xeipuuv/gojsonschema"
)

// ErrUnknownActionType is returned when no capability is registered for an
// action's type. Dispatching an unrecognized type is a configuration error.
var ErrUnknownActionType = errors.New("action type not registered")

// Registry holds the capability factories for the recognized action types.
type Registry struct {
	logger    *slog.Logger
	factories map[models.ActionType]protocol.CapabilityFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger,
		factories: make(map[models.ActionType]protocol.CapabilityFactory),
	}
}

// RegisterCapability makes a factory available under its ID.
func (r *Registry) RegisterCapability(factory protocol.CapabilityFactory) {
	r.factories[models.ActionType(factory.ID())] = factory
}

// CapabilityTypes returns the registered action types.
func (r *Registry) CapabilityTypes() []models.ActionType {
	types := make([]models.ActionType, 0, len(r.factories))
	for actionType := range r.factories {
		types = append(types, actionType)
	}

	return types
}

// CreateCapability validates config against the factory's schema and returns a
// configured capability. Both an unknown type and a config that fails its
// schema are configuration errors surfaced before anything is invoked.
func (r *Registry) CreateCapability(actionType models.ActionType, config map[string]any) (protocol.Capability, error) {
	factory, ok := r.factories[actionType]
	if !ok {
		return nil, fmt.Errorf("action type '%s': %w", actionType, ErrUnknownActionType)
	}

	err := validateConfig(factory.Schema(), config)
	if err != nil {
		return nil, fmt.Errorf("invalid config for action type '%s': %w", actionType, err)
	}

	return factory.Create(config)
}

func validateConfig(schema, config map[string]any) error {
	if schema == nil {
		return nil
	}

	if config == nil {
		config = map[string]any{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewGoLoader(config),
	)
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}

		return errors.New(strings.Join(details, "; "))
	}

	return nil
}
