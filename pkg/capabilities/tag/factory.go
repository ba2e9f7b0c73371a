package tag

import (
	"github.com/clinicflow/clinicflow/pkg/protocol"
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (*Factory) ID() string {
	return "tag"
}

func (*Factory) Name() string {
	return "Tag"
}

func (*Factory) Description() string {
	return "Assigns a tag to a patient record."
}

func (*Factory) Create(config map[string]any) (protocol.Capability, error) {
	return NewCapability(config)
}

func (*Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"endpoint": map[string]any{
				"type":        "string",
				"description": "Clinic record service endpoint for tag assignment.",
			},
			"patient_id": map[string]any{
				"type":        "string",
				"description": "Patient identifier. Supports templating, e.g. {{.trigger.patient_id}}.",
			},
			"tag": map[string]any{
				"type":        "string",
				"description": "Tag to assign. Supports templating.",
			},
		},
		"required": []string{"endpoint", "patient_id", "tag"},
	}
}
