package email

import (
	"github.com/clinicflow/clinicflow/pkg/protocol"
)

// Factory creates email capability instances.
type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (*Factory) ID() string {
	return "email"
}

func (*Factory) Name() string {
	return "Email"
}

func (*Factory) Description() string {
	return "Sends an email through the clinic's mail provider."
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
				"description": "Mail provider API endpoint.",
			},
			"to": map[string]any{
				"type":        "string",
				"description": "Recipient address. Supports templating, e.g. {{.trigger.patient_email}}.",
			},
			"subject": map[string]any{
				"type":        "string",
				"description": "Message subject. Supports templating.",
			},
			"body": map[string]any{
				"type":        "string",
				"description": "Message body. Supports templating.",
			},
		},
		"required": []string{"endpoint", "to"},
	}
}
