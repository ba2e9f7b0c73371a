package notification

import (
	"github.com/clinicflow/clinicflow/pkg/protocol"
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (*Factory) ID() string {
	return "notification"
}

func (*Factory) Name() string {
	return "Notification"
}

func (*Factory) Description() string {
	return "Publishes an in-app notification to the staff feed."
}

func (*Factory) Create(config map[string]any) (protocol.Capability, error) {
	return NewCapability(config)
}

func (*Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"stream": map[string]any{
				"type":        "string",
				"description": "Redis stream the notification feed consumes.",
			},
			"recipient": map[string]any{
				"type":        "string",
				"description": "Staff member or group receiving the notification. Supports templating.",
			},
			"message": map[string]any{
				"type":        "string",
				"description": "Notification text. Supports templating.",
			},
			"addr": map[string]any{
				"type":        "string",
				"description": "Redis address. Defaults to REDIS_ADDR.",
			},
		},
		"required": []string{"stream", "recipient", "message"},
	}
}
