package sms

import (
	"github.com/clinicflow/clinicflow/pkg/protocol"
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (*Factory) ID() string {
	return "sms"
}

func (*Factory) Name() string {
	return "SMS"
}

func (*Factory) Description() string {
	return "Sends a text message through the clinic's SMS gateway."
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
				"description": "SMS gateway API endpoint.",
			},
			"to": map[string]any{
				"type":        "string",
				"description": "Recipient phone number. Supports templating.",
			},
			"message": map[string]any{
				"type":        "string",
				"description": "Message text. Supports templating.",
			},
		},
		"required": []string{"endpoint", "to", "message"},
	}
}
