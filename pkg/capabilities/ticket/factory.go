package ticket

import (
	"github.com/clinicflow/clinicflow/pkg/protocol"
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (*Factory) ID() string {
	return "ticket"
}

func (*Factory) Name() string {
	return "Ticket"
}

func (*Factory) Description() string {
	return "Opens a ticket in the clinic's support desk."
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
				"description": "Support desk API endpoint.",
			},
			"title": map[string]any{
				"type":        "string",
				"description": "Ticket title. Supports templating.",
			},
			"description": map[string]any{
				"type":        "string",
				"description": "Ticket body. Supports templating.",
			},
			"priority": map[string]any{
				"type":    "string",
				"default": "normal",
				"enum":    []string{"low", "normal", "high", "urgent"},
			},
			"assignee": map[string]any{
				"type": "string",
			},
		},
		"required": []string{"endpoint", "title"},
	}
}
