package webhook

import (
	"github.com/clinicflow/clinicflow/pkg/protocol"
)

// Factory creates webhook capability instances.
type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (*Factory) ID() string {
	return "webhook"
}

func (*Factory) Name() string {
	return "Webhook"
}

func (*Factory) Description() string {
	return "Calls an external HTTP endpoint with optional headers, body and retries."
}

func (*Factory) Create(config map[string]any) (protocol.Capability, error) {
	return NewCapability(config)
}

func (*Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "The URL to call. Supports templating with trigger data and prior action results.",
			},
			"method": map[string]any{
				"type":        "string",
				"description": "HTTP method to use",
				"default":     "POST",
				"enum":        []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
			},
			"headers": map[string]any{
				"type":        "object",
				"description": "HTTP headers to include. Values support templating.",
				"additionalProperties": map[string]any{
					"type": "string",
				},
			},
			"body": map[string]any{
				"type":        "string",
				"description": "Request body content. Supports templating.",
			},
			"timeout_seconds": map[string]any{
				"type":    "number",
				"minimum": 1,
			},
			"retry": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"attempts": map[string]any{
						"type":    "number",
						"minimum": 1,
					},
					"delay": map[string]any{
						"type":    "number",
						"minimum": 0,
					},
				},
			},
		},
		"required": []string{"url"},
	}
}
