// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"log/slog"

	"github.com/clinicflow/clinicflow/pkg/capabilities/email"
	"github.com/clinicflow/clinicflow/pkg/capabilities/notification"
	"github.com/clinicflow/clinicflow/pkg/capabilities/sms"
	"github.com/clinicflow/clinicflow/pkg/capabilities/tag"
	"github.com/clinicflow/clinicflow/pkg/capabilities/ticket"
	"github.com/clinicflow/clinicflow/pkg/capabilities/webhook"
	"github.com/clinicflow/clinicflow/pkg/registry"
)

// NewRegistry returns a registry with every built-in capability registered.
func NewRegistry(logger *slog.Logger) *registry.Registry {
	reg := registry.NewRegistry(logger)

	reg.RegisterCapability(email.NewFactory())
	reg.RegisterCapability(sms.NewFactory())
	reg.RegisterCapability(webhook.NewFactory())
	reg.RegisterCapability(tag.NewFactory())
	reg.RegisterCapability(ticket.NewFactory())
	reg.RegisterCapability(notification.NewFactory())

	return reg
}
