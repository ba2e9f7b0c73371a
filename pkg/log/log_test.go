package log_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/clinicflow/clinicflow/pkg/log"
)

func TestSetup_Levels(t *testing.T) {
	tests := []struct {
		name        string
		level       string
		debugActive bool
		warnActive  bool
	}{
		{name: "debug", level: "debug", debugActive: true, warnActive: true},
		{name: "uppercase", level: "WARN", debugActive: false, warnActive: true},
		{name: "error", level: "error", debugActive: false, warnActive: false},
		{name: "unknown falls back to info", level: "verbose", debugActive: false, warnActive: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log.Setup(tt.level)

			logger := slog.Default()
			assert.Equal(t, tt.debugActive, logger.Enabled(context.Background(), slog.LevelDebug))
			assert.Equal(t, tt.warnActive, logger.Enabled(context.Background(), slog.LevelWarn))
		})
	}
}

func TestWithModule(t *testing.T) {
	logger := log.WithModule("engine")
	assert.NotNil(t, logger)
}
