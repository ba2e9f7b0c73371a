package notification_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/clinicflow/clinicflow/pkg/capabilities/notification"
)

func TestNewCapability_Validation(t *testing.T) {
	t.Parallel()

	_, err := notification.NewCapability(map[string]any{"recipient": "staff:1", "message": "hi"})
	assert.ErrorIs(t, err, notification.ErrStreamMissing)

	_, err = notification.NewCapability(map[string]any{"stream": "alerts", "message": "hi"})
	assert.ErrorIs(t, err, notification.ErrRecipientMissing)

	_, err = notification.NewCapability(map[string]any{"stream": "alerts", "recipient": "staff:1"})
	assert.ErrorIs(t, err, notification.ErrMessageMissing)
}
