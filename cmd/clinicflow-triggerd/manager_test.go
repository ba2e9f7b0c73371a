package main

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/clinicflow/clinicflow/pkg/mocks"
	"github.com/clinicflow/clinicflow/pkg/persistence/file"
	"github.com/clinicflow/clinicflow/pkg/testutil"
)

func (tm *TriggerManager) runningTriggerCount() int {
	tm.triggerMutex.RLock()
	defer tm.triggerMutex.RUnlock()

	return len(tm.runningTriggers)
}

func TestTriggerManager_StartsEnabledWorkflowTriggers(t *testing.T) {
	t.Parallel()

	store := file.NewPersistence(t.TempDir())

	enabled := testutil.CreateTestWorkflow()
	enabled.TriggerType = "time"
	enabled.TriggerConfig = map[string]any{"cron": "@every 1h"}
	require.NoError(t, store.SaveWorkflow(t.Context(), enabled))

	disabled := testutil.CreateTestWorkflow(testutil.WithDisabled())
	disabled.TriggerType = "time"
	disabled.TriggerConfig = map[string]any{"cron": "@every 1h"}
	require.NoError(t, store.SaveWorkflow(t.Context(), disabled))

	eventBus := new(mocks.MockEventBus)
	eventBus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	tm := NewTriggerManager("triggerd-test", store, eventBus, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})

	go func() {
		tm.run(ctx, cancel)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return tm.runningTriggerCount() == 1
	}, 5*time.Second, 20*time.Millisecond)

	tm.stop(ctx, cancel)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("manager did not stop")
	}

	assert.Equal(t, 0, tm.runningTriggerCount())
}

func TestTriggerManager_ReloadKeepsTriggersAlive(t *testing.T) {
	t.Parallel()

	store := file.NewPersistence(t.TempDir())

	workflow := testutil.CreateTestWorkflow()
	workflow.TriggerType = "time"
	workflow.TriggerConfig = map[string]any{"cron": "@every 1h"}
	require.NoError(t, store.SaveWorkflow(t.Context(), workflow))

	eventBus := new(mocks.MockEventBus)
	eventBus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	tm := NewTriggerManager("triggerd-test", store, eventBus, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())

	go tm.run(ctx, cancel)

	require.Eventually(t, func() bool {
		return tm.runningTriggerCount() == 1
	}, 5*time.Second, 20*time.Millisecond)

	// A reload stops everything under the old context, then must come
	// back up under a live one.
	reloaded := make(chan struct{})

	go func() {
		tm.restart(ctx, cancel)
		close(reloaded)
	}()

	require.Eventually(t, func() bool {
		return tm.runningTriggerCount() == 1
	}, 5*time.Second, 20*time.Millisecond)

	// The restarted manager keeps serving triggers instead of falling
	// straight through on an already-cancelled context.
	select {
	case <-reloaded:
		t.Fatal("manager exited after reload")
	case <-time.After(500 * time.Millisecond):
	}
}
