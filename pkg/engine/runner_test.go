package engine_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/clinicflow/clinicflow/pkg/engine"
	"github.com/clinicflow/clinicflow/pkg/events"
	"github.com/clinicflow/clinicflow/pkg/mocks"
	"github.com/clinicflow/clinicflow/pkg/models"
	"github.com/clinicflow/clinicflow/pkg/persistence/file"
	"github.com/clinicflow/clinicflow/pkg/registry"
	"github.com/clinicflow/clinicflow/pkg/testutil"
)

func newRunner(t *testing.T, eventBus *mocks.MockEventBus) (*engine.Runner, *file.Persistence) {
	t.Helper()

	logger := slog.Default()
	store := file.NewPersistence(t.TempDir())
	reg := registry.NewRegistry(logger)
	reg.RegisterCapability(&stubFactory{id: "webhook", result: map[string]any{"success": true}})

	dispatcher := engine.NewDispatcher(logger, store, reg, eventBus, nil)

	return engine.NewRunner(logger, store, dispatcher, eventBus, nil), store
}

func TestRunner_PublishesLifecycleEvents(t *testing.T) {
	t.Parallel()

	eventBus := new(mocks.MockEventBus)
	eventBus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	runner, store := newRunner(t, eventBus)

	workflow := testutil.CreateTestWorkflow(testutil.WithActions(
		testutil.CreateTestAction(testutil.WithActionName("notify"), testutil.WithOrder(1)),
	))
	execution := testutil.CreateTestExecution(workflow)
	require.NoError(t, store.SaveExecution(t.Context(), execution))

	require.NoError(t, runner.Run(t.Context(), workflow, execution))

	assert.Equal(t, models.ExecutionStatusCompleted, execution.Status)

	var types []events.EventType

	for _, call := range eventBus.Calls {
		event, ok := call.Arguments.Get(2).(interface{ GetType() events.EventType })
		require.True(t, ok)
		types = append(types, event.GetType())
	}

	assert.Equal(t, []events.EventType{
		events.ExecutionStartedEvent,
		events.ActionCompletedEvent,
		events.ExecutionCompletedEvent,
	}, types)
}

func TestRunner_PublishesFailureEvents(t *testing.T) {
	t.Parallel()

	eventBus := new(mocks.MockEventBus)
	eventBus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	runner, store := newRunner(t, eventBus)

	// The mismatched action type is a configuration error, so the single
	// action fails and StopOnError aborts the run.
	workflow := testutil.CreateTestWorkflow(
		testutil.WithStopOnError(true),
		testutil.WithActions(testutil.CreateTestAction(
			testutil.WithActionName("notify"),
			testutil.WithOrder(1),
			testutil.WithActionType(models.ActionTypeEmail, map[string]any{"to": "a@b.c"}),
		)),
	)
	execution := testutil.CreateTestExecution(workflow)
	require.NoError(t, store.SaveExecution(t.Context(), execution))

	require.NoError(t, runner.Run(t.Context(), workflow, execution))

	assert.Equal(t, models.ExecutionStatusFailed, execution.Status)
	assert.Contains(t, execution.Error, `action "notify"`)

	var types []events.EventType

	for _, call := range eventBus.Calls {
		event, ok := call.Arguments.Get(2).(interface{ GetType() events.EventType })
		require.True(t, ok)
		types = append(types, event.GetType())
	}

	assert.Equal(t, []events.EventType{
		events.ExecutionStartedEvent,
		events.ActionFailedEvent,
		events.ExecutionFailedEvent,
	}, types)
}

func TestRunner_PublishErrorDoesNotFailExecution(t *testing.T) {
	t.Parallel()

	eventBus := new(mocks.MockEventBus)
	eventBus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

	runner, store := newRunner(t, eventBus)

	workflow := testutil.CreateTestWorkflow(testutil.WithActions(
		testutil.CreateTestAction(testutil.WithActionName("notify"), testutil.WithOrder(1)),
	))
	execution := testutil.CreateTestExecution(workflow)
	require.NoError(t, store.SaveExecution(t.Context(), execution))

	require.NoError(t, runner.Run(t.Context(), workflow, execution))
	assert.Equal(t, models.ExecutionStatusCompleted, execution.Status)
}
