package events

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusDeliversByType(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	var progress, completed []*Event
	bus.Subscribe(RunProgress, func(e *Event) { progress = append(progress, e) })
	bus.Subscribe(RunCompleted, func(e *Event) { completed = append(completed, e) })

	bus.Emit("work", &RunStatusData{RunID: "r1", Phase: PhaseProgress, Progress: 40})
	bus.Emit("work", &RunStatusData{RunID: "r1", Phase: PhaseCompleted, Progress: 100})

	require.Len(t, progress, 1)
	require.Len(t, completed, 1)
	assert.Equal(t, RunProgress, progress[0].Type)
	assert.Equal(t, "work", progress[0].Module)
	assert.False(t, progress[0].Timestamp.IsZero())
	assert.Equal(t, 40.0, progress[0].Data.(*RunStatusData).Progress)
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	calls := 0
	ids := bus.SubscribeMany(RunEventTypes, func(*Event) { calls++ })
	require.Len(t, ids, len(RunEventTypes))

	bus.Emit("work", &RunStatusData{Phase: PhaseStarted})
	bus.Unsubscribe(ids...)
	bus.Emit("work", &RunStatusData{Phase: PhaseStarted})
	bus.Unsubscribe(ids...)

	assert.Equal(t, 1, calls)
}

func TestPanickingHandlerDoesNotStopDelivery(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	delivered := false
	bus.Subscribe(SnapshotUpdated, func(*Event) { panic("boom") })
	bus.Subscribe(SnapshotUpdated, func(*Event) { delivered = true })

	assert.NotPanics(t, func() { bus.Emit("snapshot", &SnapshotUpdatedData{Positions: 3}) })
	assert.True(t, delivered)
}

func TestConcurrentPublishAndSubscribe(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	var mu sync.Mutex
	count := 0
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			id := bus.Subscribe(RunProgress, func(*Event) {
				mu.Lock()
				count++
				mu.Unlock()
			})
			bus.Unsubscribe(id)
		}()
		go func() {
			defer wg.Done()
			bus.Emit("work", &RunStatusData{Phase: PhaseProgress})
		}()
	}
	wg.Wait()
}

func TestRunStatusDataEventType(t *testing.T) {
	tests := []struct {
		phase string
		want  EventType
	}{
		{PhaseStarted, RunStarted},
		{PhaseProgress, RunProgress},
		{PhaseCompleted, RunCompleted},
		{PhaseFailed, RunFailed},
		{PhaseCancelled, RunCancelled},
		{PhaseSuperseded, RunSuperseded},
		{"", RunStarted},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, (&RunStatusData{Phase: tt.phase}).EventType(), tt.phase)
	}
}

func TestEventJSONRestoresTypedData(t *testing.T) {
	original := &Event{
		Type:   RunFailed,
		Module: "work",
		Data:   &RunStatusData{RunID: "abc", Phase: PhaseFailed, Error: "insufficient data"},
	}

	raw, err := json.Marshal(original)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"run_id":"abc"`)

	var decoded Event
	require.NoError(t, json.Unmarshal(raw, &decoded))
	data, ok := decoded.Data.(*RunStatusData)
	require.True(t, ok)
	assert.Equal(t, "insufficient data", data.Error)

	var generic Event
	require.NoError(t, json.Unmarshal([]byte(`{"type":"Custom","module":"x","data":{"a":1}}`), &generic))
	assert.Equal(t, EventType("Custom"), generic.Data.EventType())
}
