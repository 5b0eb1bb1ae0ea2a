package events

import (
	"encoding/json"
	"time"
)

// EventType identifies an event on the bus.
type EventType string

const (
	RunStarted    EventType = "RunStarted"
	RunProgress   EventType = "RunProgress"
	RunCompleted  EventType = "RunCompleted"
	RunFailed     EventType = "RunFailed"
	RunCancelled  EventType = "RunCancelled"
	RunSuperseded EventType = "RunSuperseded"

	ScenarioCreated     EventType = "ScenarioCreated"
	SnapshotUpdated     EventType = "SnapshotUpdated"
	ComplianceEvaluated EventType = "ComplianceEvaluated"
)

// RunEventTypes lists every run lifecycle event type.
var RunEventTypes = []EventType{RunStarted, RunProgress, RunCompleted, RunFailed, RunCancelled, RunSuperseded}

// EventData is the interface that all event data types must implement
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// Run lifecycle phases carried by RunStatusData.
const (
	PhaseStarted    = "started"
	PhaseProgress   = "progress"
	PhaseCompleted  = "completed"
	PhaseFailed     = "failed"
	PhaseCancelled  = "cancelled"
	PhaseSuperseded = "superseded"
)

// RunStatusData contains data for run lifecycle events
type RunStatusData struct {
	RunID      string  `json:"run_id"`
	Key        string  `json:"key"`
	Kind       string  `json:"kind"`
	Phase      string  `json:"phase"`
	Progress   float64 `json:"progress"`
	Message    string  `json:"message,omitempty"`
	Error      string  `json:"error,omitempty"`
	DurationMs int64   `json:"duration_ms,omitempty"`
}

// EventType returns the event type for RunStatusData.
// The actual event type is determined by the Phase field
func (d *RunStatusData) EventType() EventType {
	switch d.Phase {
	case PhaseProgress:
		return RunProgress
	case PhaseCompleted:
		return RunCompleted
	case PhaseFailed:
		return RunFailed
	case PhaseCancelled:
		return RunCancelled
	case PhaseSuperseded:
		return RunSuperseded
	default:
		return RunStarted
	}
}

// ScenarioCreatedData contains data for ScenarioCreated events
type ScenarioCreatedData struct {
	ScenarioID string `json:"scenario_id"`
	Name       string `json:"name"`
}

// EventType returns the event type for ScenarioCreatedData
func (d *ScenarioCreatedData) EventType() EventType {
	return ScenarioCreated
}

// SnapshotUpdatedData contains data for SnapshotUpdated events
type SnapshotUpdatedData struct {
	Positions    int    `json:"positions"`
	Observations int    `json:"observations"`
	Source       string `json:"source,omitempty"`
}

// EventType returns the event type for SnapshotUpdatedData
func (d *SnapshotUpdatedData) EventType() EventType {
	return SnapshotUpdated
}

// ComplianceEvaluatedData contains data for ComplianceEvaluated events
type ComplianceEvaluatedData struct {
	OverallStatus string `json:"overall_status"`
	Rules         int    `json:"rules"`
	Warnings      int    `json:"warnings"`
	Violations    int    `json:"violations"`
	Source        string `json:"source,omitempty"`
}

// EventType returns the event type for ComplianceEvaluatedData
func (d *ComplianceEvaluatedData) EventType() EventType {
	return ComplianceEvaluated
}

// Event is a published event with typed data
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Module    string    `json:"module"`
	Data      EventData `json:"data"`
}

// MarshalJSON customizes JSON serialization for Event
func (e *Event) MarshalJSON() ([]byte, error) {
	type Alias Event
	aux := &struct {
		Data json.RawMessage `json:"data"`
		*Alias
	}{
		Alias: (*Alias)(e),
	}

	if e.Data != nil {
		dataBytes, err := json.Marshal(e.Data)
		if err != nil {
			return nil, err
		}
		aux.Data = dataBytes
	}

	return json.Marshal(aux)
}

// UnmarshalJSON customizes JSON deserialization for Event
func (e *Event) UnmarshalJSON(data []byte) error {
	type Alias Event
	aux := &struct {
		Data json.RawMessage `json:"data"`
		*Alias
	}{
		Alias: (*Alias)(e),
	}

	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	if len(aux.Data) == 0 {
		return nil
	}

	var eventData EventData
	switch aux.Type {
	case RunStarted, RunProgress, RunCompleted, RunFailed, RunCancelled, RunSuperseded:
		eventData = &RunStatusData{}
	case ScenarioCreated:
		eventData = &ScenarioCreatedData{}
	case SnapshotUpdated:
		eventData = &SnapshotUpdatedData{}
	case ComplianceEvaluated:
		eventData = &ComplianceEvaluatedData{}
	default:
		eventData = &GenericEventData{Type: aux.Type}
	}

	if err := json.Unmarshal(aux.Data, eventData); err != nil {
		return err
	}
	e.Data = eventData
	return nil
}

// GenericEventData is a fallback for events that don't have a specific type
type GenericEventData struct {
	Type EventType              `json:"-"`
	Data map[string]interface{} `json:"-"`
}

// EventType returns the event type for GenericEventData
func (d *GenericEventData) EventType() EventType {
	return d.Type
}

// MarshalJSON customizes JSON serialization for GenericEventData
func (d *GenericEventData) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Data)
}

// UnmarshalJSON customizes JSON deserialization for GenericEventData
func (d *GenericEventData) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &d.Data)
}
