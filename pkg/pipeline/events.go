package pipeline

import "log"

// Event is emitted once per state transition for progress reporting.
type Event struct {
	Stage      string         `json:"stage"`
	State      State          `json:"-"`
	RetryCount int            `json:"retry_count"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// EventSink receives pipeline progress events. Implementations must not
// block for long; emission failures never affect pipeline state, so a sink
// that needs to fail should do so silently or panic (the orchestrator
// isolates panics).
type EventSink interface {
	Emit(event Event)
}

// NopSink discards all events.
type NopSink struct{}

// Emit discards the event.
func (NopSink) Emit(Event) {}

// SinkFunc adapts a function into an EventSink.
type SinkFunc func(Event)

// Emit calls the function.
func (f SinkFunc) Emit(event Event) { f(event) }

// LogSink writes events to the process log.
type LogSink struct{}

// Emit logs the event.
func (LogSink) Emit(event Event) {
	log.Printf("[pipeline] stage=%s retries=%d", event.Stage, event.RetryCount)
}
