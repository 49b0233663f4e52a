package metrics

import "time"

// Event is a single measurement emitted by the engine, e.g. generation
// latency or token usage for one turn.
type Event struct {
	Name  string
	Time  time.Time
	Value float64
	Tags  map[string]string
}

// Observer receives engine measurements. Implementations must be safe
// for concurrent use.
type Observer interface {
	RecordEvent(ev Event)
}

// NoopObserver discards every event.
type NoopObserver struct{}

func (NoopObserver) RecordEvent(Event) {}
