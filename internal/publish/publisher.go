// Package publish renders phase state into sensor updates, with an
// abstraction so monitors can be tested without a broker.
package publish

import (
	"sync"

	"github.com/dokzlo13/sunwatchd/internal/solar"
)

// Publisher receives per-event occupancy updates from phase monitors.
// Implementations must tolerate idempotent updates from independent
// monitors without coordination.
type Publisher interface {
	// Publish sends one event's state for a location. Called once per
	// enabled event per recomputation cycle.
	Publish(location string, event solar.EventName, state solar.EventState) error

	// SetEnabled signals the authoritative enabled event set for a
	// location. Sensors previously published for events outside the set
	// are retracted.
	SetEnabled(location string, enabled []solar.EventName) error

	// Close releases the underlying transport.
	Close() error
}

// FakePublisher records calls for test assertions.
type FakePublisher struct {
	mu sync.Mutex

	// States holds the last published state per location/event.
	States map[string]map[solar.EventName]solar.EventState

	// Enabled holds the last signalled enabled set per location.
	Enabled map[string][]solar.EventName

	// Retracted lists events retracted per location.
	Retracted map[string][]solar.EventName

	// PublishCalls counts Publish invocations.
	PublishCalls int

	// Closed tracks whether Close was called.
	Closed bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{
		States:    make(map[string]map[solar.EventName]solar.EventState),
		Enabled:   make(map[string][]solar.EventName),
		Retracted: make(map[string][]solar.EventName),
	}
}

// Publish records the event state.
func (f *FakePublisher) Publish(location string, event solar.EventName, state solar.EventState) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.States[location] == nil {
		f.States[location] = make(map[solar.EventName]solar.EventState)
	}
	f.States[location][event] = state
	f.PublishCalls++
	return nil
}

// SetEnabled records the enabled set and retracts anything outside it.
func (f *FakePublisher) SetEnabled(location string, enabled []solar.EventName) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Enabled[location] = append([]solar.EventName(nil), enabled...)

	keep := make(map[solar.EventName]bool, len(enabled))
	for _, e := range enabled {
		keep[e] = true
	}
	for e := range f.States[location] {
		if !keep[e] {
			delete(f.States[location], e)
			f.Retracted[location] = append(f.Retracted[location], e)
		}
	}
	return nil
}

// Close marks the publisher closed.
func (f *FakePublisher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// Occupied reports the recorded occupancy for a location/event.
func (f *FakePublisher) Occupied(location string, event solar.EventName) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.States[location][event].Occupied
}
