package publish

import (
	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/sunwatchd/internal/solar"
)

// LogPublisher writes sensor updates to the log. It is the fallback when no
// MQTT broker is configured, so the daemon stays useful for inspection via
// the state endpoint.
type LogPublisher struct{}

// NewLogPublisher creates a LogPublisher.
func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

// Publish logs one event's state.
func (LogPublisher) Publish(location string, event solar.EventName, state solar.EventState) error {
	log.Info().
		Str("location", location).
		Str("event", string(event)).
		Bool("occupied", state.Occupied).
		Str("time", state.DisplayTime).
		Msg("Sensor update")
	return nil
}

// SetEnabled logs the enabled set.
func (LogPublisher) SetEnabled(location string, enabled []solar.EventName) error {
	log.Debug().
		Str("location", location).
		Int("events", len(enabled)).
		Msg("Sensor set updated")
	return nil
}

// Close is a no-op.
func (LogPublisher) Close() error { return nil }
