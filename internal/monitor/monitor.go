// Package monitor runs one phase monitor per configured location. Each
// monitor recomputes its location's solar timeline on every wakeup,
// publishes per-event occupancy and arms exactly one timer for the next
// phase boundary.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/sunwatchd/internal/publish"
	"github.com/dokzlo13/sunwatchd/internal/solar"
)

// boundaryBuffer is added past a phase boundary so the wakeup never fires
// fractionally early due to timer granularity.
const boundaryBuffer = time.Second

// fallbackWait is the wakeup delay when today's timeline holds no future
// event; it rolls the monitor into the next calendar day eventually.
const fallbackWait = time.Hour

// minWait clamps non-positive computed waits so a stale boundary cannot
// produce a hot rescheduling loop. Timeline.Next only returns strictly
// future instants, so the clamp is not reachable today; it guards
// changes to that contract.
const minWait = 100 * time.Millisecond

// Location is the immutable per-monitor configuration. A changed
// configuration means a new monitor, not a mutation.
type Location struct {
	Name      string
	Latitude  float64
	Longitude float64
	Mode      solar.Mode
	Offsets   map[solar.EventName]int
	Timezone  *time.Location
}

// TransitionFunc is called after a recomputation whenever the active event
// differs from the previous cycle's.
type TransitionFunc func(location string, previous, current solar.EventName)

// Monitor owns one location's timeline computation and rescheduling timer.
type Monitor struct {
	id        string
	loc       Location
	oracle    solar.Oracle
	publisher publish.Publisher

	onTransition TransitionFunc
	now          func() time.Time

	mu      sync.Mutex
	state   solar.PhaseState
	started bool
	stopped bool

	wakeups chan time.Duration
	done    chan struct{}
}

// New validates the location and constructs a monitor. Coordinates outside
// their valid ranges fail fast; no monitor is constructed for them.
func New(loc Location, oracle solar.Oracle, publisher publish.Publisher, onTransition TransitionFunc) (*Monitor, error) {
	if loc.Name == "" {
		return nil, fmt.Errorf("location name is required")
	}
	if loc.Latitude < -90 || loc.Latitude > 90 {
		return nil, fmt.Errorf("location %q: latitude %v out of range [-90, 90]", loc.Name, loc.Latitude)
	}
	if loc.Longitude < -180 || loc.Longitude > 180 {
		return nil, fmt.Errorf("location %q: longitude %v out of range [-180, 180]", loc.Name, loc.Longitude)
	}
	if loc.Timezone == nil {
		loc.Timezone = time.UTC
	}

	return &Monitor{
		id:           uuid.NewString(),
		loc:          loc,
		oracle:       oracle,
		publisher:    publisher,
		onTransition: onTransition,
		now:          time.Now,
		wakeups:      make(chan time.Duration, 1),
		done:         make(chan struct{}),
	}, nil
}

// ID returns the monitor's instance identifier.
func (m *Monitor) ID() string { return m.id }

// Name returns the location name this monitor serves.
func (m *Monitor) Name() string { return m.loc.Name }

// Enabled returns the authoritative enabled event set for this monitor.
func (m *Monitor) Enabled() []solar.EventName { return m.loc.Mode.Events() }

// Start performs one synchronous recomputation, publishes the result and
// arms the first wakeup. The monitor never runs "empty". Start is not
// reentrant; a stopped monitor cannot be started again.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started || m.stopped {
		m.mu.Unlock()
		return fmt.Errorf("monitor %q already started", m.loc.Name)
	}
	m.started = true
	m.mu.Unlock()

	// Signal the authoritative enabled set first so the publisher can
	// retract sensors for events no longer enabled.
	if err := m.publisher.SetEnabled(m.loc.Name, m.Enabled()); err != nil {
		log.Warn().Err(err).Str("location", m.loc.Name).Msg("Failed to signal enabled event set")
	}

	wait := m.recompute()
	m.armWakeup(wait)

	go m.run(ctx)

	log.Info().
		Str("location", m.loc.Name).
		Str("monitor_id", m.id).
		Str("mode", string(m.loc.Mode)).
		Float64("lat", m.loc.Latitude).
		Float64("lon", m.loc.Longitude).
		Msg("Phase monitor started")
	return nil
}

// Stop tears the monitor down: the pending timer is cancelled and no further
// recomputation runs. Stop is idempotent and the monitor is not reusable.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	m.mu.Unlock()

	close(m.done)
	log.Info().Str("location", m.loc.Name).Msg("Phase monitor stopped")
}

// State returns the most recently published phase state.
func (m *Monitor) State() solar.PhaseState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// run is the timer loop. Exactly one wakeup is pending at any time: each
// cycle replaces the previous timer with the next one, and teardown or
// context cancellation stops the loop between cycles. A recomputation that
// has begun always runs to completion.
func (m *Monitor) run(ctx context.Context) {
	for {
		var wait time.Duration
		select {
		case wait = <-m.wakeups:
		case <-m.done:
			return
		case <-ctx.Done():
			return
		}

		timer := time.NewTimer(wait)
		log.Debug().
			Str("location", m.loc.Name).
			Dur("wait", wait).
			Msg("Phase monitor armed")

		select {
		case <-m.done:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			m.armWakeup(m.recompute())
		}
	}
}

// armWakeup replaces the pending wakeup with a new one.
func (m *Monitor) armWakeup(wait time.Duration) {
	select {
	case <-m.wakeups:
	default:
	}
	m.wakeups <- wait
}

// recompute runs one full cycle: oracle, offsets, timeline, resolution,
// publication. It returns the wait until the next wakeup.
func (m *Monitor) recompute() time.Duration {
	now := m.now()

	raw := m.oracle.Times(now, m.loc.Latitude, m.loc.Longitude)
	adjusted := solar.ApplyOffsets(raw, m.loc.Offsets)
	enabled := m.Enabled()
	tl := solar.BuildTimeline(adjusted, enabled)
	state := solar.Resolve(now, tl, enabled, adjusted, m.loc.Timezone)

	m.mu.Lock()
	previous := m.state.Active
	m.state = state
	m.mu.Unlock()

	for _, name := range enabled {
		if err := m.publisher.Publish(m.loc.Name, name, state.Events[name]); err != nil {
			log.Warn().Err(err).
				Str("location", m.loc.Name).
				Str("event", string(name)).
				Msg("Failed to publish event state")
		}
	}

	if m.onTransition != nil && previous != state.Active {
		m.onTransition(m.loc.Name, previous, state.Active)
	}

	wait := NextWait(now, tl)

	log.Debug().
		Str("location", m.loc.Name).
		Str("active", string(state.Active)).
		Int("timeline_events", len(tl)).
		Dur("next_wakeup_in", wait).
		Msg("Phase state recomputed")

	return wait
}

// NextWait computes how long to sleep after a recomputation at now: one
// second past the earliest future boundary, or an hour when today's
// timeline is empty or fully elapsed. Non-positive waits are clamped.
func NextWait(now time.Time, tl solar.Timeline) time.Duration {
	next, ok := tl.Next(now)
	if !ok {
		return fallbackWait
	}
	wait := next.Instant.Sub(now) + boundaryBuffer
	if wait <= 0 {
		return minWait
	}
	return wait
}
