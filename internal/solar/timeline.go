package solar

import (
	"sort"
	"time"
)

// DisplayTimeUnavailable is published for events the oracle could not
// compute an instant for.
const DisplayTimeUnavailable = "n/a"

// Entry is one (event, instant) pair of a timeline.
type Entry struct {
	Event   EventName
	Instant time.Time
}

// Timeline is the ordered sequence of a day's enabled events, offsets
// already applied, sorted ascending by instant.
type Timeline []Entry

// BuildTimeline filters the adjusted event map down to the enabled set and
// sorts it chronologically. Events without a valid instant are silently
// excluded. The sort is stable with declaration order as the tie-breaker,
// so identical input always yields identical order.
func BuildTimeline(adjusted map[EventName]time.Time, enabled []EventName) Timeline {
	tl := make(Timeline, 0, len(enabled))
	for _, name := range enabled {
		instant, ok := adjusted[name]
		if !ok || !validInstant(instant) {
			continue
		}
		tl = append(tl, Entry{Event: name, Instant: instant})
	}

	sort.SliceStable(tl, func(i, j int) bool {
		if tl[i].Instant.Equal(tl[j].Instant) {
			return Rank(tl[i].Event) < Rank(tl[j].Event)
		}
		return tl[i].Instant.Before(tl[j].Instant)
	})
	return tl
}

// Next returns the earliest entry strictly after now, or false if the
// timeline holds no future entry.
func (tl Timeline) Next(now time.Time) (Entry, bool) {
	for _, e := range tl {
		if e.Instant.After(now) {
			return e, true
		}
	}
	return Entry{}, false
}

// EventState is the published per-event view.
type EventState struct {
	Occupied    bool   `json:"occupied"`
	DisplayTime string `json:"displayTime"`
}

// PhaseState is the resolved view of one location at one instant. Active is
// empty when the timeline held no events. It is recomputed every cycle,
// never mutated in place.
type PhaseState struct {
	Active EventName                `json:"activeEvent"`
	Events map[EventName]EventState `json:"events"`
}

// Resolve determines the active event for now and derives the per-event
// state for every enabled event.
//
// Each entry is active from its instant until the next entry's instant. The
// last entry has no upper bound. If now precedes the first entry, the last
// entry is reported active as a stand-in for yesterday's terminal phase;
// this reuses today's last instant instead of computing yesterday's
// timeline, which is a deliberate approximation.
func Resolve(now time.Time, tl Timeline, enabled []EventName, adjusted map[EventName]time.Time, tz *time.Location) PhaseState {
	var active EventName

	if len(tl) > 0 {
		active = tl[len(tl)-1].Event
		for i, e := range tl {
			if now.Before(e.Instant) {
				break
			}
			if i+1 >= len(tl) || now.Before(tl[i+1].Instant) {
				active = e.Event
				break
			}
		}
	}

	if tz == nil {
		tz = time.UTC
	}

	events := make(map[EventName]EventState, len(enabled))
	for _, name := range enabled {
		st := EventState{DisplayTime: DisplayTimeUnavailable}
		if instant, ok := adjusted[name]; ok && validInstant(instant) {
			st.DisplayTime = instant.In(tz).Format("15:04:05")
			st.Occupied = name == active
		}
		events[name] = st
	}

	return PhaseState{Active: active, Events: events}
}
