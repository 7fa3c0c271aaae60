// Package solar defines the solar event vocabulary and the timeline
// computation for a single day at a single location.
package solar

// EventName identifies one of the fixed solar events of a day.
// The values match the suncalc day-time vocabulary.
type EventName string

const (
	Nadir         EventName = "nadir"
	NightEnd      EventName = "nightEnd"
	NauticalDawn  EventName = "nauticalDawn"
	Dawn          EventName = "dawn"
	Sunrise       EventName = "sunrise"
	SunriseEnd    EventName = "sunriseEnd"
	GoldenHourEnd EventName = "goldenHourEnd"
	SolarNoon     EventName = "solarNoon"
	GoldenHour    EventName = "goldenHour"
	SunsetStart   EventName = "sunsetStart"
	Sunset        EventName = "sunset"
	Dusk          EventName = "dusk"
	NauticalDusk  EventName = "nauticalDusk"
	Night         EventName = "night"
)

// AllEvents lists every event in canonical declaration order.
// This order is the tie-breaker when two events share an instant.
var AllEvents = []EventName{
	Nadir,
	NightEnd,
	NauticalDawn,
	Dawn,
	Sunrise,
	SunriseEnd,
	GoldenHourEnd,
	SolarNoon,
	GoldenHour,
	SunsetStart,
	Sunset,
	Dusk,
	NauticalDusk,
	Night,
}

// eventRank maps each event to its declaration-order position.
var eventRank = func() map[EventName]int {
	m := make(map[EventName]int, len(AllEvents))
	for i, name := range AllEvents {
		m[name] = i
	}
	return m
}()

// Rank returns the declaration-order position of an event, or -1 for an
// unknown name.
func Rank(name EventName) int {
	if r, ok := eventRank[name]; ok {
		return r
	}
	return -1
}

// displayNames holds the fixed human-readable name for each event.
var displayNames = map[EventName]string{
	Nadir:         "Nadir",
	NightEnd:      "Astronomical Dawn",
	NauticalDawn:  "Nautical Dawn",
	Dawn:          "Civil Dawn",
	Sunrise:       "Sunrise",
	SunriseEnd:    "Sunrise End",
	GoldenHourEnd: "Morning Golden Hour End",
	SolarNoon:     "Solar Noon",
	GoldenHour:    "Evening Golden Hour",
	SunsetStart:   "Sunset Start",
	Sunset:        "Sunset",
	Dusk:          "Civil Dusk",
	NauticalDusk:  "Nautical Dusk",
	Night:         "Astronomical Dusk",
}

// DisplayName returns the human-readable name of an event.
func (e EventName) DisplayName() string {
	if n, ok := displayNames[e]; ok {
		return n
	}
	return string(e)
}

// IsValid reports whether the name is one of the fixed events.
func (e EventName) IsValid() bool {
	_, ok := eventRank[e]
	return ok
}

// Offsettable events: the end of the morning twilight-to-day transition and
// the start of the evening day-to-twilight transition.
var offsettableEvents = map[EventName]bool{
	SunriseEnd:  true,
	SunsetStart: true,
}

// IsOffsettable reports whether the event accepts a user-configured offset.
func (e EventName) IsOffsettable() bool {
	return offsettableEvents[e]
}

// Mode selects which subset of events a location publishes sensors for.
type Mode string

const (
	ModeBasic    Mode = "basic"
	ModeExtended Mode = "extended"
	ModeFull     Mode = "full"
)

var modeSets = map[Mode][]EventName{
	ModeBasic:    {Sunrise, Sunset},
	ModeExtended: {Dawn, Sunrise, Sunset, Dusk},
	ModeFull:     AllEvents,
}

// ParseMode maps a config string to a Mode. Unknown or empty values fall
// back to ModeFull rather than erroring.
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModeBasic:
		return ModeBasic
	case ModeExtended:
		return ModeExtended
	case ModeFull:
		return ModeFull
	}
	return ModeFull
}

// Events returns the event subset for the mode, in declaration order.
// The returned slice must not be mutated by callers.
func (m Mode) Events() []EventName {
	if set, ok := modeSets[m]; ok {
		return set
	}
	return modeSets[ModeFull]
}

// Contains reports whether the mode's event set includes the event.
func (m Mode) Contains(name EventName) bool {
	for _, e := range m.Events() {
		if e == name {
			return true
		}
	}
	return false
}
