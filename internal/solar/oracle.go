package solar

import (
	"time"

	"github.com/sixdouglas/suncalc"
)

// Oracle computes the named solar event instants for the calendar day
// containing t at the given coordinates. Implementations are pure and
// synchronous; events without a valid instant are omitted from the result.
type Oracle interface {
	Times(t time.Time, lat, lon float64) map[EventName]time.Time
}

// SunCalcOracle is the default Oracle, backed by the suncalc library.
type SunCalcOracle struct{}

// Times returns the suncalc day times for t's calendar day, keyed by
// EventName. Entries the library could not compute (polar day/night) are
// dropped.
func (SunCalcOracle) Times(t time.Time, lat, lon float64) map[EventName]time.Time {
	raw := suncalc.GetTimes(t, lat, lon)

	out := make(map[EventName]time.Time, len(raw))
	for name, dt := range raw {
		event := EventName(name)
		if !event.IsValid() {
			continue
		}
		if !validInstant(dt.Value) {
			continue
		}
		out[event] = dt.Value
	}
	return out
}

// validInstant rejects zero times and the garbage values suncalc produces
// when a sun angle is never reached at the given latitude.
func validInstant(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	y := t.Year()
	return y > 1 && y < 10000
}
