package solar

import "time"

// ApplyOffsets returns a copy of the raw event map with the configured
// minute offsets applied. Only offsettable events are shifted; everything
// else passes through unchanged. A zero or absent offset is a no-op.
// Offsets may move an event past its neighbours - the timeline sort
// downstream handles the reordering.
func ApplyOffsets(raw map[EventName]time.Time, offsets map[EventName]int) map[EventName]time.Time {
	out := make(map[EventName]time.Time, len(raw))
	for name, instant := range raw {
		if minutes, ok := offsets[name]; ok && minutes != 0 && name.IsOffsettable() {
			instant = instant.Add(time.Duration(minutes) * time.Minute)
		}
		out[name] = instant
	}
	return out
}
