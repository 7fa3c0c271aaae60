package publish

import (
	"testing"

	"github.com/dokzlo13/sunwatchd/internal/solar"
)

func TestEventTopic(t *testing.T) {
	got := EventTopic("sunwatch", "home", solar.Sunrise, "occupied")
	want := "sunwatch/home/sunrise/occupied"
	if got != want {
		t.Errorf("EventTopic = %q, want %q", got, want)
	}
}

func TestFakePublisherRecordsState(t *testing.T) {
	f := NewFakePublisher()

	f.Publish("home", solar.Sunrise, solar.EventState{Occupied: true, DisplayTime: "06:03:00"})
	f.Publish("home", solar.Sunset, solar.EventState{DisplayTime: "18:14:00"})

	if !f.Occupied("home", solar.Sunrise) {
		t.Error("sunrise should be occupied")
	}
	if f.Occupied("home", solar.Sunset) {
		t.Error("sunset should not be occupied")
	}
	if f.PublishCalls != 2 {
		t.Errorf("PublishCalls = %d, want 2", f.PublishCalls)
	}

	// Idempotent re-publish replaces, never accumulates
	f.Publish("home", solar.Sunrise, solar.EventState{Occupied: false, DisplayTime: "06:03:00"})
	if f.Occupied("home", solar.Sunrise) {
		t.Error("re-publish did not replace state")
	}
}

func TestFakePublisherRetraction(t *testing.T) {
	f := NewFakePublisher()

	// Full set published, then the location shrinks to basic mode
	for _, e := range solar.ModeFull.Events() {
		f.Publish("home", e, solar.EventState{DisplayTime: "n/a"})
	}
	f.SetEnabled("home", solar.ModeBasic.Events())

	if len(f.States["home"]) != 2 {
		t.Errorf("%d sensors left, want 2", len(f.States["home"]))
	}
	if len(f.Retracted["home"]) != 12 {
		t.Errorf("%d sensors retracted, want 12", len(f.Retracted["home"]))
	}
	for _, e := range f.Retracted["home"] {
		if e == solar.Sunrise || e == solar.Sunset {
			t.Errorf("basic-mode event %q retracted", e)
		}
	}
}

func TestFakePublisherIndependentLocations(t *testing.T) {
	f := NewFakePublisher()

	f.Publish("home", solar.Sunrise, solar.EventState{Occupied: true})
	f.Publish("cabin", solar.Sunrise, solar.EventState{Occupied: false})

	if !f.Occupied("home", solar.Sunrise) || f.Occupied("cabin", solar.Sunrise) {
		t.Error("locations must not share sensor state")
	}

	f.SetEnabled("cabin", nil)
	if !f.Occupied("home", solar.Sunrise) {
		t.Error("retraction for cabin must not touch home")
	}
}
