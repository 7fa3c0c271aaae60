package config

import (
	"strings"
	"testing"
	"time"
)

func TestParseLocationsList(t *testing.T) {
	cfg, err := Parse([]byte(`
locations:
  - name: home
    lat: 51.5
    lon: -0.1
    mode: basic
    offsets:
      sunsetStart: -30
  - name: cabin
    lat: 60.1
    lon: 24.9
    timezone: Europe/Helsinki
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if len(cfg.Locations) != 2 {
		t.Fatalf("got %d locations, want 2", len(cfg.Locations))
	}
	if cfg.Locations[0].Mode != "basic" {
		t.Errorf("mode = %q, want basic", cfg.Locations[0].Mode)
	}
	if cfg.Locations[0].Offsets["sunsetStart"] != -30 {
		t.Errorf("offset = %d, want -30", cfg.Locations[0].Offsets["sunsetStart"])
	}
	// Defaults
	if cfg.Locations[1].Mode != "full" {
		t.Errorf("default mode = %q, want full", cfg.Locations[1].Mode)
	}
	if cfg.Locations[0].Timezone != "UTC" {
		t.Errorf("default timezone = %q, want UTC", cfg.Locations[0].Timezone)
	}
}

func TestParseSingleUnwrappedLocation(t *testing.T) {
	// Older configs carried one location directly under the key
	cfg, err := Parse([]byte(`
locations:
  name: home
  lat: 51.5
  lon: -0.1
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(cfg.Locations) != 1 || cfg.Locations[0].Name != "home" {
		t.Fatalf("locations = %+v, want single 'home'", cfg.Locations)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "no_locations",
			yaml:    `log: {level: info}`,
			wantErr: "at least one location",
		},
		{
			name: "duplicate_names",
			yaml: `
locations:
  - {name: home, lat: 51.5, lon: -0.1}
  - {name: home, lat: 48.8, lon: 2.3}
`,
			wantErr: "duplicate location name",
		},
		{
			name: "missing_name",
			yaml: `
locations:
  - {lat: 51.5, lon: -0.1}
`,
			wantErr: "name is required",
		},
		{
			name: "missing_latitude",
			yaml: `
locations:
  - {name: home, lon: -0.1}
`,
			wantErr: "lat and lon are required",
		},
		{
			name: "missing_longitude",
			yaml: `
locations:
  - {name: home, lat: 51.5}
`,
			wantErr: "lat and lon are required",
		},
		{
			name: "no_coordinates_no_place",
			yaml: `
locations:
  - {name: home}
`,
			wantErr: "lat and lon are required",
		},
		{
			name: "latitude_out_of_range",
			yaml: `
locations:
  - {name: home, lat: 95, lon: 0}
`,
			wantErr: "latitude",
		},
		{
			name: "longitude_out_of_range",
			yaml: `
locations:
  - {name: home, lat: 0, lon: -200}
`,
			wantErr: "longitude",
		},
		{
			name: "offset_on_wrong_event",
			yaml: `
locations:
  - name: home
    lat: 51.5
    lon: -0.1
    offsets:
      solarNoon: 10
`,
			wantErr: "offset not supported",
		},
		{
			name: "bad_timezone",
			yaml: `
locations:
  - {name: home, lat: 51.5, lon: -0.1, timezone: Mars/Olympus}
`,
			wantErr: "unknown timezone",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseZeroCoordinates(t *testing.T) {
	// Explicit 0/0 (null island) is valid, unlike absent coordinates.
	cfg, err := Parse([]byte(`
locations:
  - {name: buoy, lat: 0, lon: 0}
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if *cfg.Locations[0].Lat != 0 || *cfg.Locations[0].Lon != 0 {
		t.Errorf("coordinates = %v, %v", *cfg.Locations[0].Lat, *cfg.Locations[0].Lon)
	}
}

func TestParsePlaceWithoutCoordinates(t *testing.T) {
	cfg, err := Parse([]byte(`
locations:
  - {name: home, place: "London, UK"}
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Locations[0].Lat != nil || cfg.Locations[0].Lon != nil {
		t.Error("coordinates should stay unset when only a place is given")
	}
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
locations:
  - {name: home, lat: 51.5, lon: -0.1}
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.Log.GetLevel() != "info" {
		t.Errorf("log level = %q, want info", cfg.Log.GetLevel())
	}
	if cfg.Database.Path != "./sunwatchd.sqlite" {
		t.Errorf("database path = %q", cfg.Database.Path)
	}
	if cfg.Healthcheck.Port != 9090 {
		t.Errorf("healthcheck port = %d, want 9090", cfg.Healthcheck.Port)
	}
	if cfg.ShutdownTimeout.Duration() != 5*time.Second {
		t.Errorf("shutdown timeout = %v, want 5s", cfg.ShutdownTimeout.Duration())
	}
	if cfg.MQTT.IsEnabled() {
		t.Error("mqtt should be disabled without a broker")
	}
}

func TestEnvExpansion(t *testing.T) {
	t.Setenv("SUNWATCH_BROKER", "tcp://broker.local:1883")

	cfg, err := Parse([]byte(`
mqtt:
  broker: ${SUNWATCH_BROKER}
  username: ${SUNWATCH_USER:guest}
locations:
  - {name: home, lat: 51.5, lon: -0.1}
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.MQTT.Broker != "tcp://broker.local:1883" {
		t.Errorf("broker = %q", cfg.MQTT.Broker)
	}
	if cfg.MQTT.Username != "guest" {
		t.Errorf("username = %q, want default 'guest'", cfg.MQTT.Username)
	}
}

func TestSolarOffsets(t *testing.T) {
	loc := LocationConfig{Offsets: map[string]int{"sunriseEnd": 15}}
	offsets := loc.SolarOffsets()
	if len(offsets) != 1 {
		t.Fatalf("offsets = %v", offsets)
	}

	empty := LocationConfig{}
	if empty.SolarOffsets() != nil {
		t.Error("empty offsets should convert to nil")
	}
}
