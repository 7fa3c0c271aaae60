// Package config loads and validates the sunwatchd YAML configuration.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dokzlo13/sunwatchd/internal/solar"
)

// Config represents the application configuration
type Config struct {
	Locations       Locations         `yaml:"locations"`
	MQTT            MQTTConfig        `yaml:"mqtt"`
	Database        DatabaseConfig    `yaml:"database"`
	Geo             GeoConfig         `yaml:"geo"`
	Log             LogConfig         `yaml:"log"`
	Hooks           HooksConfig       `yaml:"hooks"`
	Healthcheck     HealthcheckConfig `yaml:"healthcheck"`
	ShutdownTimeout Duration          `yaml:"shutdown_timeout"` // General shutdown timeout for graceful stops
}

// LocationConfig describes one monitored location. It is immutable for the
// lifetime of the phase monitor constructed from it.
type LocationConfig struct {
	Name string `yaml:"name"`
	// Pointers so an absent coordinate is distinguishable from 0.0
	Lat      *float64       `yaml:"lat"`
	Lon      *float64       `yaml:"lon"`
	Place    string         `yaml:"place,omitempty"` // geocoded when lat/lon are absent
	Timezone string         `yaml:"timezone"`
	Mode     string         `yaml:"mode"`
	Offsets  map[string]int `yaml:"offsets"` // minutes, sunriseEnd/sunsetStart only
}

// Locations accepts either a YAML sequence of location mappings or a single
// unwrapped mapping (older configs carried one location at the top level).
type Locations []LocationConfig

// UnmarshalYAML implements yaml.Unmarshaler for Locations
func (l *Locations) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var list []LocationConfig
		if err := value.Decode(&list); err != nil {
			return err
		}
		*l = list
		return nil
	case yaml.MappingNode:
		var single LocationConfig
		if err := value.Decode(&single); err != nil {
			return err
		}
		*l = Locations{single}
		return nil
	}
	return fmt.Errorf("locations must be a list or a single mapping")
}

// MQTTConfig contains broker connection settings for the sensor publisher
type MQTTConfig struct {
	Broker       string  `yaml:"broker"`
	ClientID     string  `yaml:"client_id"`
	TopicPrefix  string  `yaml:"topic_prefix"`
	Username     string  `yaml:"username"`
	Password     string  `yaml:"password"`
	RateLimitRPS float64 `yaml:"rate_limit_rps"`
}

// IsEnabled reports whether a broker is configured.
func (c *MQTTConfig) IsEnabled() bool {
	return c.Broker != ""
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// GeoConfig contains geocoding settings
type GeoConfig struct {
	HTTPTimeout Duration `yaml:"http_timeout"` // Timeout for geocoding HTTP requests
}

// LogConfig contains logging settings
type LogConfig struct {
	Level   string `yaml:"level"`
	UseJSON bool   `yaml:"json"`
	Colors  bool   `yaml:"colors"`
}

// GetLevel returns the log level with default
func (c *LogConfig) GetLevel() string {
	if c.Level == "" {
		return "info"
	}
	return c.Level
}

// HooksConfig contains phase hook settings
type HooksConfig struct {
	Script string `yaml:"script"` // Lua script path; empty disables hooks
}

// HealthcheckConfig contains health check server settings
type HealthcheckConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// Duration is a wrapper around time.Duration for YAML unmarshalling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse parses configuration bytes, applies defaults and validates.
func Parse(data []byte) (*Config, error) {
	// Expand environment variables
	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "./sunwatchd.sqlite"
	}
	if cfg.Geo.HTTPTimeout == 0 {
		cfg.Geo.HTTPTimeout = Duration(10 * time.Second)
	}
	if cfg.Healthcheck.Port == 0 {
		cfg.Healthcheck.Port = 9090
	}
	if cfg.Healthcheck.Host == "" {
		cfg.Healthcheck.Host = "0.0.0.0"
	}
	if cfg.MQTT.RateLimitRPS == 0 {
		cfg.MQTT.RateLimitRPS = 50
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = Duration(5 * time.Second)
	}

	for i := range cfg.Locations {
		if cfg.Locations[i].Timezone == "" {
			cfg.Locations[i].Timezone = "UTC"
		}
		if cfg.Locations[i].Mode == "" {
			cfg.Locations[i].Mode = string(solar.ModeFull)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the configuration before any monitor is constructed.
// Coordinate ranges are re-checked at monitor construction; the checks here
// surface errors for all locations up front.
func (c *Config) Validate() error {
	if len(c.Locations) == 0 {
		return fmt.Errorf("at least one location is required")
	}

	seen := make(map[string]bool, len(c.Locations))
	for _, loc := range c.Locations {
		if loc.Name == "" {
			return fmt.Errorf("location name is required")
		}
		if seen[loc.Name] {
			return fmt.Errorf("duplicate location name %q", loc.Name)
		}
		seen[loc.Name] = true

		if loc.Place == "" {
			if loc.Lat == nil || loc.Lon == nil {
				return fmt.Errorf("location %q: lat and lon are required when no place is given", loc.Name)
			}
			if *loc.Lat < -90 || *loc.Lat > 90 {
				return fmt.Errorf("location %q: latitude %v out of range [-90, 90]", loc.Name, *loc.Lat)
			}
			if *loc.Lon < -180 || *loc.Lon > 180 {
				return fmt.Errorf("location %q: longitude %v out of range [-180, 180]", loc.Name, *loc.Lon)
			}
		}

		if _, err := time.LoadLocation(loc.Timezone); err != nil {
			return fmt.Errorf("location %q: unknown timezone %q", loc.Name, loc.Timezone)
		}

		for key := range loc.Offsets {
			if !solar.EventName(key).IsOffsettable() {
				return fmt.Errorf("location %q: offset not supported for event %q", loc.Name, key)
			}
		}
	}

	return nil
}

// SolarOffsets converts the string-keyed offset table to event keys.
func (l *LocationConfig) SolarOffsets() map[solar.EventName]int {
	if len(l.Offsets) == 0 {
		return nil
	}
	out := make(map[solar.EventName]int, len(l.Offsets))
	for k, v := range l.Offsets {
		out[solar.EventName(k)] = v
	}
	return out
}

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}
func expandEnvVars(input string) string {
	// Match ${VAR} or ${VAR:default}
	re := regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

	return re.ReplaceAllStringFunc(input, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultVal := ""
		if len(parts) >= 3 {
			defaultVal = parts[2]
		}

		if val := os.Getenv(varName); val != "" {
			return val
		}
		return defaultVal
	})
}
