package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/sunwatchd/internal/config"
	"github.com/dokzlo13/sunwatchd/internal/db"
	"github.com/dokzlo13/sunwatchd/internal/eventbus"
	"github.com/dokzlo13/sunwatchd/internal/geo"
	"github.com/dokzlo13/sunwatchd/internal/hooks"
	"github.com/dokzlo13/sunwatchd/internal/monitor"
	"github.com/dokzlo13/sunwatchd/internal/publish"
	"github.com/dokzlo13/sunwatchd/internal/solar"
)

// Services is a container for all application services.
// It manages service initialization order and dependencies.
type Services struct {
	cfg *config.Config

	// Core infrastructure
	DB       *db.DB
	Resolver *geo.Resolver
	Bus      *eventbus.Bus

	// Sensor output
	Publisher publish.Publisher

	// Phase monitors, one per configured location
	Monitors []*monitor.Monitor

	// Optional Lua transition hook
	Hooks *hooks.Runner

	// Health/state HTTP server
	Health *HealthService
}

// NewServices creates all services with proper dependency injection.
// Monitor construction failures abort startup: a location that cannot be
// resolved to valid coordinates is a configuration error.
func NewServices(cfg *config.Config) (*Services, error) {
	s := &Services{cfg: cfg}

	// Initialize database (geocache persistence)
	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	s.DB = database

	// Initialize geo resolver for place-name locations
	s.Resolver = geo.NewResolver(cfg.Geo.HTTPTimeout.Duration(), geo.NewCache(database.DB))

	// Initialize event bus for phase transitions
	s.Bus = eventbus.New()

	// Initialize sensor publisher
	if cfg.MQTT.IsEnabled() {
		pub, err := publish.NewMQTTPublisher(publish.MQTTConfig{
			Broker:       cfg.MQTT.Broker,
			ClientID:     cfg.MQTT.ClientID,
			TopicPrefix:  cfg.MQTT.TopicPrefix,
			Username:     cfg.MQTT.Username,
			Password:     cfg.MQTT.Password,
			RateLimitRPS: cfg.MQTT.RateLimitRPS,
		})
		if err != nil {
			s.Close()
			return nil, err
		}
		s.Publisher = pub
	} else {
		log.Warn().Msg("No MQTT broker configured, sensor updates go to the log only")
		s.Publisher = publish.NewLogPublisher()
	}

	// Initialize Lua hooks
	if cfg.Hooks.Script != "" {
		runner, err := hooks.Load(cfg.Hooks.Script)
		if err != nil {
			s.Close()
			return nil, err
		}
		runner.Register(s.Bus)
		s.Hooks = runner
	}

	// Construct one phase monitor per location
	oracle := solar.SunCalcOracle{}
	for _, locCfg := range cfg.Locations {
		loc, err := s.buildLocation(locCfg)
		if err != nil {
			s.Close()
			return nil, err
		}

		mon, err := monitor.New(loc, oracle, s.Publisher, s.onTransition)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.Monitors = append(s.Monitors, mon)
	}

	// Initialize health service
	s.Health = NewHealthService(cfg, s.Monitors)

	return s, nil
}

// buildLocation resolves a location config to monitor parameters, geocoding
// the place name when coordinates are not given.
func (s *Services) buildLocation(locCfg config.LocationConfig) (monitor.Location, error) {
	var lat, lon float64
	if locCfg.Place != "" {
		resolved, err := s.Resolver.Resolve(locCfg.Place)
		if err != nil {
			return monitor.Location{}, err
		}
		lat, lon = resolved.Latitude, resolved.Longitude
	} else {
		// Validate guarantees both are set when no place is configured.
		lat, lon = *locCfg.Lat, *locCfg.Lon
	}

	tz, err := time.LoadLocation(locCfg.Timezone)
	if err != nil {
		log.Warn().Err(err).Str("timezone", locCfg.Timezone).Msg("Failed to load timezone, using UTC")
		tz = time.UTC
	}

	return monitor.Location{
		Name:      locCfg.Name,
		Latitude:  lat,
		Longitude: lon,
		Mode:      solar.ParseMode(locCfg.Mode),
		Offsets:   locCfg.SolarOffsets(),
		Timezone:  tz,
	}, nil
}

// onTransition forwards phase changes to the event bus.
func (s *Services) onTransition(location string, previous, current solar.EventName) {
	s.Bus.Publish(eventbus.Event{
		Type: eventbus.EventTypePhase,
		Data: eventbus.PhaseEvent{
			Location: location,
			Previous: string(previous),
			Current:  string(current),
			At:       time.Now(),
		},
	})
}

// Start starts all services in the correct order.
func (s *Services) Start(ctx context.Context) error {
	for _, mon := range s.Monitors {
		if err := mon.Start(ctx); err != nil {
			return err
		}
	}

	s.Health.Start(ctx)

	return nil
}

// Stop gracefully stops all services.
func (s *Services) Stop() error {
	for _, mon := range s.Monitors {
		mon.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout.Duration())
	defer cancel()
	s.Bus.Close(shutdownCtx)

	s.Close()
	return nil
}

// Close releases all resources.
func (s *Services) Close() {
	if s.Hooks != nil {
		s.Hooks.Close()
	}
	if s.Publisher != nil {
		s.Publisher.Close()
	}
	if s.DB != nil {
		s.DB.Close()
	}
}
