package publish

import (
	"context"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/dokzlo13/sunwatchd/internal/solar"
)

const (
	defaultTopicPrefix = "sunwatch"
	connectTimeout     = 10 * time.Second
	publishTimeout     = 5 * time.Second
)

// MQTTConfig holds broker connection settings.
type MQTTConfig struct {
	Broker       string
	ClientID     string
	TopicPrefix  string
	Username     string
	Password     string
	RateLimitRPS float64
}

// MQTTPublisher publishes occupancy state as retained MQTT messages:
//
//	<prefix>/<location>/<event>/occupied  "0" | "1"
//	<prefix>/<location>/<event>/time      wall-clock display time
//
// Retained messages make the broker the idempotent registry: a republish of
// the same value is harmless and late subscribers see current state.
type MQTTPublisher struct {
	client  paho.Client
	prefix  string
	limiter *rate.Limiter
}

// NewMQTTPublisher connects to the broker. Publish volume is small (one
// message per event per phase boundary), but the limiter guards against a
// misconfigured location storm on startup.
func NewMQTTPublisher(cfg MQTTConfig) (*MQTTPublisher, error) {
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "sunwatchd-" + uuid.NewString()[:8]
	}
	prefix := cfg.TopicPrefix
	if prefix == "" {
		prefix = defaultTopicPrefix
	}
	rps := cfg.RateLimitRPS
	if rps <= 0 {
		rps = 50
	}

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("mqtt connect timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	log.Info().Str("broker", cfg.Broker).Str("client_id", clientID).Msg("MQTT publisher connected")

	return &MQTTPublisher{
		client:  client,
		prefix:  prefix,
		limiter: rate.NewLimiter(rate.Limit(rps), int(rps)),
	}, nil
}

// Publish sends one event's occupancy and display time as retained messages.
func (p *MQTTPublisher) Publish(location string, event solar.EventName, state solar.EventState) error {
	occupied := "0"
	if state.Occupied {
		occupied = "1"
	}

	if err := p.send(EventTopic(p.prefix, location, event, "occupied"), occupied); err != nil {
		return err
	}
	return p.send(EventTopic(p.prefix, location, event, "time"), state.DisplayTime)
}

// SetEnabled retracts retained messages for every event outside the enabled
// set (an empty retained payload deletes the topic on the broker). All known
// events are swept rather than only those published by this process, so
// retained state left by an earlier run with a wider mode is cleared too.
// Retracting a topic that never existed is a no-op on the broker.
func (p *MQTTPublisher) SetEnabled(location string, enabled []solar.EventName) error {
	keep := make(map[solar.EventName]bool, len(enabled))
	for _, e := range enabled {
		keep[e] = true
	}

	for _, e := range solar.AllEvents {
		if keep[e] {
			continue
		}
		log.Debug().Str("location", location).Str("event", string(e)).Msg("Retracting sensor")
		if err := p.send(EventTopic(p.prefix, location, e, "occupied"), ""); err != nil {
			return err
		}
		if err := p.send(EventTopic(p.prefix, location, e, "time"), ""); err != nil {
			return err
		}
	}
	return nil
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() error {
	p.client.Disconnect(1000)
	return nil
}

func (p *MQTTPublisher) send(topic, payload string) error {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("publish rate limit: %w", err)
	}

	// QoS 1, retained
	token := p.client.Publish(topic, 1, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout on %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// EventTopic builds the topic for one event attribute.
func EventTopic(prefix, location string, event solar.EventName, attr string) string {
	return fmt.Sprintf("%s/%s/%s/%s", prefix, location, event, attr)
}
