// Package telemetry publishes time-sync outcomes to an MQTT broker, or as
// UDP datagrams on the local network, so a fleet of clocks can be watched
// from one place.
package telemetry

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	mqtt "github.com/eclipse/paho.mqtt.golang"

	"wakeclock/internal/gps"
	"wakeclock/internal/scheduler"
)

type Config struct {
	Broker   string
	ClientID string
	Topic    string
	QoS      byte
	Retain   bool
	// Timeout bounds connect and each publish. Defaults to 5s.
	Timeout time.Duration
}

// client is the part of mqtt.Client the publisher uses.
type client interface {
	Connect() mqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

var newClientFn = func(opts *mqtt.ClientOptions) client { return mqtt.NewClient(opts) }

// Publisher is a scheduler.SyncReporter. Publishing is asynchronous; failures
// are logged and dropped.
type Publisher struct {
	cfg    Config
	client client
	log    *log.Logger
}

func NewPublisher(cfg Config, lg *log.Logger) (*Publisher, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("telemetry: broker is required")
	}
	if cfg.Topic == "" {
		cfg.Topic = "wakeclock/sync"
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "wakeclock"
	}
	if cfg.QoS > 2 {
		return nil, fmt.Errorf("telemetry: qos %d out of range", cfg.QoS)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if lg == nil {
		lg = log.Default()
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetConnectTimeout(cfg.Timeout).
		SetAutoReconnect(true)

	c := newClientFn(opts)
	token := c.Connect()
	if !token.WaitTimeout(cfg.Timeout) {
		return nil, fmt.Errorf("telemetry: connect %s: timeout", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("telemetry: connect %s: %w", cfg.Broker, err)
	}
	lg = lg.With("component", "telemetry")
	lg.Info("telemetry: connected", "broker", cfg.Broker, "topic", cfg.Topic)
	return &Publisher{cfg: cfg, client: c, log: lg}, nil
}

// SyncMessage is the JSON document published per outcome.
type SyncMessage struct {
	Outcome  string `json:"outcome"`
	UTC      string `json:"utc,omitempty"`
	Local    string `json:"local,omitempty"`
	Sentence string `json:"sentence,omitempty"`
	Error    string `json:"error,omitempty"`
	NextSlot string `json:"next_alarm"`
}

func encode(ev scheduler.SyncEvent) ([]byte, error) {
	msg := SyncMessage{
		Outcome:  ev.Outcome.Kind.String(),
		Sentence: ev.Outcome.Sentence,
		NextSlot: ev.Next.String(),
	}
	if ev.Outcome.Kind == gps.Acquired {
		msg.UTC = ev.Outcome.UTC.String()
		msg.Local = ev.Local.String()
	}
	if ev.Outcome.Err != nil {
		msg.Error = ev.Outcome.Err.Error()
	}
	return json.Marshal(msg)
}

func (p *Publisher) Report(ev scheduler.SyncEvent) {
	payload, err := encode(ev)
	if err != nil {
		p.log.Warn("telemetry: encode failed", "err", err)
		return
	}
	token := p.client.Publish(p.cfg.Topic, p.cfg.QoS, p.cfg.Retain, payload)
	go func() {
		if !token.WaitTimeout(p.cfg.Timeout) {
			p.log.Warn("telemetry: publish timeout", "topic", p.cfg.Topic)
			return
		}
		if err := token.Error(); err != nil {
			p.log.Warn("telemetry: publish failed", "topic", p.cfg.Topic, "err", err)
		}
	}()
}

func (p *Publisher) Close() error {
	p.client.Disconnect(250)
	return nil
}
