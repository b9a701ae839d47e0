package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const publishTimeout = 5 * time.Second

// Publisher is the part of mqtt.Client used by MQTTSink.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Reading is the JSON payload published for every report line. DistanceMM is null for
// ERROR lines.
type Reading struct {
	DistanceMM *uint16   `json:"distance_mm"`
	Band       string    `json:"band"`
	Error      bool      `json:"error"`
	Timestamp  time.Time `json:"ts"`
}

// MQTTSink publishes decoded readings to <prefix>/distance. READY and malformed lines
// are not published.
type MQTTSink struct {
	client Publisher
	cfg    MQTTConfig
}

func NewMQTTSink(client Publisher, cfg MQTTConfig) *MQTTSink {
	return &MQTTSink{client: client, cfg: cfg}
}

func (s *MQTTSink) Topic() string {
	return s.cfg.TopicPrefix + "/distance"
}

func NewReading(ev Event) Reading {
	r := Reading{
		Band:      ev.Band.String(),
		Error:     !ev.Line.Distance.Valid(),
		Timestamp: ev.Time,
	}
	if !r.Error {
		mm := ev.Line.Distance.Millimeters()
		r.DistanceMM = &mm
	}
	return r
}

func (s *MQTTSink) Handle(ctx context.Context, ev Event) error {
	if ev.Err != nil || ev.Line.Ready {
		return nil
	}
	data, err := json.Marshal(NewReading(ev))
	if err != nil {
		return fmt.Errorf("marshal reading: %w", err)
	}
	token := s.client.Publish(s.Topic(), s.cfg.QoS, s.cfg.Retain, data)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(publishTimeout):
		return fmt.Errorf("publish timeout for topic %s", s.Topic())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish reading: %w", err)
	}
	slog.Debug("published reading", "topic", s.Topic(), "band", ev.Band)
	return nil
}

// ConnectMQTT connects a paho client to cfg.Broker, waiting for the first connection
// while honouring ctx.
func ConnectMQTT(ctx context.Context, cfg MQTTConfig) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		slog.Info("mqtt connected", "broker", cfg.Broker)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		slog.Warn("mqtt connection lost", "error", err)
	})
	client := mqtt.NewClient(opts)
	token := client.Connect()
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return nil, fmt.Errorf("mqtt connect: %w", err)
		}
		return client, nil
	case <-ctx.Done():
		client.Disconnect(250)
		return nil, ctx.Err()
	}
}
