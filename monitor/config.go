package monitor

import (
	"errors"
	"time"

	"github.com/mklimuk/proximity/report"
)

type MQTTConfig struct {
	// Broker is a paho server URL, e.g. tcp://localhost:1883. Empty disables publishing.
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
	QoS         byte   `yaml:"qos"`
	Retain      bool   `yaml:"retain"`
}

type Config struct {
	Serial report.SerialConfig `yaml:"serial"`
	// CSVPath enables the CSV log when set.
	CSVPath   string        `yaml:"csv_path"`
	Reconnect time.Duration `yaml:"reconnect"`
	MQTT      MQTTConfig    `yaml:"mqtt"`
}

var DefaultConfig = Config{
	Serial: report.SerialConfig{
		Device:   "/dev/ttyUSB0",
		BaudRate: report.DefaultSerial.BaudRate,
		Timeout:  report.DefaultSerial.Timeout,
	},
	Reconnect: 3 * time.Second,
	MQTT: MQTTConfig{
		ClientID:    "proximity-monitor",
		TopicPrefix: "proximity",
	},
}

func (c Config) Validate() error {
	var errs []error
	if c.Reconnect <= 0 {
		errs = append(errs, errors.New("reconnect interval must be positive"))
	}
	if c.Serial.BaudRate <= 0 {
		errs = append(errs, errors.New("serial baud rate must be positive"))
	}
	if c.MQTT.QoS > 2 {
		errs = append(errs, errors.New("mqtt qos must be 0, 1 or 2"))
	}
	if c.MQTT.Broker != "" && c.MQTT.TopicPrefix == "" {
		errs = append(errs, errors.New("mqtt topic prefix is required with a broker"))
	}
	return errors.Join(errs...)
}
