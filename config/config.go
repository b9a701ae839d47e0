package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mklimuk/proximity/classify"
	"github.com/mklimuk/proximity/control"
	"github.com/mklimuk/proximity/gpio"
	"github.com/mklimuk/proximity/indicator"
	"github.com/mklimuk/proximity/logging"
	"github.com/mklimuk/proximity/monitor"
	"github.com/mklimuk/proximity/ranging"
	"github.com/mklimuk/proximity/report"
)

// Bus backends.
const (
	BusPeriph  = "periph"
	BusGobot   = "gobot"
	BusMCP2221 = "mcp2221"
)

// Indicator backends.
const (
	IndicatorGPIO     = "gpio"
	IndicatorExpander = "expander"
	IndicatorMCP2221  = "mcp2221"
	IndicatorNone     = "none"
)

// Report outputs.
const (
	OutputSerial = "serial"
	OutputStdout = "stdout"
)

type Bus struct {
	Backend string `yaml:"backend"`
	// Device is the periph bus name ("" or "1" or "/dev/i2c-1").
	Device string `yaml:"device"`
	// Number is the gobot bus number.
	Number  int   `yaml:"number"`
	SpeedHz int64 `yaml:"speed_hz"`
}

type Sensor struct {
	Address byte `yaml:"address"`
}

type Indicator struct {
	Backend   string   `yaml:"backend"`
	Pins      []string `yaml:"pins"`
	ActiveLow bool     `yaml:"active_low"`
	// ExpanderAddress and ExpanderPort select the MCP23017 bank.
	ExpanderAddress byte               `yaml:"expander_address"`
	ExpanderPort    string             `yaml:"expander_port"`
	OffPhase        bool               `yaml:"off_phase"`
	Patterns        indicator.Patterns `yaml:"patterns"`
}

type Report struct {
	Output string              `yaml:"output"`
	Serial report.SerialConfig `yaml:"serial"`
	Settle time.Duration       `yaml:"settle"`
}

type Config struct {
	Bus        Bus                 `yaml:"bus"`
	Sensor     Sensor              `yaml:"sensor"`
	Indicator  Indicator           `yaml:"indicator"`
	Report     Report              `yaml:"report"`
	Thresholds classify.Thresholds `yaml:"thresholds"`
	Timing     control.Timing      `yaml:"timing"`
	Monitor    monitor.Config      `yaml:"monitor"`
	Log        logging.Config      `yaml:"log"`
}

// Default returns the stock configuration: periph bus 1, GPIO indicators, 9600 baud
// report line on /dev/ttyS0.
func Default() *Config {
	serial := report.DefaultSerial
	serial.Device = "/dev/ttyS0"
	return &Config{
		Bus: Bus{
			Backend: BusPeriph,
			Device:  "1",
			Number:  1,
			SpeedHz: 100_000,
		},
		Sensor: Sensor{Address: ranging.DefaultAddress},
		Indicator: Indicator{
			Backend:         IndicatorGPIO,
			Pins:            []string{"GPIO17", "GPIO27", "GPIO22", "GPIO23"},
			ExpanderAddress: gpio.DefaultMCP23017Address,
			ExpanderPort:    "A",
			OffPhase:        true,
			Patterns:        maps.Clone(indicator.DefaultPatterns),
		},
		Report: Report{
			Output: OutputSerial,
			Serial: serial,
			Settle: report.DefaultSettle,
		},
		Thresholds: classify.DefaultThresholds,
		Timing:     control.DefaultTiming,
		Monitor:    monitor.DefaultConfig,
		Log:        logging.Default,
	}
}

// Load reads a YAML file on top of the defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	if err := Parse(data, cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// Parse decodes YAML into cfg, keeping values the document does not set.
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("could not parse config: %w", err)
	}
	return nil
}

func oneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s: unsupported value %q (allowed: %v)", field, value, allowed)
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	errs = append(errs, oneOf("bus.backend", c.Bus.Backend, BusPeriph, BusGobot, BusMCP2221))
	if c.Sensor.Address == 0 || c.Sensor.Address > 0x7F {
		errs = append(errs, fmt.Errorf("sensor.address: %#x is not a 7-bit address", c.Sensor.Address))
	}
	errs = append(errs, oneOf("indicator.backend", c.Indicator.Backend,
		IndicatorGPIO, IndicatorExpander, IndicatorMCP2221, IndicatorNone))
	if c.Indicator.Backend == IndicatorGPIO && len(c.Indicator.Pins) == 0 {
		errs = append(errs, errors.New("indicator.pins: at least one pin is required"))
	}
	if c.Indicator.Backend == IndicatorExpander {
		errs = append(errs, oneOf("indicator.expander_port", c.Indicator.ExpanderPort, "A", "B"))
	}
	if err := c.Indicator.Patterns.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("indicator.patterns: %w", err))
	}
	errs = append(errs, oneOf("report.output", c.Report.Output, OutputSerial, OutputStdout))
	if c.Report.Output == OutputSerial {
		if c.Report.Serial.Device == "" {
			errs = append(errs, errors.New("report.serial.device: required for serial output"))
		}
		if c.Report.Serial.BaudRate <= 0 {
			errs = append(errs, fmt.Errorf("report.serial.baud_rate: %d must be positive", c.Report.Serial.BaudRate))
		}
	}
	if c.Report.Settle < 0 {
		errs = append(errs, errors.New("report.settle: must not be negative"))
	}
	if err := c.Thresholds.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("thresholds: %w", err))
	}
	if err := c.Timing.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("timing: %w", err))
	}
	if err := c.Monitor.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("monitor: %w", err))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	errs = append(errs, oneOf("log.format", c.Log.Format, logging.FormatCharm, logging.FormatTint, logging.FormatJSON))
	return errors.Join(errs...)
}

// Dump renders cfg as YAML.
func (c *Config) Dump() ([]byte, error) {
	return yaml.Marshal(c)
}
