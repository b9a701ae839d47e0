package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/proximity/adapter"
	"github.com/mklimuk/proximity/config"
	"github.com/mklimuk/proximity/control"
	"github.com/mklimuk/proximity/gpio"
	"github.com/mklimuk/proximity/i2c"
	"github.com/mklimuk/proximity/indicator"
	"github.com/mklimuk/proximity/ranging"
	"github.com/mklimuk/proximity/report"
)

// rig is the set of peripherals opened from the configuration.
type rig struct {
	bus     *i2c.Bus
	busInit func(ctx context.Context) error
	bridge  *adapter.MCP2221
	sensor  *ranging.VL53L0X
	port    indicator.Port
	out     io.Writer
	closers []func() error
}

func (r *rig) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i]())
	}
	return errors.Join(errs...)
}

func (r *rig) mcp2221() *adapter.MCP2221 {
	if r.bridge == nil {
		r.bridge = adapter.NewMCP2221()
	}
	return r.bridge
}

// openRig opens the bus, the indicator port and, when withReport is set, the report
// output. On failure everything opened so far is closed.
func openRig(cfg *config.Config, withReport bool) (*rig, error) {
	r := &rig{}
	if err := r.open(cfg, withReport); err != nil {
		_ = r.Close()
		return nil, err
	}
	return r, nil
}

func (r *rig) open(cfg *config.Config, withReport bool) error {
	if err := r.openBus(cfg.Bus); err != nil {
		return err
	}
	r.sensor = ranging.NewVL53L0X(r.bus, ranging.WithAddress(cfg.Sensor.Address))
	if err := r.openIndicator(cfg.Indicator); err != nil {
		return err
	}
	if !withReport {
		return nil
	}
	return r.openReport(cfg.Report)
}

func (r *rig) openBus(cfg config.Bus) error {
	var engine i2c.Engine
	switch cfg.Backend {
	case config.BusPeriph:
		eng, err := i2c.OpenPeriph(cfg.Device)
		if err != nil {
			return err
		}
		r.closers = append(r.closers, eng.Close)
		if cfg.SpeedHz > 0 {
			if err := eng.SetSpeed(physic.Frequency(cfg.SpeedHz) * physic.Hertz); err != nil {
				return fmt.Errorf("could not set bus speed: %w", err)
			}
		}
		engine = eng
	case config.BusGobot:
		npi := nanopi.NewNeoAdaptor()
		if err := npi.I2cBusAdaptor.Connect(); err != nil {
			return fmt.Errorf("adaptor connect error: %w", err)
		}
		r.closers = append(r.closers, npi.I2cBusAdaptor.Finalize)
		eng := i2c.NewGobotEngine(npi, cfg.Number)
		r.closers = append(r.closers, eng.Close)
		engine = eng
	case config.BusMCP2221:
		bridge := r.mcp2221()
		r.busInit = func(ctx context.Context) error {
			return bridge.Init()
		}
		engine = i2c.NewAdapterEngine(bridge)
	default:
		return fmt.Errorf("unsupported bus backend %q", cfg.Backend)
	}
	slog.Debug("bus opened", "backend", cfg.Backend, "device", cfg.Device)
	r.bus = i2c.NewBus(engine)
	return nil
}

func (r *rig) openIndicator(cfg config.Indicator) error {
	switch cfg.Backend {
	case config.IndicatorGPIO:
		port, err := indicator.OpenPinPort(cfg.ActiveLow, cfg.Pins...)
		if err != nil {
			return err
		}
		r.port = port
	case config.IndicatorExpander:
		bank := gpio.PortA
		if cfg.ExpanderPort == "B" {
			bank = gpio.PortB
		}
		r.port = indicator.NewExpanderPort(gpio.NewMCP23017(r.bus, cfg.ExpanderAddress), bank)
	case config.IndicatorMCP2221:
		r.port = indicator.NewBridgePort(r.mcp2221())
	case config.IndicatorNone:
		r.port = indicator.NewRecorder()
	default:
		return fmt.Errorf("unsupported indicator backend %q", cfg.Backend)
	}
	return nil
}

func (r *rig) openReport(cfg config.Report) error {
	if cfg.Output == config.OutputStdout {
		r.out = os.Stdout
		return nil
	}
	port, err := report.OpenSerial(cfg.Serial)
	if err != nil {
		return err
	}
	r.closers = append(r.closers, port.Close)
	r.out = port
	return nil
}

// loop wires the rig into a control loop configured from cfg.
func (r *rig) loop(cfg *config.Config, opts ...control.Opt) *control.Loop {
	ind := indicator.New(r.port,
		indicator.WithPatterns(cfg.Indicator.Patterns),
		indicator.WithOffPhase(cfg.Indicator.OffPhase))
	out := r.out
	if out == nil {
		out = io.Discard
	}
	ch := report.NewChannel(out, report.WithSettle(cfg.Report.Settle))
	opts = append([]control.Opt{
		control.WithThresholds(cfg.Thresholds),
		control.WithTiming(cfg.Timing),
	}, opts...)
	if r.busInit != nil {
		opts = append(opts, control.WithBusInit(r.busInit))
	}
	return control.New(r.sensor, ind, ch, opts...)
}
