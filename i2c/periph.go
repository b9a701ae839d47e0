//go:build !tinygo

package i2c

import (
	"fmt"
	"log/slog"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

var _ Engine = &PeriphEngine{}

// PeriphEngine drives a Linux I2C bus through periph.io.
type PeriphEngine struct {
	txEngine
	bus i2c.BusCloser
}

// OpenPeriph initializes the host drivers and opens dev ("" selects the first bus).
func OpenPeriph(dev string) (*PeriphEngine, error) {
	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	for _, driver := range state.Loaded {
		slog.Debug("host driver loaded", "driver", driver.String())
	}
	bus, err := i2creg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("could not open i2c bus: %w", err)
	}
	return NewPeriphEngine(bus), nil
}

func NewPeriphEngine(bus i2c.BusCloser) *PeriphEngine {
	e := &PeriphEngine{bus: bus}
	e.tx = bus.Tx
	return e
}

func (e *PeriphEngine) SetSpeed(f physic.Frequency) error {
	return e.bus.SetSpeed(f)
}

func (e *PeriphEngine) Close() error {
	return e.bus.Close()
}
