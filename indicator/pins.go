//go:build !tinygo

package indicator

import (
	"context"
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// PinPort maps mask bits onto individual GPIO lines. Bit n drives pins[n].
type PinPort struct {
	pins      []gpio.PinOut
	activeLow bool
}

func NewPinPort(activeLow bool, pins ...gpio.PinOut) *PinPort {
	return &PinPort{pins: pins, activeLow: activeLow}
}

// OpenPinPort resolves pin names through the periph registry (BCM numbers on a
// Raspberry Pi, e.g. "GPIO17").
func OpenPinPort(activeLow bool, names ...string) (*PinPort, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	pins := make([]gpio.PinOut, 0, len(names))
	for _, name := range names {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("no GPIO pin named: %s", name)
		}
		pins = append(pins, p)
	}
	return NewPinPort(activeLow, pins...), nil
}

func (p *PinPort) level(on bool) gpio.Level {
	if p.activeLow {
		return gpio.Level(!on)
	}
	return gpio.Level(on)
}

func (p *PinPort) Init(ctx context.Context) error {
	for i, pin := range p.pins {
		if err := pin.Out(p.level(false)); err != nil {
			return fmt.Errorf("could not configure pin %d (%s): %w", i, pin, err)
		}
	}
	return nil
}

func (p *PinPort) Set(ctx context.Context, mask uint32) error {
	return p.drive(mask, true)
}

func (p *PinPort) Clear(ctx context.Context, mask uint32) error {
	return p.drive(mask, false)
}

func (p *PinPort) drive(mask uint32, on bool) error {
	if mask>>uint(len(p.pins)) != 0 {
		return fmt.Errorf("mask %#x exceeds %d pins", mask, len(p.pins))
	}
	for i, pin := range p.pins {
		if mask&(1<<uint(i)) == 0 {
			continue
		}
		if err := pin.Out(p.level(on)); err != nil {
			return fmt.Errorf("could not drive pin %d (%s): %w", i, pin, err)
		}
	}
	return nil
}
