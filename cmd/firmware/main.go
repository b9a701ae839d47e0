//go:build tinygo

// Command firmware runs the control loop on an RP2040 board: VL53L0X on I2C0
// (GP4/GP5), indicator LEDs on GP10..GP13 and report lines on UART0 (GP0/GP1).
package main

import (
	"context"
	"machine"
	"time"

	"github.com/mklimuk/proximity/control"
	"github.com/mklimuk/proximity/i2c"
	"github.com/mklimuk/proximity/indicator"
	"github.com/mklimuk/proximity/ranging"
	"github.com/mklimuk/proximity/report"
)

// ledPort drives one LED per mask bit.
type ledPort []machine.Pin

func (p ledPort) Init(ctx context.Context) error {
	for _, pin := range p {
		pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
		pin.Low()
	}
	return nil
}

func (p ledPort) Set(ctx context.Context, mask uint32) error {
	p.drive(mask, true)
	return nil
}

func (p ledPort) Clear(ctx context.Context, mask uint32) error {
	p.drive(mask, false)
	return nil
}

func (p ledPort) drive(mask uint32, on bool) {
	for i, pin := range p {
		if mask&(1<<i) != 0 {
			pin.Set(on)
		}
	}
}

const uartBaud = 9600

func main() {
	ctx := context.Background()
	err := machine.I2C0.Configure(machine.I2CConfig{
		Frequency: 100 * machine.KHz,
		SDA:       machine.GP4,
		SCL:       machine.GP5,
	})
	if err != nil {
		halt("i2c configure failed")
	}
	err = machine.UART0.Configure(machine.UARTConfig{
		BaudRate: uartBaud,
		TX:       machine.GP0,
		RX:       machine.GP1,
	})
	if err != nil {
		halt("uart configure failed")
	}

	bus := i2c.NewBus(i2c.NewTinyGoEngine(machine.I2C0))
	leds := ledPort{machine.GP10, machine.GP11, machine.GP12, machine.GP13}
	loop := control.New(
		ranging.NewVL53L0X(bus),
		indicator.New(leds),
		report.NewChannel(report.NewWirePort(machine.UART0, uartBaud)),
	)
	if err := loop.Start(ctx); err != nil {
		halt("startup failed")
	}
	_ = loop.Run(ctx)
}

func halt(msg string) {
	for {
		println(msg)
		time.Sleep(time.Second)
	}
}
