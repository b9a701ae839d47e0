package i2c

import "tinygo.org/x/drivers"

var _ Engine = &TinyGoEngine{}

// TinyGoEngine runs the transaction layer on a microcontroller I2C peripheral
// (machine.I2C0 and friends satisfy drivers.I2C).
type TinyGoEngine struct {
	txEngine
}

func NewTinyGoEngine(bus drivers.I2C) *TinyGoEngine {
	e := &TinyGoEngine{}
	e.tx = bus.Tx
	return e
}
