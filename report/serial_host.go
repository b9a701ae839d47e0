//go:build !tinygo

package report

import (
	"fmt"

	"github.com/goburrow/serial"
)

// SerialPort is an open host serial device. Writes go through a WirePort so that a
// report line is on the wire when Flush returns.
type SerialPort struct {
	serial.Port
	drain *WirePort
}

// OpenSerial opens the serial device described by cfg.
func OpenSerial(cfg SerialConfig) (*SerialPort, error) {
	port, err := serial.Open(&serial.Config{
		Address:  cfg.Device,
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("could not open serial port %s: %w", cfg.Device, err)
	}
	return newSerialPort(port, cfg.BaudRate), nil
}

func newSerialPort(port serial.Port, baud int, opts ...WirePortOpt) *SerialPort {
	return &SerialPort{Port: port, drain: NewWirePort(port, baud, opts...)}
}

func (p *SerialPort) Write(b []byte) (int, error) {
	return p.drain.Write(b)
}

func (p *SerialPort) Flush() error {
	return p.drain.Flush()
}
