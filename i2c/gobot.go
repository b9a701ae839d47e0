//go:build !tinygo

package i2c

import (
	"context"
	"errors"
	"fmt"

	gobot "gobot.io/x/gobot/v2/drivers/i2c"
)

var _ Engine = &GobotEngine{}

// GobotEngine uses gobot i2c connections (e.g. the NanoPi adaptor). Reads and writes
// report the byte counts returned by the kernel. The i2c-dev interface issues a stop
// between phases, which the ranging sensor tolerates.
type GobotEngine struct {
	connector gobot.Connector
	busNr     int
	conns     map[byte]gobot.Connection
}

func NewGobotEngine(connector gobot.Connector, busNr int) *GobotEngine {
	if busNr < 0 {
		busNr = connector.DefaultI2cBus()
	}
	return &GobotEngine{connector: connector, busNr: busNr, conns: map[byte]gobot.Connection{}}
}

func (e *GobotEngine) connection(address byte) (gobot.Connection, error) {
	if c, ok := e.conns[address]; ok {
		return c, nil
	}
	c, err := e.connector.GetI2cConnection(int(address), e.busNr)
	if err != nil {
		return nil, fmt.Errorf("could not get connection for %#x on bus %d: %w", address, e.busNr, err)
	}
	e.conns[address] = c
	return c, nil
}

func (e *GobotEngine) Start(ctx context.Context) error {
	return ctx.Err()
}

func (e *GobotEngine) Stop(ctx context.Context) error {
	return nil
}

func (e *GobotEngine) Send(ctx context.Context, address byte, data []byte, mode Mode) (int, error) {
	c, err := e.connection(address)
	if err != nil {
		return 0, err
	}
	return c.Write(data)
}

func (e *GobotEngine) Recv(ctx context.Context, address byte, buffer []byte, mode Mode) (int, error) {
	c, err := e.connection(address)
	if err != nil {
		return 0, err
	}
	return c.Read(buffer)
}

func (e *GobotEngine) Close() error {
	var errs []error
	for addr, c := range e.conns {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %#x: %w", addr, err))
		}
		delete(e.conns, addr)
	}
	return errors.Join(errs...)
}
