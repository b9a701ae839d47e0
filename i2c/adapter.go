package i2c

import (
	"context"
	"errors"

	"github.com/mklimuk/proximity"
)

var _ Engine = &AdapterEngine{}

// AdapterEngine runs the transaction layer over an all-or-nothing addressable bus such as
// the MCP2221 USB bridge. A failed transfer counts as zero acknowledged bytes.
type AdapterEngine struct {
	bus proximity.I2CBus
}

func NewAdapterEngine(bus proximity.I2CBus) *AdapterEngine {
	return &AdapterEngine{bus: bus}
}

func (e *AdapterEngine) Start(ctx context.Context) error {
	return ctx.Err()
}

func (e *AdapterEngine) Stop(ctx context.Context) error {
	return nil
}

func (e *AdapterEngine) Send(ctx context.Context, address byte, data []byte, mode Mode) (int, error) {
	err := e.bus.WriteToAddr(ctx, address, data)
	if err != nil {
		e.recover(ctx, err)
		return 0, err
	}
	return len(data), nil
}

func (e *AdapterEngine) Recv(ctx context.Context, address byte, buffer []byte, mode Mode) (int, error) {
	err := e.bus.ReadFromAddr(ctx, address, buffer)
	if err != nil {
		e.recover(ctx, err)
		return 0, err
	}
	return len(buffer), nil
}

func (e *AdapterEngine) recover(ctx context.Context, err error) {
	if errors.Is(err, proximity.ErrBusBusy) {
		// try to release the bus for the next transaction
		_ = e.bus.Release(ctx)
	}
}
