package gpio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mklimuk/proximity"
)

type registry int

const DefaultMCP23017Address = 0x21

// registries, addressed through BankAddr
const (
	IODIRA registry = iota
	IOPOLA
	GPPUA
	GPIOA
	OLATA
	IOCONA
	IODIRB
	IOPOLB
	GPPUB
	GPIOB
	OLATB
	IOCONB
)

// BankAddr holds register addresses for IOCON.BANK=0 (index 0) and IOCON.BANK=1 (index 1).
var BankAddr = []map[registry]byte{
	{
		IODIRA: 0x00,
		IOPOLA: 0x02,
		IOCONA: 0x0A,
		GPPUA:  0x0C,
		GPIOA:  0x12,
		OLATA:  0x14,
		IODIRB: 0x01,
		IOPOLB: 0x03,
		IOCONB: 0x0B,
		GPPUB:  0x0D,
		GPIOB:  0x13,
		OLATB:  0x15,
	},
	{
		IODIRA: 0x00,
		IOPOLA: 0x01,
		IOCONA: 0x05,
		GPPUA:  0x06,
		GPIOA:  0x09,
		OLATA:  0x0A,
		IODIRB: 0x10,
		IOPOLB: 0x11,
		IOCONB: 0x15,
		GPPUB:  0x16,
		GPIOB:  0x19,
		OLATB:  0x1A,
	},
}

// Port selects one of the two 8-bit I/O sets.
type Port int

const (
	PortA Port = iota
	PortB
)

func (p Port) String() string {
	if p == PortB {
		return "B"
	}
	return "A"
}

func (p Port) reg(a, b registry) registry {
	if p == PortB {
		return b
	}
	return a
}

/*
MCP23017 16-bit I/O expander.

	Driving outputs:

1. Write 0x00 to IODIR (all outputs)
2. Write the level mask to OLAT
*/
type MCP23017 struct {
	mx        sync.Mutex
	transport proximity.I2CBus
	bank      int
	address   byte
}

func NewMCP23017(bus proximity.I2CBus, address byte) *MCP23017 {
	return &MCP23017{transport: bus, address: address}
}

// do runs op once. A busy bridge is released so the next call starts from idle.
func (m *MCP23017) do(ctx context.Context, what string, op func() error) error {
	err := op()
	if err == nil {
		return nil
	}
	if errors.Is(err, proximity.ErrBusBusy) {
		_ = m.transport.Release(ctx)
	}
	return fmt.Errorf("could not %s: %w", what, err)
}

func (m *MCP23017) writeRegistry(ctx context.Context, reg registry, value byte) error {
	m.mx.Lock()
	defer m.mx.Unlock()
	return m.transport.WriteToAddr(ctx, m.address, []byte{BankAddr[m.bank][reg], value})
}

func (m *MCP23017) readRegistry(ctx context.Context, reg registry) (byte, error) {
	m.mx.Lock()
	defer m.mx.Unlock()
	err := m.transport.WriteToAddr(ctx, m.address, []byte{BankAddr[m.bank][reg]})
	if err != nil {
		return 0x00, fmt.Errorf("could not set I/O registry address: %w", err)
	}
	buf := make([]byte, 1)
	err = m.transport.ReadFromAddr(ctx, m.address, buf)
	if err != nil {
		return 0x00, fmt.Errorf("could not read gpio data: %w", err)
	}
	return buf[0], nil
}

// Init sets the IODIR registry of port p (1 = input, 0 = output).
func (m *MCP23017) Init(ctx context.Context, p Port, inout byte) error {
	return m.do(ctx, "initialize gpio "+p.String()+" set", func() error {
		return m.writeRegistry(ctx, p.reg(IODIRA, IODIRB), inout)
	})
}

// Write drives the output latch of port p.
func (m *MCP23017) Write(ctx context.Context, p Port, levels byte) error {
	return m.do(ctx, "write gpio "+p.String()+" latch", func() error {
		return m.writeRegistry(ctx, p.reg(OLATA, OLATB), levels)
	})
}

// IOCONBank is set when the registers are laid out as BankAddr[1].
const IOCONBank byte = 0x80

// ReadSettings reads contents of the IOCON registry.
func (m *MCP23017) ReadSettings(ctx context.Context, p Port) (byte, error) {
	var res byte
	err := m.do(ctx, "read gpio "+p.String()+" settings", func() error {
		var err error
		res, err = m.readRegistry(ctx, p.reg(IOCONA, IOCONB))
		return err
	})
	return res, err
}
