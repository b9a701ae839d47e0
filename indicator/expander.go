package indicator

import (
	"context"
	"fmt"
	"sync"

	"github.com/mklimuk/proximity/gpio"
)

// ExpanderPort drives indicators from one 8-bit set of an MCP23017 expander. It keeps
// a copy of the output latch so single bits can be toggled without a read.
type ExpanderPort struct {
	mx    sync.Mutex
	exp   *gpio.MCP23017
	port  gpio.Port
	latch byte
}

func NewExpanderPort(exp *gpio.MCP23017, port gpio.Port) *ExpanderPort {
	return &ExpanderPort{exp: exp, port: port}
}

// Init checks that the expander answers with the power-on register layout, then
// clears the latch and turns the port into outputs.
func (p *ExpanderPort) Init(ctx context.Context) error {
	p.mx.Lock()
	defer p.mx.Unlock()
	settings, err := p.exp.ReadSettings(ctx, p.port)
	if err != nil {
		return fmt.Errorf("expander not responding: %w", err)
	}
	if settings&gpio.IOCONBank != 0 {
		return fmt.Errorf("expander IOCON %#x selects the banked register layout", settings)
	}
	if err := p.exp.Write(ctx, p.port, 0x00); err != nil {
		return err
	}
	p.latch = 0
	return p.exp.Init(ctx, p.port, 0x00)
}

func (p *ExpanderPort) Set(ctx context.Context, mask uint32) error {
	return p.update(ctx, mask, true)
}

func (p *ExpanderPort) Clear(ctx context.Context, mask uint32) error {
	return p.update(ctx, mask, false)
}

func (p *ExpanderPort) update(ctx context.Context, mask uint32, on bool) error {
	if mask > 0xFF {
		return fmt.Errorf("mask %#x exceeds 8 expander lines", mask)
	}
	p.mx.Lock()
	defer p.mx.Unlock()
	next := p.latch &^ byte(mask)
	if on {
		next = p.latch | byte(mask)
	}
	if err := p.exp.Write(ctx, p.port, next); err != nil {
		return err
	}
	p.latch = next
	return nil
}
