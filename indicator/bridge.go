//go:build !tinygo

package indicator

import (
	"context"
	"fmt"

	"github.com/mklimuk/proximity/adapter"
)

const bridgeLines = 0x0F

// BridgePort drives indicators from the GP0..GP3 lines of an MCP2221 USB bridge.
type BridgePort struct {
	bridge *adapter.MCP2221
}

func NewBridgePort(bridge *adapter.MCP2221) *BridgePort {
	return &BridgePort{bridge: bridge}
}

// bridgeOutputs puts all four GP lines into GPIO output mode.
var bridgeOutputs = adapter.MCP2221GPIOParameters{
	GPIO0Mode:        adapter.GPIOModeOut,
	GPIO0Designation: adapter.GPIOOperation,
	GPIO1Mode:        adapter.GPIOModeOut,
	GPIO1Designation: adapter.GPIOOperation,
	GPIO2Mode:        adapter.GPIOModeOut,
	GPIO2Designation: adapter.GPIOOperation,
	GPIO3Mode:        adapter.GPIOModeOut,
	GPIO3Designation: adapter.GPIOOperation,
}

// Init configures GP0..GP3 as GPIO outputs, reads the settings back and drives all
// lines low.
func (p *BridgePort) Init(ctx context.Context) error {
	if err := p.bridge.SetGPIOParameters(ctx, bridgeOutputs); err != nil {
		return fmt.Errorf("could not configure bridge GP lines: %w", err)
	}
	got, err := p.bridge.GetGPIOParameters(ctx)
	if err != nil {
		return fmt.Errorf("could not verify bridge GP lines: %w", err)
	}
	if got != bridgeOutputs {
		return fmt.Errorf("bridge GP lines not switched to GPIO outputs: %+v", got)
	}
	return p.bridge.SetGPIOOutputs(ctx, bridgeLines, 0x00)
}

func (p *BridgePort) Set(ctx context.Context, mask uint32) error {
	if mask&^bridgeLines != 0 {
		return fmt.Errorf("mask %#x exceeds 4 bridge lines", mask)
	}
	return p.bridge.SetGPIOOutputs(ctx, byte(mask), byte(mask))
}

func (p *BridgePort) Clear(ctx context.Context, mask uint32) error {
	if mask&^bridgeLines != 0 {
		return fmt.Errorf("mask %#x exceeds 4 bridge lines", mask)
	}
	return p.bridge.SetGPIOOutputs(ctx, byte(mask), 0x00)
}
