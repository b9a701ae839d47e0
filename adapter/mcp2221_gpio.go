package adapter

import (
	"context"
	"fmt"
)

type GPIOMode byte

const (
	GPIOModeOut         GPIOMode = 0b00000000
	GPIOModeIn          GPIOMode = 0b00001000
	GPIOModeNoOperation GPIOMode = 0xEF
)

func (m GPIOMode) String() string {
	switch m {
	case GPIOModeIn:
		return "INPUT"
	case GPIOModeOut:
		return "OUTPUT"
	default:
		return "NOOP"
	}
}

// GPIODesignation selects the function of a GP line. Values overlap between lines.
type GPIODesignation byte

const (
	GPIOOperation           GPIODesignation = 0b000
	GPIO0LedUartRx          GPIODesignation = 0b001
	GPIO0SSPND              GPIODesignation = 0b010
	GPIO1ClockOutput        GPIODesignation = 0b001
	GPIO1ADC1               GPIODesignation = 0b010
	GPIO1LedUartTx          GPIODesignation = 0b011
	GPIO1InterruptDetection GPIODesignation = 0b100
	GPIO2ClockOutput        GPIODesignation = 0b001
	GPIO2ADC2               GPIODesignation = 0b010
	GPIO2DAC1               GPIODesignation = 0b011
	GPIO3LEDI2C             GPIODesignation = 0b001
	GPIO3ADC3               GPIODesignation = 0b010
	GPIO3DAC2               GPIODesignation = 0b011
)

const gpioModeMask = 0b00001000
const gpioOperationMask = 0b00000111

const gpLines = 4

type MCP2221GPIOValues struct {
	GPIO0Mode  GPIOMode `yaml:"GP0_mode"`
	GPIO0Value byte     `yaml:"GPIO0"`
	GPIO1Mode  GPIOMode `yaml:"GP1_mode"`
	GPIO1Value byte     `yaml:"GPIO1"`
	GPIO2Mode  GPIOMode `yaml:"GP2_mode"`
	GPIO2Value byte     `yaml:"GPIO2"`
	GPIO3Mode  GPIOMode `yaml:"GP3_mode"`
	GPIO3Value byte     `yaml:"GPIO3"`
}

type MCP2221GPIOParameters struct {
	GPIO0Mode        GPIOMode        `yaml:"GP0_mode"`
	GPIO0Designation GPIODesignation `yaml:"GP0_designation"`
	GPIO1Mode        GPIOMode        `yaml:"GP1_mode"`
	GPIO1Designation GPIODesignation `yaml:"GP1_designation"`
	GPIO2Mode        GPIOMode        `yaml:"GP2_mode"`
	GPIO2Designation GPIODesignation `yaml:"GP2_designation"`
	GPIO3Mode        GPIOMode        `yaml:"GP3_mode"`
	GPIO3Designation GPIODesignation `yaml:"GP3_designation"`
}

// SetGPIOParameters writes the GP settings to SRAM (not flash).
func (d *MCP2221) SetGPIOParameters(ctx context.Context, params MCP2221GPIOParameters) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	err := d.exchange(ctx, cmdSetSRAM, func(req []byte) {
		req[1] = 0x01
		// byte 7 enables the GP settings that follow
		req[7] = 0x80
		req[8] = byte(params.GPIO0Designation) | byte(params.GPIO0Mode)
		req[9] = byte(params.GPIO1Designation) | byte(params.GPIO1Mode)
		req[10] = byte(params.GPIO2Designation) | byte(params.GPIO2Mode)
		req[11] = byte(params.GPIO3Designation) | byte(params.GPIO3Mode)
	})
	if err != nil {
		return fmt.Errorf("set GP parameters command failed: %w", err)
	}
	if d.response[1] != 0x00 {
		return ErrCommandFailed
	}
	return nil
}

func (d *MCP2221) GetGPIOParameters(ctx context.Context) (MCP2221GPIOParameters, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	if err := d.exchange(ctx, cmdGetSRAM, nil); err != nil {
		return MCP2221GPIOParameters{}, fmt.Errorf("get GP parameters command failed: %w", err)
	}
	if d.response[1] != 0x00 {
		return MCP2221GPIOParameters{}, ErrCommandUnsupported
	}
	gp := d.response[22:26]
	return MCP2221GPIOParameters{
		GPIO0Mode:        GPIOMode(gp[0] & gpioModeMask),
		GPIO0Designation: GPIODesignation(gp[0] & gpioOperationMask),
		GPIO1Mode:        GPIOMode(gp[1] & gpioModeMask),
		GPIO1Designation: GPIODesignation(gp[1] & gpioOperationMask),
		GPIO2Mode:        GPIOMode(gp[2] & gpioModeMask),
		GPIO2Designation: GPIODesignation(gp[2] & gpioOperationMask),
		GPIO3Mode:        GPIOMode(gp[3] & gpioModeMask),
		GPIO3Designation: GPIODesignation(gp[3] & gpioOperationMask),
	}, nil
}

// SetGPIOOutputs drives the GP lines selected by mask (bit n = GPn) to the matching
// bits of levels. Lines outside mask are left untouched.
func (d *MCP2221) SetGPIOOutputs(ctx context.Context, mask, levels byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	err := d.exchange(ctx, cmdSetGPIO, func(req []byte) {
		fillGPIOOutputRequest(req, mask, levels)
	})
	if err != nil {
		return fmt.Errorf("set GPIO output values command failed: %w", err)
	}
	if d.response[1] != 0x00 {
		return ErrCommandFailed
	}
	return nil
}

func fillGPIOOutputRequest(request []byte, mask, levels byte) {
	request[0] = cmdSetGPIO
	for gp := 0; gp < gpLines; gp++ {
		if mask&(1<<gp) == 0 {
			continue
		}
		// alter output flag, output value, alter direction flag, direction (0 = output)
		offset := 2 + gp*4
		request[offset] = 0x01
		request[offset+1] = (levels >> gp) & 0x01
		request[offset+2] = 0x01
		request[offset+3] = 0x00
	}
}

func (d *MCP2221) ReadGPIO(ctx context.Context) (MCP2221GPIOValues, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	var res MCP2221GPIOValues
	if err := d.exchange(ctx, cmdGetGPIO, nil); err != nil {
		return res, fmt.Errorf("read GPIO values command failed: %w", err)
	}
	if d.response[1] != 0x00 {
		return res, ErrCommandFailed
	}
	modes := [gpLines]GPIOMode{}
	for gp := 0; gp < gpLines; gp++ {
		modes[gp] = GPIOModeNoOperation
		if dir := d.response[3+gp*2]; dir != byte(GPIOModeNoOperation) {
			modes[gp] = GPIOMode(dir << 3)
		}
	}
	res.GPIO0Mode, res.GPIO0Value = modes[0], d.response[2]
	res.GPIO1Mode, res.GPIO1Value = modes[1], d.response[4]
	res.GPIO2Mode, res.GPIO2Value = modes[2], d.response[6]
	res.GPIO3Mode, res.GPIO3Value = modes[3], d.response[8]
	return res, nil
}
