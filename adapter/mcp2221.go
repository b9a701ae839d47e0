package adapter

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/karalabe/hid"

	"github.com/mklimuk/proximity"
	"github.com/mklimuk/proximity/snsctx"
)

const VendorID = 0x04D8
const ProductID = 0x00DD

const reportSize = 64

// HID command codes
const (
	cmdStatus       byte = 0x10
	cmdReadI2CData  byte = 0x40
	cmdSetGPIO      byte = 0x50
	cmdGetGPIO      byte = 0x51
	cmdWriteI2C     byte = 0x90
	cmdReadI2C      byte = 0x91
	cmdGetSRAM      byte = 0x61
	cmdSetSRAM      byte = 0x60
	statusCancelI2C byte = 0x10
)

var ErrCommandUnsupported = errors.New("unsupported command")
var ErrCommandFailed = errors.New("command failed")
var ErrDeviceNotFound = errors.New("MCP2221 device not found")

var _ proximity.I2CBus = &MCP2221{}

// Device is an open HID handle exchanging 64-byte reports.
type Device interface {
	Write(b []byte) (int, error)
	Read(b []byte) (int, error)
	Close() error
}

// Opener opens the bridge for a single exchange.
type Opener func() (Device, error)

// OpenHID opens the index-th attached bridge. A negative index requires exactly one
// bridge to be attached.
func OpenHID(index int) Opener {
	return func() (Device, error) {
		devs := hid.Enumerate(VendorID, ProductID)
		if len(devs) == 0 {
			return nil, ErrDeviceNotFound
		}
		if index < 0 {
			if len(devs) > 1 {
				return nil, fmt.Errorf("ambiguous device identification: %d devices", len(devs))
			}
			index = 0
		}
		if index >= len(devs) {
			return nil, fmt.Errorf("no device with id %d", index)
		}
		dev, err := devs[index].Open()
		if err != nil {
			return nil, fmt.Errorf("error opening device: %w", err)
		}
		return dev, nil
	}
}

type MCP2221Config struct {
	Open         Opener
	ResponseWait time.Duration
	Sleep        proximity.Sleeper
}

type MCP2221Option func(*MCP2221Config)

func WithOpener(open Opener) MCP2221Option {
	return func(c *MCP2221Config) {
		c.Open = open
	}
}

func WithResponseWait(d time.Duration) MCP2221Option {
	return func(c *MCP2221Config) {
		c.ResponseWait = d
	}
}

func WithSleeper(s proximity.Sleeper) MCP2221Option {
	return func(c *MCP2221Config) {
		c.Sleep = s
	}
}

// MCP2221 is the Microchip USB to I2C/GPIO bridge, reached over HID. It serves as an
// I2C bus for the ranging sensor and its GP0..GP3 lines can drive the indicators.
// Every command is one request report followed by one response report.
type MCP2221 struct {
	mx       sync.Mutex
	config   MCP2221Config
	request  []byte
	response []byte
}

func NewMCP2221(opts ...MCP2221Option) *MCP2221 {
	config := MCP2221Config{
		Open:         OpenHID(-1),
		ResponseWait: 50 * time.Millisecond,
		Sleep:        proximity.Sleep,
	}
	for _, opt := range opts {
		opt(&config)
	}
	return &MCP2221{
		config:   config,
		request:  make([]byte, reportSize),
		response: make([]byte, reportSize),
	}
}

// Init checks that the bridge can be opened.
func (d *MCP2221) Init() error {
	dev, err := d.config.Open()
	if err != nil {
		return err
	}
	return dev.Close()
}

// exchange sends one command and fills d.response. The caller holds d.mx.
func (d *MCP2221) exchange(ctx context.Context, cmd byte, fill func(req []byte)) error {
	clear(d.request)
	clear(d.response)
	d.request[0] = cmd
	if fill != nil {
		fill(d.request)
	}
	dev, err := d.config.Open()
	if err != nil {
		return err
	}
	defer func() {
		if err := dev.Close(); err != nil {
			slog.Debug("could not close mcp2221 device", "error", err)
		}
	}()
	verbose := snsctx.IsVerbose(ctx)
	if verbose {
		slog.Debug("sending message to adapter", "dump", hex.Dump(d.request))
	}
	n, err := dev.Write(d.request)
	if err != nil {
		return fmt.Errorf("could not write request: %w", err)
	}
	if n != reportSize {
		return fmt.Errorf("short write: %d", n)
	}
	if err := d.config.Sleep(ctx, d.config.ResponseWait); err != nil {
		return err
	}
	n, err = dev.Read(d.response)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}
	if n != reportSize {
		return fmt.Errorf("short read: %d", n)
	}
	if verbose {
		slog.Debug("read message from adapter", "dump", hex.Dump(d.response))
	}
	if d.response[0] != cmd {
		return fmt.Errorf("%w: response %#x to command %#x", ErrCommandUnsupported, d.response[0], cmd)
	}
	return nil
}

func (d *MCP2221) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	err := d.exchange(ctx, cmdWriteI2C, func(req []byte) {
		binary.LittleEndian.PutUint16(req[1:3], uint16(len(buffer)))
		req[3] = address << 1
		copy(req[4:], buffer)
	})
	if err != nil {
		return fmt.Errorf("write to %#x failed: %w", address, err)
	}
	if d.response[1] == 0x01 {
		slog.Debug("mcp2221 adapter busy", "address", address)
		return proximity.ErrBusBusy
	}
	return nil
}

func (d *MCP2221) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	err := d.exchange(ctx, cmdReadI2C, func(req []byte) {
		binary.LittleEndian.PutUint16(req[1:3], uint16(len(buffer)))
		req[3] = address<<1 | 0x01
	})
	if err != nil {
		return fmt.Errorf("bus read from %#x failed: %w", address, err)
	}
	if d.response[1] == 0x01 {
		return proximity.ErrBusBusy
	}
	if err := d.exchange(ctx, cmdReadI2CData, nil); err != nil {
		return fmt.Errorf("error getting read data from adapter: %w", err)
	}
	if d.response[1] == 0x41 {
		return fmt.Errorf("error reading the I2C slave data from the I2C engine")
	}
	if got := int(d.response[3]); got == 127 || got != len(buffer) {
		return fmt.Errorf("%w: expected %d data bytes, got %d", proximity.ErrShortTransfer, len(buffer), got)
	}
	copy(buffer, d.response[4:])
	return nil
}

type MCP2221Status struct {
	I2CDataBufferCounter   int
	I2CSpeedDivider        int
	I2CTimeout             int
	CurrentAddress         string
	LastWriteRequestedSize uint16
	LastWriteSentSize      uint16
	ReadPending            int
}

func (d *MCP2221) Status(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	if err := d.exchange(ctx, cmdStatus, nil); err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

// bufferToStatus decodes the I2C engine part of a status response.
func bufferToStatus(buffer []byte) *MCP2221Status {
	return &MCP2221Status{
		LastWriteRequestedSize: binary.LittleEndian.Uint16(buffer[9:11]),
		LastWriteSentSize:      binary.LittleEndian.Uint16(buffer[11:13]),
		I2CDataBufferCounter:   int(buffer[13]),
		I2CSpeedDivider:        int(buffer[14]),
		I2CTimeout:             int(buffer[15]),
		CurrentAddress:         hex.EncodeToString(buffer[16:18]),
		ReadPending:            int(buffer[25]),
	}
}

// Release cancels the current I2C transfer so the engine accepts new commands.
func (d *MCP2221) Release(ctx context.Context) error {
	_, err := d.ReleaseBus(ctx)
	return err
}

func (d *MCP2221) ReleaseBus(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	err := d.exchange(ctx, cmdStatus, func(req []byte) {
		req[2] = statusCancelI2C
	})
	if err != nil {
		return nil, fmt.Errorf("cancel request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}
