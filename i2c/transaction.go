package i2c

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mklimuk/proximity"
)

var _ proximity.Transactor = &Bus{}
var _ proximity.I2CBus = &Bus{}

// Mode tells the engine how to terminate a transfer phase.
type Mode int

const (
	// Stop releases the bus after the phase.
	Stop Mode = iota
	// RepeatedStart keeps the bus for the next phase.
	RepeatedStart
)

func (m Mode) String() string {
	if m == RepeatedStart {
		return "repeated-start"
	}
	return "stop"
}

// Engine is the low-level two-wire controller a Bus runs on. Send and Recv report how
// many bytes the peripheral acknowledged or delivered.
type Engine interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Send(ctx context.Context, address byte, data []byte, mode Mode) (int, error)
	Recv(ctx context.Context, address byte, buffer []byte, mode Mode) (int, error)
}

// BusError describes a transaction phase that transferred fewer bytes than requested.
type BusError struct {
	Address byte
	Op      string
	Want    int
	Got     int
	Err     error
}

func (e *BusError) Error() string {
	msg := fmt.Sprintf("i2c %s at %#x: transferred %d of %d bytes", e.Op, e.Address, e.Got, e.Want)
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *BusError) Unwrap() error {
	return e.Err
}

// Is makes every BusError match proximity.ErrShortTransfer.
func (e *BusError) Is(target error) bool {
	return target == proximity.ErrShortTransfer
}

// Bus is the transaction layer. Each call acquires the engine, runs its phases and
// releases the engine on every exit path. It never retries.
type Bus struct {
	engine Engine
}

func NewBus(engine Engine) *Bus {
	return &Bus{engine: engine}
}

// Write sends data to address in a single transaction and returns the acknowledged count.
func (b *Bus) Write(ctx context.Context, address byte, data []byte) (int, error) {
	if err := b.acquire(ctx); err != nil {
		return 0, err
	}
	defer b.release(ctx)
	n, err := b.engine.Send(ctx, address, data, Stop)
	if err != nil || n != len(data) {
		return n, &BusError{Address: address, Op: "write", Want: len(data), Got: n, Err: err}
	}
	return n, nil
}

// WriteThenRead writes w, keeps the bus with a repeated start and reads n bytes.
// The read phase is skipped when the write phase comes up short.
func (b *Bus) WriteThenRead(ctx context.Context, address byte, w []byte, n int) ([]byte, error) {
	if err := b.acquire(ctx); err != nil {
		return nil, err
	}
	defer b.release(ctx)
	sent, err := b.engine.Send(ctx, address, w, RepeatedStart)
	if err != nil || sent != len(w) {
		return nil, &BusError{Address: address, Op: "write", Want: len(w), Got: sent, Err: err}
	}
	buf := make([]byte, n)
	got, err := b.engine.Recv(ctx, address, buf, Stop)
	if err != nil || got != n {
		op := "read"
		var combined *combinedError
		if errors.As(err, &combined) {
			op = "write-read"
		}
		return nil, &BusError{Address: address, Op: op, Want: n, Got: got, Err: err}
	}
	return buf, nil
}

// WriteToAddr adapts Write to the proximity.I2CBus interface.
func (b *Bus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	_, err := b.Write(ctx, address, buffer)
	return err
}

// ReadFromAddr reads len(buffer) bytes in a single transaction.
func (b *Bus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	if err := b.acquire(ctx); err != nil {
		return err
	}
	defer b.release(ctx)
	got, err := b.engine.Recv(ctx, address, buffer, Stop)
	if err != nil || got != len(buffer) {
		return &BusError{Address: address, Op: "read", Want: len(buffer), Got: got, Err: err}
	}
	return nil
}

func (b *Bus) Release(ctx context.Context) error {
	return b.engine.Stop(ctx)
}

func (b *Bus) acquire(ctx context.Context) error {
	if err := b.engine.Start(ctx); err != nil {
		return fmt.Errorf("could not acquire i2c bus: %w", err)
	}
	return nil
}

func (b *Bus) release(ctx context.Context) {
	if err := b.engine.Stop(ctx); err != nil {
		slog.Debug("i2c bus release failed", "error", err)
	}
}
