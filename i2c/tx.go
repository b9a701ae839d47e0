package i2c

import (
	"context"
	"fmt"
)

// txFunc is the combined write/read primitive exposed by periph and TinyGo buses.
type txFunc func(addr uint16, w, r []byte) error

// combinedError is a failed transaction that carried both the held write and the read,
// so the phase that was not acknowledged is unknown.
type combinedError struct {
	err error
}

func (e *combinedError) Error() string {
	return e.err.Error()
}

func (e *combinedError) Unwrap() error {
	return e.err
}

// txEngine maps Send/Recv phases onto a single Tx call. A write that ends in a repeated
// start is held until the following Recv so both phases go out as one transaction.
type txEngine struct {
	tx      txFunc
	pending []byte
	holding bool
}

func (e *txEngine) Start(ctx context.Context) error {
	e.pending = nil
	e.holding = false
	return ctx.Err()
}

func (e *txEngine) Stop(ctx context.Context) error {
	if e.holding {
		e.pending = nil
		e.holding = false
		return fmt.Errorf("bus released with a pending write")
	}
	return nil
}

func (e *txEngine) Send(ctx context.Context, address byte, data []byte, mode Mode) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if mode == RepeatedStart {
		e.pending = append(e.pending[:0], data...)
		e.holding = true
		return len(data), nil
	}
	if err := e.tx(uint16(address), data, nil); err != nil {
		return 0, fmt.Errorf("could not write to %#x: %w", address, err)
	}
	return len(data), nil
}

func (e *txEngine) Recv(ctx context.Context, address byte, buffer []byte, mode Mode) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	w := e.pending
	e.pending = nil
	e.holding = false
	if err := e.tx(uint16(address), w, buffer); err != nil {
		if len(w) > 0 {
			return 0, &combinedError{err: fmt.Errorf("could not write-read %#x: %w", address, err)}
		}
		return 0, fmt.Errorf("could not read from %#x: %w", address, err)
	}
	return len(buffer), nil
}
