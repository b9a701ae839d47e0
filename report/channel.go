package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/mklimuk/proximity"
)

const DefaultSettle = 100 * time.Millisecond

// flusher is implemented by buffered writers and by WirePort, whose Flush blocks until
// the line has left the UART.
type flusher interface {
	Flush() error
}

type Opts struct {
	Settle time.Duration
	Sleep  proximity.Sleeper
}

type Opt func(*Opts)

func WithSettle(d time.Duration) Opt {
	return func(o *Opts) {
		o.Settle = d
	}
}

func WithSleeper(s proximity.Sleeper) Opt {
	return func(o *Opts) {
		o.Sleep = s
	}
}

// Channel writes report lines to a serial link. Each call returns only after the
// writer's Flush, if it has one, has returned.
type Channel struct {
	w      io.Writer
	config Opts
}

func NewChannel(w io.Writer, opts ...Opt) *Channel {
	config := Opts{
		Settle: DefaultSettle,
		Sleep:  proximity.Sleep,
	}
	for _, opt := range opts {
		opt(&config)
	}
	return &Channel{w: w, config: config}
}

// Ready emits the startup line.
func (c *Channel) Ready(ctx context.Context) error {
	return c.transmit(ctx, FormatReady())
}

// Report emits one reading and then waits out the settle delay, which bounds the
// sustained line rate.
func (c *Channel) Report(ctx context.Context, d proximity.Distance) error {
	if err := c.transmit(ctx, Format(d)); err != nil {
		return err
	}
	return c.config.Sleep(ctx, c.config.Settle)
}

func (c *Channel) transmit(ctx context.Context, line string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := io.WriteString(c.w, line); err != nil {
		return fmt.Errorf("could not transmit report line: %w", err)
	}
	if f, ok := c.w.(flusher); ok {
		if err := f.Flush(); err != nil {
			return fmt.Errorf("could not flush report line: %w", err)
		}
	}
	return nil
}
