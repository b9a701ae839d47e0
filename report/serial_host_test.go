//go:build !tinygo

package report

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/goburrow/serial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loopPort is a serial.Port backed by a buffer.
type loopPort struct {
	bytes.Buffer
	closed bool
}

func (p *loopPort) Open(*serial.Config) error { return nil }

func (p *loopPort) Close() error {
	p.closed = true
	return nil
}

func TestSerialPort_ReportDrainsLine(t *testing.T) {
	raw := &loopPort{}
	var waits []time.Duration
	port := newSerialPort(raw, 9600, WithWireSleep(func(d time.Duration) {
		waits = append(waits, d)
	}))

	ch := NewChannel(port, WithSettle(0))
	require.NoError(t, ch.Report(context.Background(), 150))
	assert.Equal(t, "distance: 150\r\n", raw.String())
	assert.Equal(t, []time.Duration{15625 * time.Microsecond}, waits)

	require.NoError(t, port.Close())
	assert.True(t, raw.closed)
}
