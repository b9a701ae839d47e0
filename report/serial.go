package report

import (
	"io"
	"time"
)

// SerialConfig describes the UART the report lines go out on (8N1).
type SerialConfig struct {
	Device   string        `yaml:"device"`
	BaudRate int           `yaml:"baud_rate"`
	Timeout  time.Duration `yaml:"timeout"`
}

var DefaultSerial = SerialConfig{
	BaudRate: 9600,
	Timeout:  100 * time.Millisecond,
}

// bitsPerFrame is start + 8 data + stop.
const bitsPerFrame = 10

// WireTime is how long n bytes take on an 8N1 line at baud.
func WireTime(n, baud int) time.Duration {
	if baud <= 0 || n <= 0 {
		return 0
	}
	return time.Duration(n*bitsPerFrame) * time.Second / time.Duration(baud)
}

// WirePort wraps a UART whose Write returns once the bytes are queued in the driver.
// Flush blocks until the bytes written since the previous Flush have had time to
// leave the wire.
type WirePort struct {
	w       io.Writer
	baud    int
	pending int
	sleep   func(time.Duration)
}

type WirePortOpt func(*WirePort)

// WithWireSleep replaces time.Sleep for the drain wait.
func WithWireSleep(sleep func(time.Duration)) WirePortOpt {
	return func(p *WirePort) {
		p.sleep = sleep
	}
}

func NewWirePort(w io.Writer, baud int, opts ...WirePortOpt) *WirePort {
	p := &WirePort{w: w, baud: baud, sleep: time.Sleep}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *WirePort) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.pending += n
	return n, err
}

func (p *WirePort) Flush() error {
	d := WireTime(p.pending, p.baud)
	p.pending = 0
	if d > 0 {
		p.sleep(d)
	}
	return nil
}
