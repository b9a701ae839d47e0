package monitor

import (
	"bufio"
	"context"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/goburrow/serial"

	"github.com/mklimuk/proximity"
	"github.com/mklimuk/proximity/classify"
	"github.com/mklimuk/proximity/report"
)

// Opener opens the line source for one session.
type Opener func(ctx context.Context) (io.ReadCloser, error)

// SerialOpener opens the serial port described by cfg.
func SerialOpener(cfg report.SerialConfig) Opener {
	return func(ctx context.Context) (io.ReadCloser, error) {
		port, err := report.OpenSerial(cfg)
		if err != nil {
			return nil, err
		}
		return port, nil
	}
}

type Opts struct {
	Sinks      []Sink
	Thresholds classify.Thresholds
	Reconnect  time.Duration
	Sleep      proximity.Sleeper
	Now        func() time.Time
}

type Opt func(*Opts)

func WithSinks(sinks ...Sink) Opt {
	return func(o *Opts) {
		o.Sinks = append(o.Sinks, sinks...)
	}
}

func WithThresholds(t classify.Thresholds) Opt {
	return func(o *Opts) {
		o.Thresholds = t
	}
}

func WithReconnect(d time.Duration) Opt {
	return func(o *Opts) {
		o.Reconnect = d
	}
}

func WithSleeper(s proximity.Sleeper) Opt {
	return func(o *Opts) {
		o.Sleep = s
	}
}

func WithClock(now func() time.Time) Opt {
	return func(o *Opts) {
		o.Now = now
	}
}

// Monitor tails report lines from a device, decodes them and fans them out to sinks.
// A failed or closed source is reopened after the reconnect interval.
type Monitor struct {
	open   Opener
	config Opts
	stats  *Stats
}

func New(open Opener, opts ...Opt) *Monitor {
	config := Opts{
		Thresholds: classify.DefaultThresholds,
		Reconnect:  DefaultConfig.Reconnect,
		Sleep:      proximity.Sleep,
		Now:        time.Now,
	}
	for _, opt := range opts {
		opt(&config)
	}
	return &Monitor{open: open, config: config, stats: NewStats(config.Now())}
}

func (m *Monitor) Stats() *Stats {
	return m.stats
}

// Run blocks until ctx is done.
func (m *Monitor) Run(ctx context.Context) error {
	for {
		err := m.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		slog.Warn("serial connection failed", "error", err, "retry", m.config.Reconnect)
		if err := m.config.Sleep(ctx, m.config.Reconnect); err != nil {
			return err
		}
		m.stats.Reconnected()
	}
}

func (m *Monitor) session(ctx context.Context) error {
	src, err := m.open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()
	stop := context.AfterFunc(ctx, func() { _ = src.Close() })
	defer stop()
	slog.Info("serial connected")

	scanner := bufio.NewScanner(&patientReader{ctx: ctx, r: src})
	for scanner.Scan() {
		m.handle(ctx, scanner.Bytes())
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return io.EOF
}

func (m *Monitor) handle(ctx context.Context, raw []byte) {
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return
	}
	if !utf8.ValidString(text) {
		text = "<BIN:" + hex.EncodeToString(raw) + ">"
	}
	ev := Event{Time: m.config.Now(), Raw: text}
	m.stats.Add(len(raw)+1, ev.Time)
	ev.Line, ev.Err = report.Decode(text)
	if ev.Err != nil {
		m.stats.Failed()
		slog.Debug("unrecognized line", "line", text, "error", ev.Err)
	} else {
		ev.Band = m.config.Thresholds.Classify(ev.Line.Distance)
	}
	for _, sink := range m.config.Sinks {
		if err := sink.Handle(ctx, ev); err != nil {
			slog.Warn("sink failed", "error", err)
		}
	}
}

// patientReader retries reads that hit the port's read timeout until ctx is done.
type patientReader struct {
	ctx context.Context
	r   io.Reader
}

func (p *patientReader) Read(b []byte) (int, error) {
	for {
		n, err := p.r.Read(b)
		if n > 0 || !errors.Is(err, serial.ErrTimeout) {
			return n, err
		}
		if err := p.ctx.Err(); err != nil {
			return 0, err
		}
	}
}
