package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mklimuk/proximity"
	"github.com/mklimuk/proximity/classify"
	"github.com/mklimuk/proximity/indicator"
)

// Sensor triggers and reads single-shot range measurements.
type Sensor interface {
	StartRanging(ctx context.Context) error
	ReadDistance(ctx context.Context) (proximity.Distance, error)
}

type Indicator interface {
	Init(ctx context.Context) error
	Indicate(ctx context.Context, band classify.Band) (indicator.Pattern, error)
}

type Reporter interface {
	Ready(ctx context.Context) error
	Report(ctx context.Context, d proximity.Distance) error
}

// Timing holds the fixed waits of a cycle.
type Timing struct {
	// Boot is waited once after setup, before the ready line.
	Boot time.Duration `yaml:"boot"`
	// Measure is the wait between trigger and read.
	Measure time.Duration `yaml:"measure"`
	// Pause is the wait at the end of every cycle.
	Pause time.Duration `yaml:"pause"`
}

var DefaultTiming = Timing{
	Boot:    200 * time.Millisecond,
	Measure: 50 * time.Millisecond,
	Pause:   600 * time.Millisecond,
}

func (t Timing) Validate() error {
	if t.Boot < 0 || t.Measure < 0 || t.Pause < 0 {
		return fmt.Errorf("timing values must not be negative: %+v", t)
	}
	return nil
}

// CycleResult describes what a single cycle measured and did. Device failures are
// recorded here instead of being returned: none of them stops the loop.
type CycleResult struct {
	Distance    proximity.Distance
	Band        classify.Band
	Pattern     indicator.Pattern
	TriggerErr  error
	SensorErr   error
	ReportErr   error
	IndicateErr error
}

// Err joins every device failure of the cycle.
func (r CycleResult) Err() error {
	return errors.Join(r.TriggerErr, r.SensorErr, r.ReportErr, r.IndicateErr)
}

type Opts struct {
	Thresholds classify.Thresholds
	Timing     Timing
	Sleep      proximity.Sleeper
	BusInit    func(ctx context.Context) error
	Observer   func(CycleResult)
}

type Opt func(*Opts)

func WithThresholds(t classify.Thresholds) Opt {
	return func(o *Opts) {
		o.Thresholds = t
	}
}

func WithTiming(t Timing) Opt {
	return func(o *Opts) {
		o.Timing = t
	}
}

func WithSleeper(s proximity.Sleeper) Opt {
	return func(o *Opts) {
		o.Sleep = s
	}
}

// WithBusInit registers a bus setup step run first by Start.
func WithBusInit(fn func(ctx context.Context) error) Opt {
	return func(o *Opts) {
		o.BusInit = fn
	}
}

// WithObserver registers a callback invoked after every cycle.
func WithObserver(fn func(CycleResult)) Opt {
	return func(o *Opts) {
		o.Observer = fn
	}
}

// Loop runs the measure, report, indicate cycle.
//
// Usage:
//
//	loop := control.New(sensor, ind, ch)
//	if err := loop.Start(ctx); err != nil {
//		return err
//	}
//	return loop.Run(ctx)
type Loop struct {
	sensor    Sensor
	indicator Indicator
	reporter  Reporter
	config    Opts
}

func New(sensor Sensor, ind Indicator, rep Reporter, opts ...Opt) *Loop {
	config := Opts{
		Thresholds: classify.DefaultThresholds,
		Timing:     DefaultTiming,
		Sleep:      proximity.Sleep,
	}
	for _, opt := range opts {
		opt(&config)
	}
	return &Loop{sensor: sensor, indicator: ind, reporter: rep, config: config}
}

// Start performs one-time setup and announces readiness. Any failure here is fatal to
// the caller.
func (l *Loop) Start(ctx context.Context) error {
	if l.config.BusInit != nil {
		if err := l.config.BusInit(ctx); err != nil {
			return fmt.Errorf("could not initialize bus: %w", err)
		}
	}
	if err := l.indicator.Init(ctx); err != nil {
		return err
	}
	if err := l.config.Sleep(ctx, l.config.Timing.Boot); err != nil {
		return err
	}
	if err := l.reporter.Ready(ctx); err != nil {
		return fmt.Errorf("could not announce readiness: %w", err)
	}
	slog.Debug("control loop ready", "thresholds", l.config.Thresholds, "timing", l.config.Timing)
	return nil
}

// Cycle runs one iteration without the trailing pause. The returned error is non-nil
// only when ctx is done.
func (l *Loop) Cycle(ctx context.Context) (CycleResult, error) {
	var res CycleResult
	if res.TriggerErr = l.sensor.StartRanging(ctx); res.TriggerErr != nil {
		slog.Debug("could not trigger measurement", "error", res.TriggerErr)
	}
	if err := l.config.Sleep(ctx, l.config.Timing.Measure); err != nil {
		return res, err
	}
	res.Distance, res.SensorErr = l.sensor.ReadDistance(ctx)
	if res.SensorErr != nil {
		res.Distance = proximity.Sentinel
		slog.Debug("could not read distance", "error", res.SensorErr)
	}
	if res.ReportErr = l.reporter.Report(ctx, res.Distance); res.ReportErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}
		slog.Debug("could not report distance", "error", res.ReportErr)
	}
	res.Band = l.config.Thresholds.Classify(res.Distance)
	if res.Pattern, res.IndicateErr = l.indicator.Indicate(ctx, res.Band); res.IndicateErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}
		slog.Debug("could not indicate band", "band", res.Band, "error", res.IndicateErr)
	}
	if l.config.Observer != nil {
		l.config.Observer(res)
	}
	return res, nil
}

// Run repeats Cycle followed by the pause until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if _, err := l.Cycle(ctx); err != nil {
			return err
		}
		if err := l.config.Sleep(ctx, l.config.Timing.Pause); err != nil {
			return err
		}
	}
}
