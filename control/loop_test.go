package control

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/proximity"
	"github.com/mklimuk/proximity/classify"
	"github.com/mklimuk/proximity/i2c"
	"github.com/mklimuk/proximity/indicator"
	"github.com/mklimuk/proximity/ranging"
	"github.com/mklimuk/proximity/report"
)

// trace collects the observable actions of every collaborator in order.
type trace struct {
	events []string
}

func (t *trace) add(format string, args ...any) {
	t.events = append(t.events, fmt.Sprintf(format, args...))
}

func (t *trace) Sleep(ctx context.Context, d time.Duration) error {
	t.add("sleep %s", d)
	return ctx.Err()
}

func (t *trace) Write(p []byte) (int, error) {
	t.add("tx %q", string(p))
	return len(p), nil
}

type tracePort struct {
	tr *trace
}

func (p tracePort) Init(ctx context.Context) error {
	p.tr.add("init")
	return nil
}

func (p tracePort) Set(ctx context.Context, mask uint32) error {
	p.tr.add("set %#x", mask)
	return nil
}

func (p tracePort) Clear(ctx context.Context, mask uint32) error {
	p.tr.add("clear %#x", mask)
	return nil
}

type traceSensor struct {
	tr       *trace
	distance proximity.Distance
	err      error
}

func (s *traceSensor) StartRanging(ctx context.Context) error {
	s.tr.add("trigger")
	return nil
}

func (s *traceSensor) ReadDistance(ctx context.Context) (proximity.Distance, error) {
	s.tr.add("read")
	return s.distance, s.err
}

// nackEngine acknowledges nothing and records whether a read phase was attempted.
type nackEngine struct {
	recvs int
}

func (e *nackEngine) Start(ctx context.Context) error { return nil }
func (e *nackEngine) Stop(ctx context.Context) error  { return nil }

func (e *nackEngine) Send(ctx context.Context, address byte, data []byte, mode i2c.Mode) (int, error) {
	return 0, nil
}

func (e *nackEngine) Recv(ctx context.Context, address byte, buffer []byte, mode i2c.Mode) (int, error) {
	e.recvs++
	return 0, nil
}

func newTracedLoop(tr *trace, sensor Sensor, opts ...Opt) *Loop {
	ind := indicator.New(tracePort{tr: tr}, indicator.WithSleeper(tr.Sleep))
	ch := report.NewChannel(tr, report.WithSleeper(tr.Sleep))
	return New(sensor, ind, ch, append([]Opt{WithSleeper(tr.Sleep)}, opts...)...)
}

func TestLoop_Scenarios(t *testing.T) {
	tests := []struct {
		name     string
		distance proximity.Distance
		err      error
		band     classify.Band
		expected []string
	}{
		{
			name:     "collision",
			distance: 150,
			band:     classify.Collision,
			expected: []string{
				"trigger", "sleep 50ms", "read",
				`tx "distance: 150\r\n"`, "sleep 100ms",
				"set 0x1", "sleep 250ms", "clear 0x1", "sleep 250ms",
			},
		},
		{
			name:     "sensor missing",
			distance: proximity.Sentinel,
			err:      proximity.ErrSensorUnavailable,
			band:     classify.SensorError,
			expected: []string{
				"trigger", "sleep 50ms", "read",
				`tx "distance: ERROR\r\n"`, "sleep 100ms",
				"set 0x8", "sleep 100ms", "clear 0x8", "sleep 100ms",
			},
		},
		{
			name:     "clear",
			distance: 700,
			band:     classify.Clear,
			expected: []string{
				"trigger", "sleep 50ms", "read",
				`tx "distance: 700\r\n"`, "sleep 100ms",
				"set 0x2", "sleep 250ms", "clear 0x2", "sleep 250ms",
			},
		},
		{
			name:     "caution",
			distance: 350,
			band:     classify.Caution,
			expected: []string{
				"trigger", "sleep 50ms", "read",
				`tx "distance: 350\r\n"`, "sleep 100ms",
				"set 0x4", "sleep 250ms", "clear 0x4", "sleep 250ms",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &trace{}
			loop := newTracedLoop(tr, &traceSensor{tr: tr, distance: tt.distance, err: tt.err})

			res, err := loop.Cycle(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.distance, res.Distance)
			assert.Equal(t, tt.band, res.Band)
			assert.ErrorIs(t, res.SensorErr, tt.err)
			assert.Equal(t, tt.expected, tr.events)
		})
	}
}

func TestLoop_ErrorForcesSentinel(t *testing.T) {
	tr := &trace{}
	// a failed read never leaks a stale value
	loop := newTracedLoop(tr, &traceSensor{tr: tr, distance: 150, err: errors.New("nack")})

	res, err := loop.Cycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, proximity.Sentinel, res.Distance)
	assert.Equal(t, classify.SensorError, res.Band)
	assert.Contains(t, tr.events, `tx "distance: ERROR\r\n"`)
}

func TestLoop_WriteNackShortCircuits(t *testing.T) {
	tr := &trace{}
	engine := &nackEngine{}
	sensor := ranging.NewVL53L0X(i2c.NewBus(engine))
	loop := newTracedLoop(tr, sensor)

	res, err := loop.Cycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, engine.recvs)
	assert.Equal(t, proximity.Sentinel, res.Distance)
	assert.ErrorIs(t, res.TriggerErr, proximity.ErrShortTransfer)
	assert.ErrorIs(t, res.SensorErr, proximity.ErrSensorUnavailable)
	assert.ErrorIs(t, res.SensorErr, proximity.ErrShortTransfer)
	assert.Equal(t, classify.SensorError, res.Band)
	assert.Equal(t, uint32(indicator.MaskRed2), res.Pattern.Mask)
}

func TestLoop_Start(t *testing.T) {
	tr := &trace{}
	busInit := func(ctx context.Context) error {
		tr.add("bus")
		return nil
	}
	loop := newTracedLoop(tr, &traceSensor{tr: tr}, WithBusInit(busInit))

	require.NoError(t, loop.Start(context.Background()))
	assert.Equal(t, []string{"bus", "init", "sleep 200ms", `tx "distance: READY\r\n"`}, tr.events)
}

func TestLoop_StartBusFailure(t *testing.T) {
	tr := &trace{}
	loop := newTracedLoop(tr, &traceSensor{tr: tr}, WithBusInit(func(ctx context.Context) error {
		return proximity.ErrBusBusy
	}))

	err := loop.Start(context.Background())
	assert.ErrorIs(t, err, proximity.ErrBusBusy)
	assert.Empty(t, tr.events)
}

func TestLoop_Run(t *testing.T) {
	tr := &trace{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	readings := []proximity.Distance{700, 150, proximity.Sentinel}
	sensor := ranging.NewMockRangeSensor(func(ctx context.Context) (proximity.Distance, error) {
		d := readings[0]
		readings = readings[1:]
		return d, nil
	})
	var results []CycleResult
	observe := func(r CycleResult) {
		results = append(results, r)
		if len(results) == 3 {
			cancel()
		}
	}
	loop := newTracedLoop(tr, sensor, WithObserver(observe))

	err := loop.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, results, 3)
	assert.Equal(t, []classify.Band{classify.Clear, classify.Collision, classify.SensorError}, []classify.Band{
		results[0].Band, results[1].Band, results[2].Band,
	})
	assert.Equal(t, 3, sensor.Triggers())
	assert.Equal(t, "sleep 600ms", tr.events[len(tr.events)-1])
}

func TestLoop_IndicatorFailureIsNotFatal(t *testing.T) {
	tr := &trace{}
	port := indicator.NewRecorder()
	port.SetErr = errors.New("expander gone")
	ind := indicator.New(port, indicator.WithSleeper(tr.Sleep))
	loop := New(&traceSensor{tr: tr, distance: 150}, ind, report.NewChannel(tr, report.WithSleeper(tr.Sleep)), WithSleeper(tr.Sleep))

	res, err := loop.Cycle(context.Background())
	require.NoError(t, err)
	assert.ErrorContains(t, res.IndicateErr, "expander gone")
	assert.Error(t, res.Err())
}
