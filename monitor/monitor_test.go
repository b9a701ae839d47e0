package monitor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/proximity"
	"github.com/mklimuk/proximity/classify"
)

var t0 = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func fixedClock() func() time.Time {
	now := t0
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

type collector struct {
	events []Event
}

func (c *collector) Handle(ctx context.Context, ev Event) error {
	c.events = append(c.events, ev)
	return nil
}

func TestMonitor_DecodesAndReconnects(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sessions := []string{
		"distance: READY\r\ndistance: 150\r\n\r\ndistance: ERROR\r\n",
		"garbage\r\ndistance: 700\r\n",
	}
	opens := 0
	open := func(ctx context.Context) (io.ReadCloser, error) {
		opens++
		if opens == 2 {
			return nil, errors.New("no such device")
		}
		if len(sessions) == 0 {
			cancel()
			return nil, ctx.Err()
		}
		s := sessions[0]
		sessions = sessions[1:]
		return io.NopCloser(strings.NewReader(s)), nil
	}
	var waits []time.Duration
	sleep := func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return ctx.Err()
	}
	sink := &collector{}
	m := New(open, WithSinks(sink), WithSleeper(sleep), WithClock(fixedClock()))

	err := m.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []time.Duration{3 * time.Second, 3 * time.Second, 3 * time.Second}, waits)

	require.Len(t, sink.events, 5)
	assert.True(t, sink.events[0].Line.Ready)
	assert.Equal(t, proximity.Distance(150), sink.events[1].Line.Distance)
	assert.Equal(t, classify.Collision, sink.events[1].Band)
	assert.Equal(t, classify.SensorError, sink.events[2].Band)
	assert.Error(t, sink.events[3].Err)
	assert.Equal(t, "garbage", sink.events[3].Raw)
	assert.Equal(t, classify.Clear, sink.events[4].Band)

	snap := m.Stats().Snapshot(t0.Add(time.Minute))
	assert.Equal(t, 5, snap.Messages)
	assert.Equal(t, 1, snap.Errors)
	assert.Equal(t, 3, snap.Reconnects)
}

func TestMonitor_BinaryLine(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sink := &collector{}
	open := func(ctx context.Context) (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader([]byte{0xff, 0xfe, '\n'})), nil
	}
	sleep := func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}
	m := New(open, WithSinks(sink), WithSleeper(sleep))

	assert.ErrorIs(t, m.Run(ctx), context.Canceled)
	require.Len(t, sink.events, 1)
	assert.Equal(t, "<BIN:fffe>", sink.events[0].Raw)
	assert.Error(t, sink.events[0].Err)
}

func TestMonitor_SinkFailureIsNotFatal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	failing := SinkFunc(func(ctx context.Context, ev Event) error {
		return errors.New("disk full")
	})
	sink := &collector{}
	open := func(ctx context.Context) (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader("distance: 1\r\ndistance: 2\r\n")), nil
	}
	sleep := func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}
	m := New(open, WithSinks(failing, sink), WithSleeper(sleep))

	assert.ErrorIs(t, m.Run(ctx), context.Canceled)
	assert.Len(t, sink.events, 2)
}

func TestStats_Snapshot(t *testing.T) {
	s := NewStats(t0)
	s.Add(15, t0)
	s.Add(17, t0)
	s.Failed()

	snap := s.Snapshot(t0.Add(2 * time.Second))
	assert.Equal(t, 2, snap.Messages)
	assert.Equal(t, 32, snap.Bytes)
	assert.InDelta(t, 16.0, snap.AvgSize, 0.001)
	assert.InDelta(t, 1.0, snap.MessageRate, 0.001)
	assert.InDelta(t, 16.0, snap.DataRate, 0.001)
	assert.Equal(t, 1, snap.Errors)

	s.Add(10, t0)
	snap = s.Snapshot(t0.Add(4 * time.Second))
	assert.InDelta(t, 0.5, snap.MessageRate, 0.001)
	assert.InDelta(t, 5.0, snap.DataRate, 0.001)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig.Validate())

	cfg := DefaultConfig
	cfg.Reconnect = 0
	cfg.MQTT.QoS = 3
	cfg.MQTT.Broker = "tcp://localhost:1883"
	cfg.MQTT.TopicPrefix = ""
	err := cfg.Validate()
	assert.ErrorContains(t, err, "reconnect")
	assert.ErrorContains(t, err, "qos")
	assert.ErrorContains(t, err, "topic prefix")
}
