package indicator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/proximity/classify"
)

// recordingSleeper captures requested waits and the port state during each wait.
type recordingSleeper struct {
	port   *Recorder
	waits  []time.Duration
	states []uint32
	err    error
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	s.states = append(s.states, s.port.State())
	return s.err
}

func TestIndicator_Scenarios(t *testing.T) {
	tests := []struct {
		band     classify.Band
		mask     uint32
		duration time.Duration
	}{
		{classify.SensorError, MaskRed2, 100 * time.Millisecond},
		{classify.Collision, MaskRed1, 250 * time.Millisecond},
		{classify.Caution, MaskBlue, 250 * time.Millisecond},
		{classify.Clear, MaskGreen, 250 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.band.String(), func(t *testing.T) {
			port := NewRecorder()
			sleeper := &recordingSleeper{port: port}
			ind := New(port, WithSleeper(sleeper.Sleep), WithOffPhase(false))

			pat, err := ind.Indicate(context.Background(), tt.band)
			require.NoError(t, err)
			assert.Equal(t, tt.mask, pat.Mask)
			assert.Equal(t, tt.duration, pat.Duration)
			assert.Equal(t, []time.Duration{tt.duration}, sleeper.waits)
			// asserted while blocking, cleared afterwards
			assert.Equal(t, []uint32{tt.mask}, sleeper.states)
			assert.Equal(t, uint32(0), port.State())
			assert.Equal(t, []Edge{{Set: true, Mask: tt.mask}, {Set: false, Mask: tt.mask}}, port.Edges())
		})
	}
}

func TestIndicator_OffPhase(t *testing.T) {
	port := NewRecorder()
	sleeper := &recordingSleeper{port: port}
	ind := New(port, WithSleeper(sleeper.Sleep))

	_, err := ind.Indicate(context.Background(), classify.SensorError)
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 100 * time.Millisecond}, sleeper.waits)
	assert.Equal(t, []uint32{MaskRed2, 0}, sleeper.states)
}

func TestIndicator_InterruptedWaitStillClears(t *testing.T) {
	port := NewRecorder()
	sleeper := &recordingSleeper{port: port, err: context.Canceled}
	ind := New(port, WithSleeper(sleeper.Sleep))

	_, err := ind.Indicate(context.Background(), classify.Collision)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, uint32(0), port.State())
	assert.Len(t, sleeper.waits, 1)
}

func TestIndicator_SetFailure(t *testing.T) {
	port := NewRecorder()
	port.SetErr = errors.New("pin fault")
	sleeper := &recordingSleeper{port: port}
	ind := New(port, WithSleeper(sleeper.Sleep))

	_, err := ind.Indicate(context.Background(), classify.Clear)
	assert.ErrorContains(t, err, "pin fault")
	assert.Empty(t, sleeper.waits)
}

func TestIndicator_UnknownBand(t *testing.T) {
	ind := New(NewRecorder())
	_, err := ind.Indicate(context.Background(), classify.Band(42))
	assert.Error(t, err)
}

func TestIndicator_Pattern(t *testing.T) {
	custom := Patterns{classify.Clear: {Mask: MaskRed1, Duration: time.Second}}
	ind := New(NewRecorder(), WithPatterns(custom))

	pat, ok := ind.Pattern(classify.Clear)
	assert.True(t, ok)
	assert.Equal(t, custom[classify.Clear], pat)
	_, ok = ind.Pattern(classify.Collision)
	assert.False(t, ok)
}

func TestIndicator_Init(t *testing.T) {
	port := NewRecorder()
	require.NoError(t, New(port).Init(context.Background()))
	assert.True(t, port.Initialized())

	port = NewRecorder()
	port.InitErr = errors.New("no such chip")
	assert.ErrorContains(t, New(port).Init(context.Background()), "no such chip")
}

func TestPatterns_Validate(t *testing.T) {
	assert.NoError(t, DefaultPatterns.Validate())
	assert.Equal(t, uint32(0x0F), DefaultPatterns.All())

	overlap := Patterns{
		classify.SensorError: {Mask: 0x01, Duration: time.Millisecond},
		classify.Collision:   {Mask: 0x01, Duration: time.Millisecond},
		classify.Caution:     {Mask: 0x04, Duration: time.Millisecond},
		classify.Clear:       {Mask: 0x08, Duration: time.Millisecond},
	}
	assert.ErrorContains(t, overlap.Validate(), "overlaps")

	multiBit := Patterns{
		classify.SensorError: {Mask: 0x03, Duration: time.Millisecond},
		classify.Collision:   {Mask: 0x04, Duration: time.Millisecond},
		classify.Caution:     {Mask: 0x08, Duration: time.Millisecond},
		classify.Clear:       {Mask: 0x10, Duration: time.Millisecond},
	}
	assert.ErrorContains(t, multiBit.Validate(), "exactly one bit")

	missing := Patterns{classify.Clear: {Mask: 0x01, Duration: time.Millisecond}}
	assert.ErrorContains(t, missing.Validate(), "no pattern")
}
