package classify

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/proximity"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		given    proximity.Distance
		expected Band
	}{
		{0, Collision},
		{150, Collision},
		{199, Collision},
		{200, Caution},
		{350, Caution},
		{499, Caution},
		{500, Clear},
		{700, Clear},
		{0xFFFE, Clear},
		{proximity.Sentinel, SensorError},
	}
	for _, test := range tests {
		t.Run(strconv.Itoa(int(test.given)), func(t *testing.T) {
			assert.Equal(t, test.expected, Classify(test.given))
		})
	}
}

func TestClassify_Ranges(t *testing.T) {
	for r := 0; r < 0xFFFF; r++ {
		d := proximity.Distance(r)
		got := Classify(d)
		switch {
		case r < 200:
			assert.Equal(t, Collision, got, "reading %d", r)
		case r < 500:
			assert.Equal(t, Caution, got, "reading %d", r)
		default:
			assert.Equal(t, Clear, got, "reading %d", r)
		}
		if t.Failed() {
			return
		}
	}
}

func TestClassify_Pure(t *testing.T) {
	for _, d := range []proximity.Distance{0, 199, 200, 499, 500, proximity.Sentinel} {
		first := Classify(d)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, Classify(d))
		}
	}
}

func TestClassify_NoHysteresis(t *testing.T) {
	seq := []proximity.Distance{199, 200, 199, 200}
	want := []Band{Collision, Caution, Collision, Caution}
	for i, d := range seq {
		assert.Equal(t, want[i], Classify(d))
	}
}

func TestThresholds_Custom(t *testing.T) {
	th := Thresholds{Near: 50, Far: 100}
	assert.Equal(t, Collision, th.Classify(49))
	assert.Equal(t, Caution, th.Classify(50))
	assert.Equal(t, Clear, th.Classify(100))
	assert.Equal(t, SensorError, th.Classify(proximity.Sentinel))
}

func TestThresholds_Validate(t *testing.T) {
	assert.NoError(t, DefaultThresholds.Validate())
	assert.Error(t, Thresholds{Near: 500, Far: 200}.Validate())
	assert.Error(t, Thresholds{Near: 500, Far: 500}.Validate())
	assert.Error(t, Thresholds{Near: 10, Far: proximity.Sentinel}.Validate())
}

func TestBand_String(t *testing.T) {
	assert.Equal(t, "sensor-error", SensorError.String())
	assert.Equal(t, "collision", Collision.String())
	assert.Equal(t, "caution", Caution.String())
	assert.Equal(t, "clear", Clear.String())
	assert.Equal(t, "band(9)", Band(9).String())
}

func TestParseBand(t *testing.T) {
	for _, b := range Bands {
		parsed, err := ParseBand(b.String())
		require.NoError(t, err)
		assert.Equal(t, b, parsed)
	}
	_, err := ParseBand("band(7)")
	assert.Error(t, err)
}

func TestBand_Text(t *testing.T) {
	text, err := Caution.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "caution", string(text))

	var b Band
	require.NoError(t, b.UnmarshalText([]byte("sensor-error")))
	assert.Equal(t, SensorError, b)
	assert.Error(t, b.UnmarshalText([]byte("far")))
}
