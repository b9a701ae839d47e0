package classify

import (
	"fmt"

	"github.com/mklimuk/proximity"
)

// Band is the proximity range a reading falls into.
type Band int

const (
	SensorError Band = iota
	Collision
	Caution
	Clear
)

func (b Band) String() string {
	switch b {
	case SensorError:
		return "sensor-error"
	case Collision:
		return "collision"
	case Caution:
		return "caution"
	case Clear:
		return "clear"
	default:
		return fmt.Sprintf("band(%d)", int(b))
	}
}

// ParseBand is the inverse of Band.String for the four known bands.
func ParseBand(s string) (Band, error) {
	for _, b := range Bands {
		if b.String() == s {
			return b, nil
		}
	}
	return 0, fmt.Errorf("unknown band %q", s)
}

func (b Band) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *Band) UnmarshalText(text []byte) error {
	parsed, err := ParseBand(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// Bands lists every band in ascending distance order, error first.
var Bands = []Band{SensorError, Collision, Caution, Clear}

// Thresholds bound the Collision and Caution bands, in millimeters.
type Thresholds struct {
	Near proximity.Distance `yaml:"near"`
	Far  proximity.Distance `yaml:"far"`
}

var DefaultThresholds = Thresholds{Near: 200, Far: 500}

func (t Thresholds) Validate() error {
	if t.Near >= t.Far {
		return fmt.Errorf("near threshold %d must be below far threshold %d", t.Near, t.Far)
	}
	if !t.Far.Valid() {
		return fmt.Errorf("far threshold must be below the sentinel %#x", uint16(proximity.Sentinel))
	}
	return nil
}

// Classify maps a reading to its band. It has no state and no hysteresis: readings
// alternating around a threshold alternate bands.
func (t Thresholds) Classify(d proximity.Distance) Band {
	switch {
	case !d.Valid():
		return SensorError
	case d < t.Near:
		return Collision
	case d < t.Far:
		return Caution
	default:
		return Clear
	}
}

// Classify uses DefaultThresholds.
func Classify(d proximity.Distance) Band {
	return DefaultThresholds.Classify(d)
}
