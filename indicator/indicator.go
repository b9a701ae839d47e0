package indicator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mklimuk/proximity"
	"github.com/mklimuk/proximity/classify"
)

// Output bits, matching the board's LED wiring.
const (
	MaskRed1  uint32 = 0x01
	MaskGreen uint32 = 0x02
	MaskBlue  uint32 = 0x04
	MaskRed2  uint32 = 0x08
)

// Port is a bitmask-addressable discrete output port.
type Port interface {
	// Init configures every line as an output and drives it inactive.
	Init(ctx context.Context) error
	Set(ctx context.Context, mask uint32) error
	Clear(ctx context.Context, mask uint32) error
}

// Pattern is the output mask strobed for a band and how long it stays asserted.
type Pattern struct {
	Mask     uint32        `yaml:"mask"`
	Duration time.Duration `yaml:"duration"`
}

type Patterns map[classify.Band]Pattern

// DefaultPatterns: second red LED for a missing sensor, first red LED for collision,
// blue for caution, green for clear.
var DefaultPatterns = Patterns{
	classify.SensorError: {Mask: MaskRed2, Duration: 100 * time.Millisecond},
	classify.Collision:   {Mask: MaskRed1, Duration: 250 * time.Millisecond},
	classify.Caution:     {Mask: MaskBlue, Duration: 250 * time.Millisecond},
	classify.Clear:       {Mask: MaskGreen, Duration: 250 * time.Millisecond},
}

// Validate checks that every band has a single-bit mask, masks are disjoint and
// durations are positive.
func (p Patterns) Validate() error {
	var seen uint32
	for _, band := range classify.Bands {
		pat, ok := p[band]
		if !ok {
			return fmt.Errorf("no pattern for band %s", band)
		}
		if pat.Mask == 0 || pat.Mask&(pat.Mask-1) != 0 {
			return fmt.Errorf("pattern for %s: mask %#x must have exactly one bit set", band, pat.Mask)
		}
		if seen&pat.Mask != 0 {
			return fmt.Errorf("pattern for %s: mask %#x overlaps another band", band, pat.Mask)
		}
		seen |= pat.Mask
		if pat.Duration <= 0 {
			return fmt.Errorf("pattern for %s: duration must be positive", band)
		}
	}
	return nil
}

// All returns the union of every pattern mask.
func (p Patterns) All() uint32 {
	var all uint32
	for _, pat := range p {
		all |= pat.Mask
	}
	return all
}

type Opts struct {
	Patterns Patterns
	// OffPhase keeps the outputs dark for the strobe duration after deasserting.
	OffPhase bool
	Sleep    proximity.Sleeper
}

type Opt func(*Opts)

func WithPatterns(p Patterns) Opt {
	return func(o *Opts) {
		o.Patterns = p
	}
}

func WithOffPhase(enabled bool) Opt {
	return func(o *Opts) {
		o.OffPhase = enabled
	}
}

func WithSleeper(s proximity.Sleeper) Opt {
	return func(o *Opts) {
		o.Sleep = s
	}
}

// Indicator strobes the pattern of a band on a Port.
type Indicator struct {
	port   Port
	config Opts
}

func New(port Port, opts ...Opt) *Indicator {
	config := Opts{
		Patterns: DefaultPatterns,
		OffPhase: true,
		Sleep:    proximity.Sleep,
	}
	for _, opt := range opts {
		opt(&config)
	}
	return &Indicator{port: port, config: config}
}

func (i *Indicator) Init(ctx context.Context) error {
	if err := i.port.Init(ctx); err != nil {
		return fmt.Errorf("could not initialize indicator port: %w", err)
	}
	return nil
}

// Pattern returns the pattern configured for band.
func (i *Indicator) Pattern(band classify.Band) (Pattern, bool) {
	p, ok := i.config.Patterns[band]
	return p, ok
}

// Indicate asserts the band's mask, blocks for its duration and deasserts it. The
// mask is cleared even when the wait is interrupted.
func (i *Indicator) Indicate(ctx context.Context, band classify.Band) (Pattern, error) {
	pat, ok := i.Pattern(band)
	if !ok {
		return Pattern{}, fmt.Errorf("no indicator pattern for %s", band)
	}
	if err := i.port.Set(ctx, pat.Mask); err != nil {
		return pat, fmt.Errorf("could not assert %#x: %w", pat.Mask, err)
	}
	waitErr := i.config.Sleep(ctx, pat.Duration)
	if err := i.port.Clear(context.WithoutCancel(ctx), pat.Mask); err != nil {
		return pat, errors.Join(waitErr, fmt.Errorf("could not deassert %#x: %w", pat.Mask, err))
	}
	if waitErr != nil {
		return pat, waitErr
	}
	if i.config.OffPhase {
		return pat, i.config.Sleep(ctx, pat.Duration)
	}
	return pat, nil
}
