package report

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mklimuk/proximity"
)

const (
	prefix     = "distance: "
	terminator = "\r\n"
	tokenReady = "READY"
	tokenError = "ERROR"
)

var ErrMalformedLine = errors.New("malformed report line")

// Line is one decoded report line: either the startup marker or a reading.
type Line struct {
	Ready    bool
	Distance proximity.Distance
}

// Format renders a reading, using ERROR for the sentinel.
func Format(d proximity.Distance) string {
	if !d.Valid() {
		return prefix + tokenError + terminator
	}
	return prefix + strconv.FormatUint(uint64(d), 10) + terminator
}

// FormatReady renders the startup line.
func FormatReady() string {
	return prefix + tokenReady + terminator
}

func (l Line) String() string {
	if l.Ready {
		return FormatReady()
	}
	return Format(l.Distance)
}

// Decode parses a report line. The terminator is optional so that lines split by a
// scanner decode too. Numbers must be canonical decimal so that Format(Decode(s)) == s.
func Decode(line string) (Line, error) {
	body, ok := strings.CutPrefix(strings.TrimRight(line, terminator), prefix)
	if !ok {
		return Line{}, fmt.Errorf("%w: missing %q prefix in %q", ErrMalformedLine, prefix, line)
	}
	switch body {
	case tokenReady:
		return Line{Ready: true}, nil
	case tokenError:
		return Line{Distance: proximity.Sentinel}, nil
	}
	v, err := strconv.ParseUint(body, 10, 16)
	if err != nil {
		return Line{}, fmt.Errorf("%w: %w", ErrMalformedLine, err)
	}
	if strconv.FormatUint(v, 10) != body {
		return Line{}, fmt.Errorf("%w: non-canonical number %q", ErrMalformedLine, body)
	}
	d := proximity.Distance(v)
	if !d.Valid() {
		return Line{}, fmt.Errorf("%w: reserved value %d", ErrMalformedLine, v)
	}
	return Line{Distance: d}, nil
}
