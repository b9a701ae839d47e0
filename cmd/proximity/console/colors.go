package console

import (
	"github.com/fatih/color"

	"github.com/mklimuk/proximity/classify"
)

// Available ANSI colors
var (
	Yellow = color.New(color.FgYellow).SprintFunc()
	Red    = color.New(color.FgRed).SprintFunc()
	Green  = color.New(color.FgGreen).SprintFunc()
	Blue   = color.New(color.FgBlue).SprintFunc()
	White  = color.New(color.FgHiWhite).SprintFunc()
	Bold   = color.New(color.Bold).SprintFunc()
)

// Band renders a band name in the color of its indicator LED.
func Band(b classify.Band) string {
	switch b {
	case classify.Collision, classify.SensorError:
		return Red(b)
	case classify.Caution:
		return Blue(b)
	case classify.Clear:
		return Green(b)
	}
	return White(b)
}
