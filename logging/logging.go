package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	chlog "github.com/charmbracelet/log"
	"github.com/lmittmann/tint"
	"github.com/muesli/termenv"
)

const (
	FormatCharm = "charm"
	FormatTint  = "tint"
	FormatJSON  = "json"
)

// Config selects the slog handler. Level uses slog names (debug, info, warn, error).
type Config struct {
	Format string `yaml:"format"`
	Level  string `yaml:"level"`
	Caller bool   `yaml:"caller"`
}

var Default = Config{
	Format: FormatCharm,
	Level:  "info",
	Caller: true,
}

func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return l, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return l, nil
}

// New builds a logger writing to w.
func New(cfg Config, w io.Writer) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(cfg.Format) {
	case FormatCharm, "":
		charm := chlog.NewWithOptions(w, chlog.Options{
			ReportCaller:    cfg.Caller,
			ReportTimestamp: true,
			TimeFormat:      time.DateTime,
			Level:           chlog.Level(level),
		})
		charm.SetColorProfile(termenv.TrueColor)
		return slog.New(charm), nil
	case FormatTint:
		return slog.New(tint.NewHandler(w, &tint.Options{
			AddSource:  cfg.Caller,
			Level:      level,
			TimeFormat: time.DateTime,
		})), nil
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			AddSource: cfg.Caller,
			Level:     level,
		})), nil
	}
	return nil, fmt.Errorf("unknown log format %q", cfg.Format)
}

// Setup builds a logger and installs it as the slog default.
func Setup(cfg Config, w io.Writer) error {
	logger, err := New(cfg, w)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}
