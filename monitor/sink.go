package monitor

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mklimuk/proximity/classify"
	"github.com/mklimuk/proximity/report"
)

// Event is one line received from the device.
type Event struct {
	Time time.Time
	// Raw is the line as received, without the terminator. Non UTF-8 input is rendered
	// as <BIN:hex>.
	Raw  string
	Line report.Line
	Band classify.Band
	// Err is set when Raw is not a report line.
	Err error
}

// Sink consumes received events.
type Sink interface {
	Handle(ctx context.Context, ev Event) error
}

type SinkFunc func(ctx context.Context, ev Event) error

func (f SinkFunc) Handle(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

// CSVSink appends timestamp,data rows.
type CSVSink struct {
	mx     sync.Mutex
	w      *csv.Writer
	closer io.Closer
}

// NewCSVSink writes the header immediately when header is true.
func NewCSVSink(w io.Writer, header bool) (*CSVSink, error) {
	s := &CSVSink{w: csv.NewWriter(w)}
	if header {
		if err := s.write("timestamp", "data"); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// OpenCSVSink appends to path, writing the header when the file is new or empty.
func OpenCSVSink(path string) (*CSVSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("could not open csv log: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("could not stat csv log: %w", err)
	}
	s, err := NewCSVSink(f, info.Size() == 0)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	s.closer = f
	return s, nil
}

func (s *CSVSink) Handle(ctx context.Context, ev Event) error {
	return s.write(ev.Time.Format(time.RFC3339Nano), ev.Raw)
}

func (s *CSVSink) write(record ...string) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	if err := s.w.Write(record); err != nil {
		return fmt.Errorf("could not write csv record: %w", err)
	}
	s.w.Flush()
	return s.w.Error()
}

func (s *CSVSink) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
