package monitor

import (
	"sync"
	"time"
)

// Snapshot is a point-in-time view of the traffic counters. Rates cover the period
// since the previous snapshot.
type Snapshot struct {
	Messages    int       `json:"message_count"`
	Bytes       int       `json:"total_bytes"`
	AvgSize     float64   `json:"avg_message_size"`
	MessageRate float64   `json:"message_rate"`
	DataRate    float64   `json:"data_rate"`
	Errors      int       `json:"errors"`
	Reconnects  int       `json:"reconnects"`
	Last        time.Time `json:"last"`
}

type Stats struct {
	mx        sync.Mutex
	messages  int
	bytes     int
	errors    int
	reconnect int
	last      time.Time

	windowStart    time.Time
	windowMessages int
	windowBytes    int
}

func NewStats(now time.Time) *Stats {
	return &Stats{windowStart: now}
}

// Add counts one received line of n bytes.
func (s *Stats) Add(n int, now time.Time) {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.messages++
	s.bytes += n
	s.last = now
}

// Failed counts a line that could not be decoded as a report.
func (s *Stats) Failed() {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.errors++
}

func (s *Stats) Reconnected() {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.reconnect++
}

// Snapshot returns the counters and restarts the rate window.
func (s *Stats) Snapshot(now time.Time) Snapshot {
	s.mx.Lock()
	defer s.mx.Unlock()
	snap := Snapshot{
		Messages:   s.messages,
		Bytes:      s.bytes,
		Errors:     s.errors,
		Reconnects: s.reconnect,
		Last:       s.last,
	}
	if s.messages > 0 {
		snap.AvgSize = float64(s.bytes) / float64(s.messages)
	}
	if elapsed := now.Sub(s.windowStart).Seconds(); elapsed > 0 {
		snap.MessageRate = float64(s.messages-s.windowMessages) / elapsed
		snap.DataRate = float64(s.bytes-s.windowBytes) / elapsed
	}
	s.windowStart = now
	s.windowMessages = s.messages
	s.windowBytes = s.bytes
	return snap
}
