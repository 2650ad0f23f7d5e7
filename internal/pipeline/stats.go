package pipeline

import (
	"encoding/json"
	"log/slog"
	"sync/atomic"
)

// Stats counts documents through a run. Counters are atomic so the HTTP
// handlers and the report can read them while the run is streaming.
type Stats struct {
	read    atomic.Int64
	skipped atomic.Int64
	written atomic.Int64
	unknown atomic.Int64
}

// Read returns the number of documents taken from the source, including skipped ones.
func (s *Stats) Read() int64 { return s.read.Load() }

// Skipped returns the number of malformed documents that produced no row.
func (s *Stats) Skipped() int64 { return s.skipped.Load() }

// Written returns the number of rows written to the COPY stream.
func (s *Stats) Written() int64 { return s.written.Load() }

// UnknownPhenomena returns the number of observations not written because
// their phenomenon has no column.
func (s *Stats) UnknownPhenomena() int64 { return s.unknown.Load() }

// LogValue implements slog.LogValuer for structured logging.
func (s *Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("read", s.Read()),
		slog.Int64("skipped", s.Skipped()),
		slog.Int64("written", s.Written()),
		slog.Int64("unknown_phenomena", s.UnknownPhenomena()),
	)
}

type statsJSON struct {
	Read             int64 `json:"read"`
	Skipped          int64 `json:"skipped"`
	Written          int64 `json:"written"`
	UnknownPhenomena int64 `json:"unknown_phenomena"`
}

// MarshalJSON implements json.Marshaler for run reports.
func (s *Stats) MarshalJSON() ([]byte, error) {
	return json.Marshal(statsJSON{
		Read:             s.Read(),
		Skipped:          s.Skipped(),
		Written:          s.Written(),
		UnknownPhenomena: s.UnknownPhenomena(),
	})
}

func (s *Stats) incRead() int64     { return s.read.Add(1) }
func (s *Stats) incSkipped()        { s.skipped.Add(1) }
func (s *Stats) incWritten()        { s.written.Add(1) }
func (s *Stats) addUnknown(n int64) { s.unknown.Add(n) }
