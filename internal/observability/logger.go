package observability

import (
	"io"
	"log/slog"
	"strings"

	"github.com/lmittmann/tint"
)

// NewLogger builds the process logger. format "text" selects a human-readable
// tint handler; anything else logs JSON. Unknown levels fall back to info.
func NewLogger(w io.Writer, level, format string) *slog.Logger {
	lvl := parseLevel(level)
	if strings.EqualFold(format, "text") {
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      lvl,
			TimeFormat: "2006-01-02T15:04:05.000Z07:00",
			NoColor:    true,
			ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey {
					a.Value = slog.TimeValue(a.Value.Time().UTC())
				}
				return a
			},
		}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func parseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
