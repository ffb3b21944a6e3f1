package app

import (
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// NewLogger builds the process logger. "pretty" renders colored lines for a
// terminal; "json" and "text" use the standard slog handlers.
func NewLogger(w io.Writer, levelRaw, formatRaw string) *slog.Logger {
	level := ParseLogLevel(levelRaw)
	switch strings.ToLower(strings.TrimSpace(formatRaw)) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	case "pretty":
		return slog.New(log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      time.Kitchen,
			Formatter:       log.TextFormatter,
			Level:           log.Level(level),
		}))
	default:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	}
}

func ParseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
