package logger

import (
	"log/slog"
	"os"
	"strings"
)

// New creates a JSON slog.Logger at the given level. Unknown level strings
// fall back to info.
func New(level string) *slog.Logger {
	var l slog.Level

	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: l})
	return slog.New(handler)
}
