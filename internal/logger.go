package internal

import (
	"log/slog"
	"os"
	"strings"
	"time"
)

// GetLoggingHandler initializes a slog.Handler based on the provided logging level and format options.
func GetLoggingHandler(level string, pretty, json bool) slog.Handler {
	var logLevel = new(slog.LevelVar)

	switch strings.ToLower(level) {
	case "trace", "debug":
		logLevel.Set(slog.LevelDebug)
	case "info", "information":
		logLevel.Set(slog.LevelInfo)
	case "warn", "warning":
		logLevel.Set(slog.LevelWarn)
	case "error":
		logLevel.Set(slog.LevelError)
	default:
		logLevel.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	// send everything to stderr as suggested in https://www.gnu.org/software/libc/manual/html_node/Standard-Streams.html
	output := os.Stderr

	var handler slog.Handler
	switch {
	case json:
		handler = slog.NewJSONHandler(output, opts)
	case pretty:
		prettyOpts := *opts
		prettyOpts.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				a.Value = slog.StringValue(a.Value.Time().Format("2006/01/02 15:04:05"))
			}
			return a
		}
		handler = slog.NewTextHandler(output, &prettyOpts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return handler
}

// SetupLogging initializes the global logger with the given level and format
func SetupLogging(level string, pretty, json bool) {
	handler := GetLoggingHandler(level, pretty, json)

	logger := slog.New(handler)

	slog.SetDefault(logger)
}

// LogDuration is a convenience attr for elapsed times with a stable unit.
func LogDuration(key string, d time.Duration) slog.Attr {
	return slog.String(key, d.Round(time.Millisecond).String())
}
