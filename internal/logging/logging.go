package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Setup installs the default JSON logger. Logs go to stderr so the terminal
// views written to stdout stay clean.
func Setup(level string) {
	SetupWriter(level, os.Stderr)
}

func SetupWriter(level string, w io.Writer) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	})

	slog.SetDefault(slog.New(handler))
}

func Fatalf(format string, args ...any) {
	slog.Error(fmt.Sprintf(format, args...))
	os.Exit(1)
}
