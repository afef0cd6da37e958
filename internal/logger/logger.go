// Package logger builds the process-wide structured logger. JSON output,
// debug level and source locations in dev, info level elsewhere.
package logger

import (
	"log/slog"
	"os"
)

func New(env string) *slog.Logger {
	level := slog.LevelInfo
	if env == "dev" {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     level,
		AddSource: env == "dev",
	})
	return slog.New(handler)
}
