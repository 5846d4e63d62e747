package observability

import (
	"log/slog"
	"os"
)

// NewLogger builds the process logger: JSON slog wrapped so records pick up
// the active trace/span ids when a span is in flight.
func NewLogger(env string) *slog.Logger {
	level := slog.LevelInfo

	if env == "dev" {
		level = slog.LevelDebug
	}

	json := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})

	return slog.New(NewTraceHandler(json))
}
