package logging

import (
	"log/slog"
	"os"
)

// SetupJSON sets slog's default logger to JSON output at the given level.
// Any attrs are stamped on every record, typically the service name so
// the api and migrator binaries are distinguishable in shared log streams.
func SetupJSON(level slog.Level, attrs ...slog.Attr) {
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})

	if len(attrs) > 0 {
		handler = handler.WithAttrs(attrs)
	}

	slog.SetDefault(slog.New(handler))
}
