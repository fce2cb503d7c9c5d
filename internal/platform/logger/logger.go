package logger

import (
	"log/slog"
	"os"
)

// New returns the JSON slog logger handlers and middleware share.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}
