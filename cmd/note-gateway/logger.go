package main

import (
	"log/slog"
	"os"

	"github.com/blues/note-c-zero/internal/logging"
)

func setupLogger(format, level string) *slog.Logger {
	l := logging.New(format, logging.ParseLevel(level), os.Stderr).With("app", "note-gateway")
	logging.Set(l)
	return l
}
