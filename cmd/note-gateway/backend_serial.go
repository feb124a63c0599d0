package main

import (
	"fmt"
	"log/slog"

	"github.com/blues/note-c-zero/internal/serlink"
	"github.com/blues/note-c-zero/internal/server"
)

// openSerialPort is a hook for tests (overridden in unit tests).
var openSerialPort = serlink.Open

func initSerialBackend(cfg *appConfig, l *slog.Logger) (server.TransactFunc, func(), error) {
	sp, err := openSerialPort(cfg.serialDev, cfg.baud, cfg.serialReadTO)
	if err != nil {
		return nil, func() {}, fmt.Errorf("open serial: %w", err)
	}
	l.Info("serial_open", "device", cfg.serialDev, "baud", cfg.baud)
	link := &serlink.Link{Port: sp, Grow: growDouble}
	if err := link.Reset(); err != nil {
		l.Warn("serial_reset_failed", "error", err)
	}
	return newTransact(link, cfg.maxFrame+1), func() { _ = sp.Close() }, nil
}
