package main

import (
	"fmt"
	"log/slog"

	"github.com/blues/note-c-zero/internal/i2cdev"
	"github.com/blues/note-c-zero/internal/server"
	"github.com/blues/note-c-zero/internal/soi2c"
)

// openI2CDevice is a hook for tests.
var openI2CDevice = func(path string) (soi2c.Bus, func() error, error) {
	dev, err := i2cdev.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return dev, dev.Close, nil
}

func initI2CBackend(cfg *appConfig, l *slog.Logger) (server.TransactFunc, func(), error) {
	bus, closeDev, err := openI2CDevice(cfg.i2cDev)
	if err != nil {
		return nil, func() {}, fmt.Errorf("open i2c: %w", err)
	}
	l.Info("i2c_open", "device", cfg.i2cDev, "addr", fmt.Sprintf("0x%02X", cfg.i2cAddr))
	client := &soi2c.Client{Addr: cfg.i2cAddr, Bus: bus, Grow: growDouble}
	if err := client.Reset(); err != nil {
		l.Warn("i2c_reset_failed", "error", err)
	}
	return newTransact(client, cfg.maxFrame+1), func() { _ = closeDev() }, nil
}
