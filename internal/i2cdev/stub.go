//go:build !linux

package i2cdev

import "errors"

// ErrUnsupported is returned on platforms without i2c-dev.
var ErrUnsupported = errors.New("i2cdev: unsupported platform")

// Device is a stub so gateway code compiles off-linux.
type Device struct{}

func Open(path string) (*Device, error) { return nil, ErrUnsupported }

func (d *Device) Close() error { return nil }

func (d *Device) Tx(addr uint16, p []byte) error { return ErrUnsupported }

func (d *Device) Rx(addr uint16, p []byte) error { return ErrUnsupported }
